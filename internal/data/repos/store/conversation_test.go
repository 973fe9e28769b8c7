package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/boxabirds/docqa/internal/data/repos/testutil"
	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
)

func TestConversationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewConversationRepo(db, testutil.Logger(t))

	col := testutil.SeedCollection(t, ctx, tx, "conversationrepo")
	other := testutil.SeedCollection(t, ctx, tx, "conversationrepo-other")

	rows, err := repo.Create(dbc, []*types.Conversation{
		{ID: uuid.New(), CollectionID: &col.ID},
		{ID: uuid.New(), CollectionID: &other.ID},
	})
	if err != nil || len(rows) != 2 {
		t.Fatalf("Create: err=%v len=%d", err, len(rows))
	}
	c1, c2 := rows[0], rows[1]

	got, err := repo.GetByID(dbc, c1.ID)
	if err != nil || got.ID != c1.ID {
		t.Fatalf("GetByID: err=%v row=%+v", err, got)
	}
	if _, err := repo.GetByID(dbc, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID missing: expected ErrNotFound, got %v", err)
	}

	// Renaming bumps updated_at, so c1 sorts first afterwards.
	renamed, err := repo.UpdateTitle(dbc, c1.ID, "renamed")
	if err != nil || renamed.Title == nil || *renamed.Title != "renamed" {
		t.Fatalf("UpdateTitle: err=%v row=%+v", err, renamed)
	}
	if _, err := repo.UpdateTitle(dbc, uuid.New(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateTitle missing: expected ErrNotFound, got %v", err)
	}

	all, err := repo.List(dbc, nil)
	if err != nil || len(all) != 2 || all[0].ID != c1.ID {
		t.Fatalf("List: err=%v rows=%+v", err, all)
	}
	filtered, err := repo.List(dbc, &other.ID)
	if err != nil || len(filtered) != 1 || filtered[0].ID != c2.ID {
		t.Fatalf("List filtered: err=%v rows=%+v", err, filtered)
	}

	if err := repo.Touch(dbc, c2.ID); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if err := repo.Touch(dbctx.Context{Ctx: ctx}, c2.ID); err == nil {
		t.Fatalf("Touch without tx should fail")
	}
	if err := repo.Touch(dbc, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Touch missing: expected ErrNotFound, got %v", err)
	}

	testutil.SeedMessage(t, ctx, tx, c1.ID, types.RoleUser, "hello")
	testutil.SeedMessage(t, ctx, tx, c1.ID, types.RoleAssistant, "hi")

	if err := repo.Delete(dbc, c1.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(dbc, c1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("conversation still present after Delete")
	}
	var orphans int64
	if err := tx.WithContext(ctx).Model(&types.Message{}).
		Where("conversation_id = ?", c1.ID).
		Count(&orphans).Error; err != nil || orphans != 0 {
		t.Fatalf("messages not cascaded: err=%v count=%d", err, orphans)
	}
	if err := repo.Delete(dbc, c1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete missing: expected ErrNotFound, got %v", err)
	}
}
