package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/boxabirds/docqa/internal/data/repos/testutil"
	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
)

func TestMessageRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMessageRepo(db, testutil.Logger(t))

	col := testutil.SeedCollection(t, ctx, tx, "messagerepo")
	conv := testutil.SeedConversation(t, ctx, tx, &col.ID)

	base := time.Now().UTC().Add(-time.Minute)
	rows, err := repo.Create(dbc, []*types.Message{
		{ID: uuid.New(), ConversationID: conv.ID, Role: types.RoleUser, Content: "first", CreatedAt: base},
		{ID: uuid.New(), ConversationID: conv.ID, Role: types.RoleAssistant, Content: "second", CreatedAt: base.Add(time.Second)},
		{ID: uuid.New(), ConversationID: conv.ID, Role: types.RoleUser, Content: "third", CreatedAt: base.Add(2 * time.Second)},
	})
	if err != nil || len(rows) != 3 {
		t.Fatalf("Create: err=%v len=%d", err, len(rows))
	}

	got, err := repo.ListByConversation(dbc, conv.ID, 0)
	if err != nil {
		t.Fatalf("ListByConversation: %v", err)
	}
	if len(got) != 3 || got[0].Content != "first" || got[2].Content != "third" {
		t.Fatalf("unexpected order: %+v", got)
	}

	// History replay keeps the oldest turns when the limit bites.
	head, err := repo.ListByConversation(dbc, conv.ID, 2)
	if err != nil || len(head) != 2 || head[0].Content != "first" || head[1].Content != "second" {
		t.Fatalf("limited list: err=%v rows=%+v", err, head)
	}

	n, err := repo.CountByConversation(dbc, conv.ID)
	if err != nil || n != 3 {
		t.Fatalf("CountByConversation: err=%v n=%d", err, n)
	}

	none, err := repo.Create(dbc, nil)
	if err != nil || len(none) != 0 {
		t.Fatalf("Create empty: err=%v len=%d", err, len(none))
	}
}
