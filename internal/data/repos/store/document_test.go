package store

import (
	"context"
	"errors"
	"testing"

	"github.com/boxabirds/docqa/internal/data/repos/testutil"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
)

func TestDocumentRepoGetByID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	col := testutil.SeedCollection(t, ctx, tx, "documentrepo-get")
	testutil.SeedDocument(t, ctx, tx, col.ID, "documentrepo-doc-1", "/data/pdfs/one.pdf")

	got, err := repo.GetByID(dbc, "documentrepo-doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PDFPath != "/data/pdfs/one.pdf" || got.OriginalFilename != "documentrepo-doc-1.pdf" {
		t.Fatalf("GetByID: unexpected row %+v", got)
	}

	if _, err := repo.GetByID(dbc, "documentrepo-nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByID(dbc, ""); err == nil {
		t.Fatalf("expected error for empty id")
	}
}
