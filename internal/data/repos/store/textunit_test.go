package store

import (
	"context"
	"testing"

	"github.com/boxabirds/docqa/internal/data/repos/testutil"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
)

func TestTextUnitRepoNearestByEmbedding(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTextUnitRepo(db, testutil.Logger(t))

	col := testutil.SeedCollection(t, ctx, tx, "textunitrepo-nearest")

	testutil.SeedTextUnit(t, ctx, tx, col.ID, "tu-exact", testutil.VecPtr(1, 0))
	testutil.SeedTextUnit(t, ctx, tx, col.ID, "tu-far", testutil.VecPtr(0, 1))
	testutil.SeedTextUnit(t, ctx, tx, col.ID, "tu-null", nil)

	qv := make([]float32, testutil.EmbedDim)
	qv[0] = 1

	hits, err := repo.NearestByEmbedding(dbc, col.ID, qv, 10)
	if err != nil {
		t.Fatalf("NearestByEmbedding: %v", err)
	}
	if len(hits) != 2 || hits[0].TextUnit.ID != "tu-exact" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].Similarity < hits[1].Similarity {
		t.Fatalf("similarity not monotone: %f then %f", hits[0].Similarity, hits[1].Similarity)
	}
}

func TestTextUnitRepoGetByIDs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTextUnitRepo(db, testutil.Logger(t))

	col := testutil.SeedCollection(t, ctx, tx, "textunitrepo-byids")

	testutil.SeedTextUnit(t, ctx, tx, col.ID, "tu-a", nil)
	testutil.SeedTextUnit(t, ctx, tx, col.ID, "tu-b", nil)
	testutil.SeedTextUnit(t, ctx, tx, col.ID, "tu-c", nil)

	got, err := repo.GetByIDs(dbc, col.ID, []string{"tu-c", "tu-missing", "tu-a"})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 2 || got[0].ID != "tu-c" || got[1].ID != "tu-a" {
		t.Fatalf("input order not preserved: %+v", got)
	}

	empty, err := repo.GetByIDs(dbc, col.ID, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input: err=%v len=%d", err, len(empty))
	}
}
