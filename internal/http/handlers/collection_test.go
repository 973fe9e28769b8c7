package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/boxabirds/docqa/internal/data/repos/store"
	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
)

type fakeCollections struct {
	summaries []store.CollectionSummary
	byID      map[int]*types.Collection
}

func (f *fakeCollections) List(dbc dbctx.Context) ([]*types.Collection, error) { return nil, nil }
func (f *fakeCollections) ListWithFileCounts(dbc dbctx.Context) ([]store.CollectionSummary, error) {
	return f.summaries, nil
}
func (f *fakeCollections) GetByID(dbc dbctx.Context, id int) (*types.Collection, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, store.ErrNotFound
}

func TestListCollections(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	repo := &fakeCollections{summaries: []store.CollectionSummary{
		{Collection: types.Collection{ID: 10, Name: "Digital Twin PRD"}, FileCount: 3},
		{Collection: types.Collection{ID: 11, Name: "Cadent MVP"}, FileCount: 0},
	}}
	r := gin.New()
	r.GET("/api/collections", NewCollectionHandler(repo).ListCollections)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collections", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	first := got[0]
	if first["id"].(float64) != 10 || first["name"] != "Digital Twin PRD" {
		t.Fatalf("first row = %v", first)
	}
	if first["type"] != "graphrag" {
		t.Fatalf("type = %v, want graphrag", first["type"])
	}
	if first["file_count"].(float64) != 3 {
		t.Fatalf("file_count = %v, want 3", first["file_count"])
	}
}
