package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxabirds/docqa/internal/data/repos/store"
	"github.com/boxabirds/docqa/internal/http/response"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
)

type CollectionHandler struct {
	collections store.CollectionRepo
}

func NewCollectionHandler(collections store.CollectionRepo) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

// collectionView is the listing row the frontend renders. Every collection
// served here is a graph index, so type is fixed.
type collectionView struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	FileCount int64  `json:"file_count"`
}

// GET /api/collections
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.collections.ListWithFileCounts(dbc)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_collections_failed", err)
		return
	}
	out := make([]collectionView, 0, len(rows))
	for _, row := range rows {
		out = append(out, collectionView{
			ID:        row.Collection.ID,
			Name:      row.Collection.Name,
			Type:      "graphrag",
			FileCount: row.FileCount,
		})
	}
	response.RespondOK(c, out)
}
