package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/boxabirds/docqa/internal/data/repos/store"
	"github.com/boxabirds/docqa/internal/http/response"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
)

type DocumentHandler struct {
	documents store.DocumentRepo
}

func NewDocumentHandler(documents store.DocumentRepo) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// GET /api/documents/:id/pdf
//
// Streams the stored PDF inline so the frontend can render cited pages. A
// row without a file on disk is indistinguishable from a missing row to the
// caller: both are 404.
func (h *DocumentHandler) GetDocumentPDF(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("document id is required"))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	doc, err := h.documents.GetByID(dbc, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", errors.New("document not found"))
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "document_lookup_failed", err)
		return
	}
	if doc.PDFPath == "" {
		response.RespondError(c, http.StatusNotFound, "not_found", errors.New("document has no stored pdf"))
		return
	}
	if _, err := os.Stat(doc.PDFPath); err != nil {
		response.RespondError(c, http.StatusNotFound, "not_found", errors.New("pdf file missing"))
		return
	}

	filename := doc.OriginalFilename
	if filename == "" {
		filename = filepath.Base(doc.PDFPath)
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.File(doc.PDFPath)
}
