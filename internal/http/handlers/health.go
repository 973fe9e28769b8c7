package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxabirds/docqa/internal/http/response"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping() error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// GET /api/health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.store != nil {
		if err := h.store.Ping(); err != nil {
			response.RespondError(c, http.StatusServiceUnavailable, "store_unreachable", err)
			return
		}
	}
	response.RespondOK(c, gin.H{"status": "ok"})
}
