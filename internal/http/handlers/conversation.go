package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/boxabirds/docqa/internal/data/repos/store"
	"github.com/boxabirds/docqa/internal/http/response"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/services"
)

type ConversationHandler struct {
	conversations services.ConversationService
}

func NewConversationHandler(conversations services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

type createConversationReq struct {
	CollectionID int     `json:"collection_id"`
	Title        *string `json:"title"`
}

// POST /api/conversations
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req createConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.CollectionID <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("collection_id is required"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conv, err := h.conversations.Create(dbc, req.CollectionID, req.Title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "create_conversation_failed", err)
		return
	}
	response.RespondOK(c, conv)
}

// GET /api/conversations?collection_id=10
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	var collectionID *int
	if v := strings.TrimSpace(c.Query("collection_id")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("collection_id must be an integer"))
			return
		}
		collectionID = &n
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	convs, err := h.conversations.List(dbc, collectionID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_conversations_failed", err)
		return
	}
	response.RespondOK(c, convs)
}

// GET /api/conversations/:id
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid conversation id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conv, msgs, err := h.conversations.Get(dbc, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "get_conversation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": conv, "messages": msgs})
}

type renameConversationReq struct {
	Title string `json:"title"`
}

// PATCH /api/conversations/:id
func (h *ConversationHandler) RenameConversation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid conversation id"))
		return
	}
	var req renameConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("title is required"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conv, err := h.conversations.Rename(dbc, id, req.Title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "rename_conversation_failed", err)
		return
	}
	response.RespondOK(c, conv)
}

// DELETE /api/conversations/:id
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("invalid conversation id"))
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.conversations.Delete(dbc, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "delete_conversation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"status": "deleted", "id": id.String()})
}
