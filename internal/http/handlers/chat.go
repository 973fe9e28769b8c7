package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/boxabirds/docqa/internal/data/repos/store"
	"github.com/boxabirds/docqa/internal/http/response"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/services"
	"github.com/boxabirds/docqa/internal/sse"
)

// DefaultStreamDeadline bounds one chat request end to end.
const DefaultStreamDeadline = 120 * time.Second

type ChatHandler struct {
	chat          services.ChatService
	collections   store.CollectionRepo
	conversations store.ConversationRepo
	aborts        *services.AbortRegistry
	deadline      time.Duration
}

func NewChatHandler(
	chat services.ChatService,
	collections store.CollectionRepo,
	conversations store.ConversationRepo,
	aborts *services.AbortRegistry,
	deadline time.Duration,
) *ChatHandler {
	if deadline <= 0 {
		deadline = DefaultStreamDeadline
	}
	return &ChatHandler{
		chat:          chat,
		collections:   collections,
		conversations: conversations,
		aborts:        aborts,
		deadline:      deadline,
	}
}

type chatReq struct {
	Message        string     `json:"message"`
	ConversationID *uuid.UUID `json:"conversation_id"`
	CollectionID   int        `json:"collection_id"`
}

// POST /api/chat
//
// Validation failures respond with plain JSON errors; once the stream is
// open the response is committed as text/event-stream with HTTP 200 and all
// later failures surface as in-stream error events.
func (h *ChatHandler) StreamChat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("message is required"))
		return
	}
	if req.CollectionID <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("collection_id is required"))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if _, err := h.collections.GetByID(dbc, req.CollectionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "not_found", errors.New("collection not found"))
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "collection_lookup_failed", err)
		return
	}
	streamReq := services.StreamRequest{
		Message:      req.Message,
		CollectionID: req.CollectionID,
	}
	if req.ConversationID != nil {
		conv, err := h.conversations.GetByID(dbc, *req.ConversationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.RespondError(c, http.StatusNotFound, "not_found", errors.New("conversation not found"))
				return
			}
			response.RespondError(c, http.StatusInternalServerError, "conversation_lookup_failed", err)
			return
		}
		streamReq.Conversation = conv
	}

	stream, err := sse.NewStream(c.Writer)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "streaming_unsupported", err)
		return
	}

	scope, cancel := context.WithTimeout(c.Request.Context(), h.deadline)
	defer cancel()
	release := h.aborts.Register(clientKey(c), cancel)
	defer release()

	// The orchestrator produces events from its own goroutine; the serve
	// loop stays on this one because gin's ResponseWriter is not valid
	// after the handler returns.
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stream.Close()
		_ = h.chat.Stream(scope, streamReq, stream)
	}()
	_ = stream.Serve(scope)
	<-done
}

// DELETE /api/chat/abort
//
// Cancels the caller's current stream. Aborting with nothing in flight is
// fine; the response is 204 either way.
func (h *ChatHandler) AbortChat(c *gin.Context) {
	h.aborts.Abort(clientKey(c))
	response.RespondNoContent(c)
}

// clientKey identifies the caller for abort scoping: the X-Client-ID header
// when present, the peer address otherwise.
func clientKey(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader("X-Client-ID")); id != "" {
		return id
	}
	return c.ClientIP()
}
