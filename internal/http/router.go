package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/boxabirds/docqa/internal/http/handlers"
	httpMW "github.com/boxabirds/docqa/internal/http/middleware"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler       *httpH.HealthHandler
	CollectionHandler   *httpH.CollectionHandler
	ConversationHandler *httpH.ConversationHandler
	ChatHandler         *httpH.ChatHandler
	DocumentHandler     *httpH.DocumentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	api := r.Group("/api")
	{
		// Health
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.HealthCheck)
		}

		// Collections
		if cfg.CollectionHandler != nil {
			api.GET("/collections", cfg.CollectionHandler.ListCollections)
		}

		// Conversations
		if cfg.ConversationHandler != nil {
			api.POST("/conversations", cfg.ConversationHandler.CreateConversation)
			api.GET("/conversations", cfg.ConversationHandler.ListConversations)
			api.GET("/conversations/:id", cfg.ConversationHandler.GetConversation)
			api.PATCH("/conversations/:id", cfg.ConversationHandler.RenameConversation)
			api.DELETE("/conversations/:id", cfg.ConversationHandler.DeleteConversation)
		}

		// Chat (SSE)
		if cfg.ChatHandler != nil {
			api.POST("/chat", cfg.ChatHandler.StreamChat)
			api.DELETE("/chat/abort", cfg.ChatHandler.AbortChat)
		}

		// Documents
		if cfg.DocumentHandler != nil {
			api.GET("/documents/:id/pdf", cfg.DocumentHandler.GetDocumentPDF)
		}
	}

	return r
}
