package app

import (
	"github.com/gin-gonic/gin"

	server "github.com/boxabirds/docqa/internal/http"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, handlers Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:                 log,
		HealthHandler:       handlers.Health,
		CollectionHandler:   handlers.Collection,
		ConversationHandler: handlers.Conversation,
		ChatHandler:         handlers.Chat,
		DocumentHandler:     handlers.Document,
	})
}
