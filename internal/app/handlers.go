package app

import (
	"github.com/boxabirds/docqa/internal/data/db"
	"github.com/boxabirds/docqa/internal/http/handlers"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

type Handlers struct {
	Health       *handlers.HealthHandler
	Collection   *handlers.CollectionHandler
	Conversation *handlers.ConversationHandler
	Chat         *handlers.ChatHandler
	Document     *handlers.DocumentHandler
}

func wireHandlers(log *logger.Logger, cfg Config, pg *db.PostgresService, services Services, repos Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       handlers.NewHealthHandler(pg),
		Collection:   handlers.NewCollectionHandler(repos.Collection),
		Conversation: handlers.NewConversationHandler(services.Conversation),
		Chat:         handlers.NewChatHandler(services.Chat, repos.Collection, repos.Conversation, services.Aborts, cfg.RequestDeadline),
		Document:     handlers.NewDocumentHandler(repos.Document),
	}
}
