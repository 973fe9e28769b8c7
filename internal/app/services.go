package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/boxabirds/docqa/internal/pkg/logger"
	"github.com/boxabirds/docqa/internal/retrieval"
	"github.com/boxabirds/docqa/internal/services"
)

type Services struct {
	Retriever    retrieval.Retriever
	Chat         services.ChatService
	Conversation services.ConversationService
	Aborts       *services.AbortRegistry
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	retriever, err := retrieval.New(cfg.Retrieval, clients.Embedder, retrieval.Stores{
		Entities:  repos.Entity,
		TextUnits: repos.TextUnit,
		Graph:     repos.Graph,
		Reports:   repos.Report,
	}, log)
	if err != nil {
		return Services{}, fmt.Errorf("init retriever: %w", err)
	}

	chat, err := services.NewChatService(db, log, services.Options{
		HistoryLimit:     cfg.HistoryLimit,
		PromptCharBudget: cfg.PromptCharBudget,
	}, retriever, clients.Generator, repos.Conversation, repos.Message)
	if err != nil {
		return Services{}, fmt.Errorf("init chat service: %w", err)
	}

	conversation := services.NewConversationService(db, log, repos.Collection, repos.Conversation, repos.Message)

	return Services{
		Retriever:    retriever,
		Chat:         chat,
		Conversation: conversation,
		Aborts:       services.NewAbortRegistry(),
	}, nil
}
