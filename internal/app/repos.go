package app

import (
	"gorm.io/gorm"

	"github.com/boxabirds/docqa/internal/data/repos/store"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

type Repos struct {
	Collection   store.CollectionRepo
	Document     store.DocumentRepo
	TextUnit     store.TextUnitRepo
	Entity       store.EntityRepo
	Graph        store.GraphRepo
	Report       store.ReportRepo
	Conversation store.ConversationRepo
	Message      store.MessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Collection:   store.NewCollectionRepo(db, log),
		Document:     store.NewDocumentRepo(db, log),
		TextUnit:     store.NewTextUnitRepo(db, log),
		Entity:       store.NewEntityRepo(db, log),
		Graph:        store.NewGraphRepo(db, log),
		Report:       store.NewReportRepo(db, log),
		Conversation: store.NewConversationRepo(db, log),
		Message:      store.NewMessageRepo(db, log),
	}
}
