package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/boxabirds/docqa/internal/data/repos/store"
	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

// ConversationService backs the conversation CRUD surface. Lookups return
// store.ErrNotFound for missing rows so handlers can map them to 404s.
type ConversationService interface {
	Create(dbc dbctx.Context, collectionID int, title *string) (*types.Conversation, error)
	List(dbc dbctx.Context, collectionID *int) ([]*types.Conversation, error)
	// Get returns the conversation and its messages oldest-first.
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, []*types.Message, error)
	Rename(dbc dbctx.Context, id uuid.UUID, title string) (*types.Conversation, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type conversationService struct {
	db            *gorm.DB
	log           *logger.Logger
	collections   store.CollectionRepo
	conversations store.ConversationRepo
	messages      store.MessageRepo
}

func NewConversationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	collectionRepo store.CollectionRepo,
	conversationRepo store.ConversationRepo,
	messageRepo store.MessageRepo,
) ConversationService {
	return &conversationService{
		db:            db,
		log:           baseLog.With("service", "ConversationService"),
		collections:   collectionRepo,
		conversations: conversationRepo,
		messages:      messageRepo,
	}
}

func (s *conversationService) Create(dbc dbctx.Context, collectionID int, title *string) (*types.Conversation, error) {
	if collectionID <= 0 {
		return nil, fmt.Errorf("missing collection id")
	}
	if _, err := s.collections.GetByID(dbc, collectionID); err != nil {
		return nil, err
	}

	if title != nil {
		trimmed := strings.TrimSpace(*title)
		if trimmed == "" {
			title = nil
		} else {
			title = &trimmed
		}
	}

	row := &types.Conversation{
		ID:           uuid.New(),
		CollectionID: &collectionID,
		Title:        title,
	}
	created, err := s.conversations.Create(dbc, []*types.Conversation{row})
	if err != nil {
		return nil, err
	}
	if len(created) == 0 || created[0] == nil {
		return nil, fmt.Errorf("failed to create conversation")
	}
	return created[0], nil
}

func (s *conversationService) List(dbc dbctx.Context, collectionID *int) ([]*types.Conversation, error) {
	return s.conversations.List(dbc, collectionID)
}

func (s *conversationService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, []*types.Message, error) {
	conv, err := s.conversations.GetByID(dbc, id)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.messages.ListByConversation(dbc, id, 0)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

func (s *conversationService) Rename(dbc dbctx.Context, id uuid.UUID, title string) (*types.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("missing title")
	}
	return s.conversations.UpdateTitle(dbc, id, title)
}

// Delete removes the conversation and its messages atomically.
func (s *conversationService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if dbc.Tx != nil {
		return s.conversations.Delete(dbc, id)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.conversations.Delete(dbctx.Context{Ctx: dbc.Ctx, Tx: tx}, id)
	})
}
