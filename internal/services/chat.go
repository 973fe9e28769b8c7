package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/boxabirds/docqa/internal/clients/genai"
	"github.com/boxabirds/docqa/internal/data/repos/store"
	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
	"github.com/boxabirds/docqa/internal/promptfmt"
	"github.com/boxabirds/docqa/internal/retrieval"
	"github.com/boxabirds/docqa/internal/sse"
)

const systemPrompt = `You are a document analyst. Answer questions based on the provided context.
Be precise. Quote relevant passages when answering.
Use the conversation history for context about previous questions.`

// Emitter is the event sink for one chat stream. *sse.Stream satisfies it.
type Emitter interface {
	Send(event string, payload any) error
}

// StreamRequest is one validated chat turn. Conversation is nil for
// stateless questions; those stream an answer but persist nothing.
type StreamRequest struct {
	Message      string
	CollectionID int
	Conversation *types.Conversation
}

// ChatService runs one chat turn end to end: retrieve, emit the citation
// info event, stream answer deltas, persist the exchange, emit done.
type ChatService interface {
	// Stream drives the full turn, writing every event to out. The returned
	// error reports the terminal failure, nil on a completed stream; callers
	// already received the same outcome as in-stream events.
	Stream(ctx context.Context, req StreamRequest, out Emitter) error
}

// Options carries the orchestration knobs that are not owned by a
// sub-component.
type Options struct {
	HistoryLimit     int
	PromptCharBudget int
}

type chatService struct {
	db            *gorm.DB
	log           *logger.Logger
	retriever     retrieval.Retriever
	formatter     *promptfmt.Formatter
	generator     genai.Generator
	conversations store.ConversationRepo
	messages      store.MessageRepo
	historyLimit  int
}

func NewChatService(
	db *gorm.DB,
	baseLog *logger.Logger,
	opts Options,
	retriever retrieval.Retriever,
	generator genai.Generator,
	conversationRepo store.ConversationRepo,
	messageRepo store.MessageRepo,
) (ChatService, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator required")
	}
	if conversationRepo == nil || messageRepo == nil {
		return nil, fmt.Errorf("conversation and message repos required")
	}
	historyLimit := opts.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &chatService{
		db:            db,
		log:           baseLog.With("service", "ChatService"),
		retriever:     retriever,
		formatter:     promptfmt.New(opts.PromptCharBudget),
		generator:     generator,
		conversations: conversationRepo,
		messages:      messageRepo,
		historyLimit:  historyLimit,
	}, nil
}

// Event payloads. message_id is fixed before the first chat delta and is
// identical on every event of one response.
type infoPayload struct {
	Sources []promptfmt.Source `json:"sources"`
}

type chatPayload struct {
	Content   string `json:"content"`
	MessageID string `json:"message_id"`
}

type donePayload struct {
	MessageID string `json:"message_id"`
}

type errorPayload struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Stream walks the request through its phases:
//
//	retrieving -> streaming -> persisting -> done
//
// with every failure routed to a single in-stream error event (or a silent
// stop for aborts and stalled clients). Cancelled requests persist nothing.
func (s *chatService) Stream(ctx context.Context, req StreamRequest, out Emitter) error {
	start := time.Now()
	log := s.log.With("collection_id", req.CollectionID)

	rc, err := s.retriever.Retrieve(ctx, req.Message, req.CollectionID)
	if err != nil {
		return s.fail(ctx, log, out, "retrieving", err)
	}

	prompt, sources := s.formatter.Format(rc)
	if err := out.Send(sse.EventInfo, infoPayload{Sources: sources}); err != nil {
		return s.fail(ctx, log, out, "retrieving", err)
	}

	history := s.loadHistory(ctx, log, req.Conversation)
	messages := buildMessages(prompt, history, req.Message)

	messageID := uuid.New()
	deltas := 0
	answer, err := s.generator.StreamChat(ctx, messages, func(delta string) error {
		if err := out.Send(sse.EventChat, chatPayload{Content: delta, MessageID: messageID.String()}); err != nil {
			return err
		}
		deltas++
		return nil
	})
	if err != nil {
		// Deltas already reached the client, so this is a broken answer,
		// not an unreachable service. Aborts and stalled clients keep
		// their own classification.
		if deltas > 0 && ctx.Err() == nil && !errors.Is(err, sse.ErrSlowClient) {
			err = retrieval.NewError(retrieval.KindGenerationInterrupted, err)
		}
		return s.fail(ctx, log, out, "streaming", err)
	}

	// Ordering contract: the exchange is persisted only after the final
	// delta has been handed to the stream.
	if req.Conversation != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.persist(ctx, req, messageID, answer, sources); err != nil {
			// The answer has already been delivered; losing history is
			// logged, not surfaced.
			log.Error("Failed to persist chat exchange",
				"conversation_id", req.Conversation.ID.String(),
				"error", err.Error(),
			)
		}
	}

	if err := out.Send(sse.EventDone, donePayload{MessageID: messageID.String()}); err != nil {
		return s.fail(ctx, log, out, "persisting", err)
	}

	log.Info("Chat stream complete",
		"message_id", messageID.String(),
		"deltas", deltas,
		"sources", len(sources),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// fail maps a terminal error to its stream outcome. Aborted requests and
// stalled clients close silently; everything else becomes one error event.
func (s *chatService) fail(ctx context.Context, log *logger.Logger, out Emitter, phase string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		log.Info("Chat stream aborted", "phase", phase)
		return err
	}
	if errors.Is(err, sse.ErrSlowClient) {
		log.Warn("Chat stream dropped: client not draining", "phase", phase)
		return retrieval.NewError(retrieval.KindClientSlow, err)
	}

	kind, ok := retrieval.KindOf(err)
	if !ok {
		// Unkinded failures here are upstream generation problems: the
		// retriever and the store already tag theirs.
		kind = retrieval.KindGenerationUnavailable
		err = retrieval.NewError(kind, err)
	}
	log.Error("Chat stream failed",
		"phase", phase,
		"kind", string(kind),
		"error", err.Error(),
	)
	if sendErr := out.Send(sse.EventError, errorPayload{Error: userMessage(kind), Kind: string(kind)}); sendErr != nil {
		log.Warn("Could not deliver error event", "error", sendErr.Error())
	}
	return err
}

// loadHistory replays the conversation's earlier turns into the prompt.
// History is auxiliary context: a failed load degrades to none.
func (s *chatService) loadHistory(ctx context.Context, log *logger.Logger, conv *types.Conversation) []*types.Message {
	if conv == nil {
		return nil
	}
	msgs, err := s.messages.ListByConversation(dbctx.Context{Ctx: ctx}, conv.ID, s.historyLimit)
	if err != nil {
		log.Warn("History load failed; answering without it",
			"conversation_id", conv.ID.String(),
			"error", err.Error(),
		)
		return nil
	}
	return msgs
}

func buildMessages(prompt string, history []*types.Message, question string) []genai.Message {
	out := make([]genai.Message, 0, len(history)+2)
	out = append(out, genai.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		if m.Role != types.RoleUser && m.Role != types.RoleAssistant {
			continue
		}
		out = append(out, genai.Message{Role: m.Role, Content: m.Content})
	}
	out = append(out, genai.Message{
		Role:    "user",
		Content: fmt.Sprintf("CONTEXT:\n%s\n\n---\nQUESTION: %s", prompt, question),
	})
	return out
}

// persist writes both turns and touches the conversation inside one
// transaction; the assistant row reuses the stream's message id.
func (s *chatService) persist(ctx context.Context, req StreamRequest, messageID uuid.UUID, answer string, sources []promptfmt.Source) error {
	var sourcesJSON datatypes.JSON
	if len(sources) > 0 {
		raw, err := json.Marshal(sources)
		if err != nil {
			return fmt.Errorf("marshal sources: %w", err)
		}
		sourcesJSON = datatypes.JSON(raw)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		repoCtx := dbctx.Context{Ctx: ctx, Tx: tx}
		rows := []*types.Message{
			{
				ID:             uuid.New(),
				ConversationID: req.Conversation.ID,
				Role:           types.RoleUser,
				Content:        req.Message,
			},
			{
				ID:             messageID,
				ConversationID: req.Conversation.ID,
				Role:           types.RoleAssistant,
				Content:        answer,
				Sources:        sourcesJSON,
			},
		}
		if _, err := s.messages.Create(repoCtx, rows); err != nil {
			return err
		}
		return s.conversations.Touch(repoCtx, req.Conversation.ID)
	})
}

func userMessage(kind retrieval.Kind) string {
	switch kind {
	case retrieval.KindGenerationInterrupted:
		return "Answer incomplete; please retry."
	case retrieval.KindInvalidRequest:
		return "Invalid request."
	case retrieval.KindNotFound:
		return "Not found."
	default:
		return "Temporary retrieval failure, please retry."
	}
}
