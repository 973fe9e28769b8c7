package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`

	Role    string `gorm:"type:text;not null" json:"role"`
	Content string `gorm:"type:text;not null;default:''" json:"content"`

	// Sources holds the citation list attached to assistant messages.
	Sources datatypes.JSON `gorm:"type:jsonb" json:"sources,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }
