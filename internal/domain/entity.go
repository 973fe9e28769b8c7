package domain

import (
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Entity is a named thing extracted from the corpus. The embedding is of the
// description text, not the name.
type Entity struct {
	ID           string `gorm:"primaryKey" json:"id"`
	CollectionID int    `gorm:"not null;index" json:"collection_id"`

	Name        string         `gorm:"type:text;not null;index" json:"name"`
	Type        string         `gorm:"type:text;not null;default:''" json:"type"`
	Description string         `gorm:"type:text;not null;default:''" json:"description"`
	TextUnitIDs datatypes.JSON `gorm:"type:jsonb;column:text_unit_ids;not null;default:'[]'" json:"text_unit_ids"`

	Embedding *pgvector.Vector `gorm:"type:vector" json:"-"`
}

func (Entity) TableName() string { return "entities" }

func (e *Entity) TextUnitIDList() []string {
	return decodeStringList(e.TextUnitIDs)
}
