package domain

import (
	"gorm.io/datatypes"
)

// Node assigns an entity to a community at one hierarchy level. The id is
// the entity id; one row exists per (entity, level).
type Node struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Level        int    `gorm:"primaryKey;not null;default:0" json:"level"`
	CollectionID int    `gorm:"not null;index" json:"collection_id"`

	Community *int `gorm:"column:community;index" json:"community,omitempty"`
	Degree    int  `gorm:"not null;default:0" json:"degree"`
}

func (Node) TableName() string { return "nodes" }

// Relationship is a weighted, described edge between two entity names.
// Endpoints are names, not ids; they are best-effort and may repeat across
// entity types.
type Relationship struct {
	ID           string `gorm:"primaryKey" json:"id"`
	CollectionID int    `gorm:"not null;index" json:"collection_id"`

	Source      string         `gorm:"type:text;not null;index" json:"source"`
	Target      string         `gorm:"type:text;not null;index" json:"target"`
	Description string         `gorm:"type:text;not null;default:''" json:"description"`
	Weight      float64        `gorm:"not null;default:0" json:"weight"`
	TextUnitIDs datatypes.JSON `gorm:"type:jsonb;column:text_unit_ids;not null;default:'[]'" json:"text_unit_ids"`
}

func (Relationship) TableName() string { return "relationships" }
