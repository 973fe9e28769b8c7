package domain

import (
	"time"
)

// Collection is the root aggregate for one indexed document set. Rows are
// written by the offline indexer; the query service only reads them.
type Collection struct {
	ID   int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:text;not null;uniqueIndex" json:"name"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Collection) TableName() string { return "collections" }
