package domain

import (
	"encoding/json"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// TextUnit is a token-bounded chunk of a source document. Embedding may be
// null for legacy rows; those are unreachable through vector search but can
// still arrive via entity links.
type TextUnit struct {
	ID           string `gorm:"primaryKey" json:"id"`
	CollectionID int    `gorm:"not null;index" json:"collection_id"`

	DocumentIDs datatypes.JSON `gorm:"type:jsonb;column:document_ids;not null;default:'[]'" json:"document_ids"`
	Text        string         `gorm:"type:text;not null;default:''" json:"text"`
	NTokens     *int           `gorm:"column:n_tokens" json:"n_tokens,omitempty"`
	PageStart   *int           `gorm:"column:page_start" json:"page_start,omitempty"`
	PageEnd     *int           `gorm:"column:page_end" json:"page_end,omitempty"`
	SourceFile  *string        `gorm:"column:source_file" json:"source_file,omitempty"`

	Embedding *pgvector.Vector `gorm:"type:vector" json:"-"`
}

func (TextUnit) TableName() string { return "text_units" }

// DocumentIDList decodes the jsonb document id array. Malformed payloads
// degrade to an empty list rather than failing retrieval.
func (t *TextUnit) DocumentIDList() []string {
	return decodeStringList(t.DocumentIDs)
}

// TokenCount returns n_tokens, estimating len(text)/4 when the indexer left
// the column null.
func (t *TextUnit) TokenCount() int {
	if t.NTokens != nil && *t.NTokens > 0 {
		return *t.NTokens
	}
	return len(t.Text) / 4
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		// Some indexer versions store a bare string instead of a list.
		var single string
		if err := json.Unmarshal(raw, &single); err != nil || single == "" {
			return nil
		}
		return []string{single}
	}
	return out
}

func encodeStringList(ids []string) datatypes.JSON {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}

// StringListJSON is the encoding used for id-list columns across the schema.
func StringListJSON(ids []string) datatypes.JSON { return encodeStringList(ids) }
