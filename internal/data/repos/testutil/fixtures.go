package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	types "github.com/boxabirds/docqa/internal/domain"
)

// Vec builds an EmbedDim-wide vector from the given leading components,
// zero-padding the rest.
func Vec(vals ...float32) pgvector.Vector {
	out := make([]float32, EmbedDim)
	copy(out, vals)
	return pgvector.NewVector(out)
}

func VecPtr(vals ...float32) *pgvector.Vector {
	v := Vec(vals...)
	return &v
}

func SeedCollection(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Collection {
	tb.Helper()
	c := &types.Collection{Name: name}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed collection: %v", err)
	}
	return c
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, collectionID int, id, pdfPath string) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:               id,
		CollectionID:     collectionID,
		Title:            "doc " + id,
		OriginalFilename: id + ".pdf",
		PDFPath:          pdfPath,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedTextUnit(tb testing.TB, ctx context.Context, tx *gorm.DB, collectionID int, id string, emb *pgvector.Vector, docIDs ...string) *types.TextUnit {
	tb.Helper()
	nTokens := 40
	pageStart := 1
	pageEnd := 2
	sourceFile := "source.pdf"
	tu := &types.TextUnit{
		ID:           id,
		CollectionID: collectionID,
		DocumentIDs:  types.StringListJSON(docIDs),
		Text:         fmt.Sprintf("body of %s", id),
		NTokens:      &nTokens,
		PageStart:    &pageStart,
		PageEnd:      &pageEnd,
		SourceFile:   &sourceFile,
		Embedding:    emb,
	}
	if err := tx.WithContext(ctx).Create(tu).Error; err != nil {
		tb.Fatalf("seed text unit: %v", err)
	}
	return tu
}

func SeedEntity(tb testing.TB, ctx context.Context, tx *gorm.DB, collectionID int, id, name string, emb *pgvector.Vector, textUnitIDs ...string) *types.Entity {
	tb.Helper()
	e := &types.Entity{
		ID:           id,
		CollectionID: collectionID,
		Name:         name,
		Type:         "concept",
		Description:  "description of " + name,
		TextUnitIDs:  types.StringListJSON(textUnitIDs),
		Embedding:    emb,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed entity: %v", err)
	}
	return e
}

func SeedNode(tb testing.TB, ctx context.Context, tx *gorm.DB, collectionID int, entityID string, community *int, level int) *types.Node {
	tb.Helper()
	n := &types.Node{
		ID:           entityID,
		Level:        level,
		CollectionID: collectionID,
		Community:    community,
		Degree:       1,
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed node: %v", err)
	}
	return n
}

func SeedRelationship(tb testing.TB, ctx context.Context, tx *gorm.DB, collectionID int, id, source, target string, weight float64) *types.Relationship {
	tb.Helper()
	r := &types.Relationship{
		ID:           id,
		CollectionID: collectionID,
		Source:       source,
		Target:       target,
		Description:  fmt.Sprintf("%s relates to %s", source, target),
		Weight:       weight,
		TextUnitIDs:  types.StringListJSON(nil),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed relationship: %v", err)
	}
	return r
}

func SeedReport(tb testing.TB, ctx context.Context, tx *gorm.DB, collectionID, community, level int, id, title string, rank float64) *types.CommunityReport {
	tb.Helper()
	cr := &types.CommunityReport{
		ID:           id,
		CollectionID: collectionID,
		Community:    community,
		Level:        level,
		Title:        title,
		Summary:      "summary of " + title,
		FullContent:  "full content of " + title,
		Rank:         rank,
	}
	if err := tx.WithContext(ctx).Create(cr).Error; err != nil {
		tb.Fatalf("seed community report: %v", err)
	}
	return cr
}

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, collectionID *int) *types.Conversation {
	tb.Helper()
	c := &types.Conversation{
		ID:           uuid.New(),
		CollectionID: collectionID,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, role, content string) *types.Message {
	tb.Helper()
	m := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	return m
}

func PtrInt(v int) *int { return &v }

func PtrStr(v string) *string { return &v }

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
