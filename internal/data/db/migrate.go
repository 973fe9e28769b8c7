package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/boxabirds/docqa/internal/domain"
)

// AutoMigrateAll migrates the read-write tables owned by this service.
// Corpus tables (collections through community_reports) are produced by the
// offline indexer; EnsureCorpusSchema creates compatible empty tables for
// dev and test databases.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Conversation{},
		&types.Message{},
	)
}

// EnsureCorpusSchema creates the indexer-owned tables when they do not
// exist. dim is the embedding dimension for the vector columns.
func EnsureCorpusSchema(db *gorm.DB, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dim)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			title TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			original_filename TEXT NOT NULL DEFAULT '',
			pdf_path TEXT NOT NULL DEFAULT '',
			raw_content TEXT NOT NULL DEFAULT ''
		);`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS text_units (
			id TEXT PRIMARY KEY,
			collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			document_ids JSONB NOT NULL DEFAULT '[]',
			text TEXT NOT NULL DEFAULT '',
			n_tokens INTEGER,
			page_start INTEGER,
			page_end INTEGER,
			source_file TEXT,
			embedding vector(%d)
		);`, dim),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY,
			collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			text_unit_ids JSONB NOT NULL DEFAULT '[]',
			embedding vector(%d)
		);`, dim),
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			community INTEGER,
			degree INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (id, level)
		);`,
		`CREATE TABLE IF NOT EXISTS relationships (
			id TEXT PRIMARY KEY,
			collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			weight DOUBLE PRECISION NOT NULL DEFAULT 0,
			text_unit_ids JSONB NOT NULL DEFAULT '[]'
		);`,
		`CREATE TABLE IF NOT EXISTS communities (
			id TEXT PRIMARY KEY,
			collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			community INTEGER NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS community_reports (
			id TEXT PRIMARY KEY,
			collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			community INTEGER NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			full_content TEXT NOT NULL DEFAULT '',
			rank DOUBLE PRECISION NOT NULL DEFAULT 0,
			UNIQUE (collection_id, community, level)
		);`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure corpus schema: %w", err)
		}
	}
	return nil
}

// EnsureRetrievalIndexes creates the secondary indexes vector search and
// graph traversal depend on. Safe to re-run.
func EnsureRetrievalIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_entities_embedding_hnsw
		ON entities
		USING hnsw (embedding vector_cosine_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_entities_embedding_hnsw: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_text_units_embedding_hnsw
		ON text_units
		USING hnsw (embedding vector_cosine_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_text_units_embedding_hnsw: %w", err)
	}

	// Diagnostics: fuzzy entity-name lookups.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_entities_name_trgm
		ON entities
		USING GIN (name gin_trgm_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_entities_name_trgm: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_relationships_source
		ON relationships (collection_id, source);
	`).Error; err != nil {
		return fmt.Errorf("create idx_relationships_source: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_relationships_target
		ON relationships (collection_id, target);
	`).Error; err != nil {
		return fmt.Errorf("create idx_relationships_target: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_messages_conversation_created
		ON messages (conversation_id, created_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_messages_conversation_created: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll(embedDim int) error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureCorpusSchema(s.db, embedDim); err != nil {
		s.log.Error("Corpus schema migration failed", "error", err)
		return err
	}
	if err := EnsureRetrievalIndexes(s.db); err != nil {
		s.log.Error("Retrieval index migration failed", "error", err)
		return err
	}
	return nil
}
