package store

import (
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

// EntityHit pairs an entity with its cosine similarity to the query vector.
type EntityHit struct {
	Entity     *types.Entity
	Similarity float64
}

type EntityRepo interface {
	// NearestByEmbedding returns the k entities whose description embeddings
	// are closest to qv under cosine distance. Rows without an embedding are
	// skipped.
	NearestByEmbedding(dbc dbctx.Context, collectionID int, qv []float32, k int) ([]EntityHit, error)
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, log *logger.Logger) EntityRepo {
	return &entityRepo{db: db, log: log.With("repo", "EntityRepo")}
}

func (r *entityRepo) NearestByEmbedding(dbc dbctx.Context, collectionID int, qv []float32, k int) ([]EntityHit, error) {
	if collectionID <= 0 {
		return nil, fmt.Errorf("missing collection id")
	}
	if len(qv) == 0 {
		return nil, fmt.Errorf("missing query vector")
	}
	if k <= 0 || k > 100 {
		k = 10
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	sql := fmt.Sprintf(`
		SELECT entities.*,
		       1 - (embedding <=> CAST(? AS vector)) AS similarity
		FROM entities
		WHERE collection_id = ?
		  AND embedding IS NOT NULL
		ORDER BY embedding <=> CAST(? AS vector)
		LIMIT %d;
	`, k)

	vec := pgvector.NewVector(qv)
	type row struct {
		types.Entity
		Similarity float64 `gorm:"column:similarity"`
	}
	var rows []row
	if err := txx.WithContext(dbc.Ctx).Raw(sql, vec, collectionID, vec).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]EntityHit, 0, len(rows))
	for i := range rows {
		e := rows[i].Entity
		out = append(out, EntityHit{Entity: &e, Similarity: rows[i].Similarity})
	}
	return out, nil
}
