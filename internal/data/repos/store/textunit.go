package store

import (
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

// TextUnitHit pairs a text unit with its cosine similarity to the query
// vector.
type TextUnitHit struct {
	TextUnit   *types.TextUnit
	Similarity float64
}

type TextUnitRepo interface {
	NearestByEmbedding(dbc dbctx.Context, collectionID int, qv []float32, k int) ([]TextUnitHit, error)
	// GetByIDs loads text units preserving the order of ids; missing ids are
	// dropped silently.
	GetByIDs(dbc dbctx.Context, collectionID int, ids []string) ([]*types.TextUnit, error)
}

type textUnitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTextUnitRepo(db *gorm.DB, log *logger.Logger) TextUnitRepo {
	return &textUnitRepo{db: db, log: log.With("repo", "TextUnitRepo")}
}

func (r *textUnitRepo) NearestByEmbedding(dbc dbctx.Context, collectionID int, qv []float32, k int) ([]TextUnitHit, error) {
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
		SELECT text_units.*,
		       1 - (embedding <=> CAST(? AS vector)) AS similarity
		FROM text_units
		WHERE collection_id = ?
		  AND embedding IS NOT NULL
		ORDER BY embedding <=> CAST(? AS vector)
		LIMIT %d;
	`, k)

	vec := pgvector.NewVector(qv)
	type row struct {
		types.TextUnit
		Similarity float64 `gorm:"column:similarity"`
	}
	var rows []row
	if err := txx.WithContext(dbc.Ctx).Raw(sql, vec, collectionID, vec).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]TextUnitHit, 0, len(rows))
	for i := range rows {
		tu := rows[i].TextUnit
		out = append(out, TextUnitHit{TextUnit: &tu, Similarity: rows[i].Similarity})
	}
	return out, nil
}

func (r *textUnitRepo) GetByIDs(dbc dbctx.Context, collectionID int, ids []string) ([]*types.TextUnit, error) {
	if collectionID <= 0 {
		return nil, fmt.Errorf("missing collection id")
	}
	if len(ids) == 0 {
		return []*types.TextUnit{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	var rows []*types.TextUnit
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.TextUnit{}).
		Where("collection_id = ? AND id IN ?", collectionID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]*types.TextUnit, len(rows))
	for _, tu := range rows {
		byID[tu.ID] = tu
	}
	out := make([]*types.TextUnit, 0, len(rows))
	for _, id := range ids {
		if tu, ok := byID[id]; ok {
			out = append(out, tu)
		}
	}
	return out, nil
}
