package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

// ErrNotFound is returned by lookups for missing rows so callers can map it
// to a 404 without inspecting gorm internals.
var ErrNotFound = errors.New("record not found")

// CollectionSummary is the listing row exposed over the API.
type CollectionSummary struct {
	Collection types.Collection
	FileCount  int64
}

type CollectionRepo interface {
	List(dbc dbctx.Context) ([]*types.Collection, error)
	ListWithFileCounts(dbc dbctx.Context) ([]CollectionSummary, error)
	GetByID(dbc dbctx.Context, id int) (*types.Collection, error)
}

type collectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionRepo(db *gorm.DB, log *logger.Logger) CollectionRepo {
	return &collectionRepo{db: db, log: log.With("repo", "CollectionRepo")}
}

func (r *collectionRepo) List(dbc dbctx.Context) ([]*types.Collection, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Collection
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Collection{}).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *collectionRepo) ListWithFileCounts(dbc dbctx.Context) ([]CollectionSummary, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	type row struct {
		types.Collection
		FileCount int64 `gorm:"column:file_count"`
	}
	var rows []row
	if err := txx.WithContext(dbc.Ctx).Raw(`
		SELECT collections.*,
		       COUNT(documents.id) AS file_count
		FROM collections
		LEFT JOIN documents ON documents.collection_id = collections.id
		GROUP BY collections.id
		ORDER BY collections.id ASC;
	`).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]CollectionSummary, 0, len(rows))
	for i := range rows {
		out = append(out, CollectionSummary{
			Collection: rows[i].Collection,
			FileCount:  rows[i].FileCount,
		})
	}
	return out, nil
}

func (r *collectionRepo) GetByID(dbc dbctx.Context, id int) (*types.Collection, error) {
	if id <= 0 {
		return nil, fmt.Errorf("missing collection id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Collection
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}
