package store

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

type GraphRepo interface {
	// RelationshipsForNames returns edges with either endpoint in names,
	// heaviest first. Endpoints are entity names, not ids.
	RelationshipsForNames(dbc dbctx.Context, collectionID int, names []string, limit int) ([]types.Relationship, error)
	// CommunitiesForEntities maps entity ids to their community via the
	// nodes table. Entities without a community assignment are absent from
	// the result. When an entity appears at several levels the deepest
	// level wins.
	CommunitiesForEntities(dbc dbctx.Context, collectionID int, entityIDs []string) (map[string]int, error)
}

type graphRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGraphRepo(db *gorm.DB, log *logger.Logger) GraphRepo {
	return &graphRepo{db: db, log: log.With("repo", "GraphRepo")}
}

func (r *graphRepo) RelationshipsForNames(dbc dbctx.Context, collectionID int, names []string, limit int) ([]types.Relationship, error) {
	if collectionID <= 0 {
		return nil, fmt.Errorf("missing collection id")
	}
	if len(names) == 0 {
		return []types.Relationship{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	var out []types.Relationship
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Relationship{}).
		Where("collection_id = ?", collectionID).
		Where("source IN ? OR target IN ?", names, names).
		Order("weight DESC, id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *graphRepo) CommunitiesForEntities(dbc dbctx.Context, collectionID int, entityIDs []string) (map[string]int, error) {
	if collectionID <= 0 {
		return nil, fmt.Errorf("missing collection id")
	}
	if len(entityIDs) == 0 {
		return map[string]int{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	type row struct {
		ID        string `gorm:"column:id"`
		Community int    `gorm:"column:community"`
	}
	var rows []row
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Node{}).
		Select("id, community").
		Where("collection_id = ? AND id IN ? AND community IS NOT NULL", collectionID, entityIDs).
		Order("level ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int, len(rows))
	for _, n := range rows {
		out[n.ID] = n.Community
	}
	return out, nil
}
