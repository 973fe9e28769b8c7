package store

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

type ReportRepo interface {
	// ForCommunities returns up to k reports for the given community ids,
	// best rank first.
	ForCommunities(dbc dbctx.Context, collectionID int, communities []int, k int) ([]types.CommunityReport, error)
	// TopRanked returns the collection's globally highest-ranked reports.
	// Used when retrieved entities carry no community assignment.
	TopRanked(dbc dbctx.Context, collectionID int, k int) ([]types.CommunityReport, error)
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, log *logger.Logger) ReportRepo {
	return &reportRepo{db: db, log: log.With("repo", "ReportRepo")}
}

func (r *reportRepo) ForCommunities(dbc dbctx.Context, collectionID int, communities []int, k int) ([]types.CommunityReport, error) {
	if collectionID <= 0 {
		return nil, fmt.Errorf("missing collection id")
	}
	if len(communities) == 0 {
		return []types.CommunityReport{}, nil
	}
	if k <= 0 || k > 50 {
		k = 3
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	var out []types.CommunityReport
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.CommunityReport{}).
		Where("collection_id = ? AND community IN ?", collectionID, communities).
		Order("rank DESC, community ASC").
		Limit(k).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reportRepo) TopRanked(dbc dbctx.Context, collectionID int, k int) ([]types.CommunityReport, error) {
	if collectionID <= 0 {
		return nil, fmt.Errorf("missing collection id")
	}
	if k <= 0 || k > 50 {
		k = 3
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	var out []types.CommunityReport
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.CommunityReport{}).
		Where("collection_id = ?", collectionID).
		Order("rank DESC, community ASC").
		Limit(k).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
