package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	types "github.com/boxabirds/docqa/internal/domain"
	"github.com/boxabirds/docqa/internal/pkg/dbctx"
	"github.com/boxabirds/docqa/internal/pkg/logger"
)

type DocumentRepo interface {
	GetByID(dbc dbctx.Context, id string) (*types.Document, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, log *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: log.With("repo", "DocumentRepo")}
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id string) (*types.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("missing document id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Document
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
