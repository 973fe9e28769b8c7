package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries a request context and an optional transaction into the
// repo layer. Repos fall back to their own *gorm.DB when Tx is nil.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
