package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries the request context and, inside an aggregate write, the
// open transaction. Repos fall back to their own handle when Tx is nil.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
