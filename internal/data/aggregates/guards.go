package aggregates

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/marketplace-backend/internal/pkg/dbctx"
)

// CASGuard writes aggregate roots under optimistic version checks. Rows are
// also locked FOR UPDATE on load; the version check is what protects sqlite
// and any caller that loaded outside the transaction.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateByVersion applies updates only when id+version match.
func (g CASGuard) UpdateByVersion(dbc dbctx.Context, table string, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, ValidationError("table and id are required for UpdateByVersion")
	}
	if expectedVersion < 0 {
		return false, ValidationError("expectedVersion must be >= 0")
	}
	res := db.Table(table).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SaveVersioned writes updates, bumps version and returns the new version.
// A lost race becomes a conflict error.
func (g CASGuard) SaveVersioned(dbc dbctx.Context, table string, id uuid.UUID, version int, updates map[string]any) (int, error) {
	next := version + 1
	row := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		row[k] = v
	}
	row["version"] = next
	row["updated_at"] = time.Now().UTC()
	ok, err := g.UpdateByVersion(dbc, table, id, version, row)
	if err != nil {
		return version, err
	}
	if err := RequireCASSuccess(ok, fmt.Sprintf("%s %s changed concurrently (version %d)", table, id, version)); err != nil {
		return version, err
	}
	return next, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}
