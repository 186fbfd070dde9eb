package aggregates

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Conflict(t *testing.T) {
	err := MapError("op", ConflictError("stale"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}

func TestMapError_PassthroughWrappedAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeForbidden, "Client.Pay", "order belongs to another client", nil)
	out := MapError("Marketplace.Order.Pay", fmt.Errorf("pay: %w", in))
	if out != in {
		t.Fatalf("expected the inner aggregate error, got %v", out)
	}
}

func TestMapError_PgCodes(t *testing.T) {
	cases := []struct {
		code string
		want domainagg.ErrorCode
	}{
		{"23505", domainagg.CodeConflict},
		{"23503", domainagg.CodePreconditionFailed},
		{"40001", domainagg.CodeRetryable},
		{"40P01", domainagg.CodeRetryable},
		{"55P03", domainagg.CodeRetryable},
	}
	for _, tc := range cases {
		err := MapError("op", &pgconn.PgError{Code: tc.code})
		if !domainagg.IsCode(err, tc.want) {
			t.Fatalf("pg %s: want=%s got=%s", tc.code, tc.want, domainagg.CodeOf(err))
		}
	}
}

func TestMapError_SQLiteMessages(t *testing.T) {
	if err := MapError("op", errors.New("UNIQUE constraint failed: client.username")); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("unique: got %q", domainagg.CodeOf(err))
	}
	if err := MapError("op", errors.New("database is locked")); !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("locked: got %q", domainagg.CodeOf(err))
	}
	if err := MapError("op", errors.New("disk I/O error")); !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("other: got %q", domainagg.CodeOf(err))
	}
}

func TestNotFoundNamesTheMissingRow(t *testing.T) {
	err := notFound("Marketplace.Order.Pay", "order", "abc")
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("code: got %q", domainagg.CodeOf(err))
	}
	var agg *domainagg.Error
	if !errors.As(err, &agg) || agg.Message != "order abc not found" {
		t.Fatalf("message: got %v", err)
	}
}
