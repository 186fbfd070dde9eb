package marketplace

import (
	"errors"

	"github.com/yungbote/marketplace-backend/internal/domain/aggregates"
)

// Sentinels wrapped by every error this package returns, for errors.Is checks.
var (
	ErrInvalidMoney    = errors.New("invalid money")
	ErrNegativeMoney   = errors.New("money would become negative")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrEmptyText       = errors.New("empty text")
	ErrMissingID       = errors.New("missing id")
	ErrNonPositive     = errors.New("amount must be positive")

	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotOwner          = errors.New("ownership mismatch")
	ErrAlreadyOwned      = errors.New("product already belongs to another seller")
	ErrDuplicateProduct  = errors.New("product already owned")
	ErrProductNotListed  = errors.New("product not listed")
	ErrProductHasStock   = errors.New("product still has stock")
	ErrProductMissing    = errors.New("product not loaded")
	ErrSellerMissing     = errors.New("seller not loaded")
	ErrNotInCart         = errors.New("product not in cart")
	ErrEmptySelection    = errors.New("no selected cart lines")
	ErrNotInOrder        = errors.New("product not in order")
	ErrAmbiguousReturn   = errors.New("return target is ambiguous")
	ErrReturnExceeded    = errors.New("return quantity exceeds ordered quantity")
	ErrReturnInProgress  = errors.New("return already in progress")
	ErrNothingToRefund   = errors.New("no return items found")

	ErrIllegalTransition = errors.New("illegal status transition")
	ErrForeignOrder      = errors.New("order does not belong to caller")
)

func invalid(op string, sentinel error, msg string) error {
	return aggregates.NewError(aggregates.CodeValidation, op, msg, sentinel)
}

func violation(op string, sentinel error, msg string) error {
	return aggregates.NewError(aggregates.CodeInvariantViolation, op, msg, sentinel)
}

func illegal(op string, msg string) error {
	return aggregates.NewError(aggregates.CodePreconditionFailed, op, msg, ErrIllegalTransition)
}

func forbidden(op string, sentinel error, msg string) error {
	return aggregates.NewError(aggregates.CodeForbidden, op, msg, sentinel)
}
