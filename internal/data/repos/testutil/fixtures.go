package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
)

func SeedClient(tb testing.TB, ctx context.Context, tx *gorm.DB, username, balance string) *types.Client {
	tb.Helper()
	c, err := types.NewClient(mustUsername(tb, username))
	if err != nil {
		tb.Fatalf("new client: %v", err)
	}
	c.Balance = types.MustMoney(balance)
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed client: %v", err)
	}
	if err := tx.WithContext(ctx).Create(c.Cart).Error; err != nil {
		tb.Fatalf("seed cart: %v", err)
	}
	return c
}

func SeedSeller(tb testing.TB, ctx context.Context, tx *gorm.DB, username, balance string) *types.Seller {
	tb.Helper()
	s, err := types.NewSeller(mustUsername(tb, username))
	if err != nil {
		tb.Fatalf("new seller: %v", err)
	}
	s.Balance = types.MustMoney(balance)
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed seller: %v", err)
	}
	return s
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, s *types.Seller, name, price string, stock int) *types.Product {
	tb.Helper()
	pn, err := types.NewProductName(name)
	if err != nil {
		tb.Fatalf("product name: %v", err)
	}
	desc, err := types.NewDescription(name + " description")
	if err != nil {
		tb.Fatalf("description: %v", err)
	}
	p, err := s.CreateProduct(pn, desc, types.MustMoney(price), types.MustQuantity(stock))
	if err != nil {
		tb.Fatalf("create product: %v", err)
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func mustUsername(tb testing.TB, s string) types.Username {
	tb.Helper()
	u, err := types.NewUsername(s)
	if err != nil {
		tb.Fatalf("username: %v", err)
	}
	return u
}
