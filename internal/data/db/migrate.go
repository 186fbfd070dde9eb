package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/marketplace-backend/internal/domain/marketplace"
)

// Models lists every table the service owns, in creation order.
func Models() []interface{} {
	return []interface{}{
		// =========================
		// Accounts
		// =========================
		&types.Client{},
		&types.Seller{},

		// =========================
		// Catalog
		// =========================
		&types.Product{},

		// =========================
		// Cart
		// =========================
		&types.Cart{},
		&types.CartLine{},

		// =========================
		// Orders + returns
		// =========================
		&types.Order{},
		&types.OrderLine{},
		&types.ReturnRequest{},
		&types.ReturnState{},

		// =========================
		// Outbox
		// =========================
		&types.OrderEvent{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// EnsureMarketplaceIndexes adds the partial indexes AutoMigrate cannot express.
func EnsureMarketplaceIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_product_seller_available
		ON product (seller_id, created_at)
		WHERE deleted_at IS NULL AND listing_status = 'listed' AND stock > 0;
	`).Error; err != nil {
		return fmt.Errorf("create idx_product_seller_available: %w", err)
	}

	// Relay scan: only rows still waiting to go out.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_order_event_pending
		ON order_event (created_at, id)
		WHERE status = 'pending';
	`).Error; err != nil {
		return fmt.Errorf("create idx_order_event_pending: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_market_order_client_date
		ON market_order (client_id, order_date);
	`).Error; err != nil {
		return fmt.Errorf("create idx_market_order_client_date: %w", err)
	}
	return nil
}
