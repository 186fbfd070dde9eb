package app

import (
	"context"
	"testing"

	"github.com/yungbote/marketplace-backend/internal/events"
	"github.com/yungbote/marketplace-backend/internal/pkg/logger"
)

func TestNewWithConfigWiresSQLite(t *testing.T) {
	cfg := defaultConfig()
	cfg.DB.Driver = "sqlite"
	cfg.DB.SQLitePath = ":memory:"
	cfg.Redis.Addr = ""

	a, err := NewWithConfig(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	defer a.Close()

	if a.Server == nil || a.Server.Engine == nil {
		t.Fatalf("server not wired")
	}
	if a.Relay == nil {
		t.Fatalf("relay not wired")
	}
	if _, ok := a.publisher.(*events.LogPublisher); !ok {
		t.Fatalf("publisher: want *events.LogPublisher got %T", a.publisher)
	}
	if a.Metrics != nil {
		t.Fatalf("metrics should stay off by default")
	}
	if _, err := a.Relay.Flush(context.Background()); err != nil {
		t.Fatalf("relay flush on empty outbox: %v", err)
	}
	if len(a.Server.Engine.Routes()) == 0 {
		t.Fatalf("no routes registered")
	}
}
