package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/marketplace-backend/internal/app"
	"github.com/yungbote/marketplace-backend/internal/observability"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOtel := observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: a.Cfg.ServiceName,
		Environment: a.Cfg.Environment,
		Version:     a.Cfg.Version,
	})
	a.StartCollectors(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Server.Run(gctx, a.Cfg.HTTPAddr)
	})
	if a.Relay != nil {
		g.Go(func() error {
			return a.Relay.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		a.Log.Error("service stopped with error", "error", err)
	}

	if shutdownOtel != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := shutdownOtel(flushCtx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Log.Info("marketplace stopped")
}
