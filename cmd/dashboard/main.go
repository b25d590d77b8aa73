package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumastore/storefront/internal/dashboard"
	"github.com/lumastore/storefront/internal/fanout"
	"github.com/lumastore/storefront/internal/pkg/telemetry"
)

func main() {
	telemetry.InitLogger()

	var (
		apiURL     = flag.String("api", envOr("STOREFRONT_API_URL", "http://localhost:8080"), "storefront API base URL")
		redisAddr  = flag.String("redis", envOr("REDIS_ADDR", "localhost:6379"), "redis address for the push channel")
		slug       = flag.String("store", "", "store slug to watch (required)")
		merchantID = flag.String("merchant", "", "merchant id for the push channel (required)")
	)
	flag.Parse()

	if *slug == "" || *merchantID == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker := fanout.NewRedisBroker(*redisAddr)
	defer broker.Close()

	client := dashboard.NewClient(
		*merchantID,
		broker,
		dashboard.NewHTTPFetcher(*apiURL, *slug),
		dashboard.NewTerminalAlerter(os.Stdout),
		dashboard.Options{},
	)

	slog.Info("dashboard watching store", "store", *slug)
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("dashboard stopped", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
