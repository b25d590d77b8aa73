package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumastore/storefront/internal/config"
	"github.com/lumastore/storefront/internal/delivery"
	"github.com/lumastore/storefront/internal/fanout"
	"github.com/lumastore/storefront/internal/httpx"
	"github.com/lumastore/storefront/internal/lifecycle"
	"github.com/lumastore/storefront/internal/notify"
	"github.com/lumastore/storefront/internal/pkg/telemetry"
	"github.com/lumastore/storefront/internal/store/sqlite"
)

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.Otel.ServiceName)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	db, err := sqlite.Open(cfg.SQLite.Path)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.SQLite.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var broker fanout.Broker
	if cfg.Redis.Addr != "" {
		rb := fanout.NewRedisBroker(cfg.Redis.Addr)
		defer rb.Close()
		broker = rb
		slog.Info("fan-out using redis", "addr", cfg.Redis.Addr)
	} else {
		broker = fanout.NewMemoryBroker()
		slog.Info("fan-out using in-process broker")
	}

	var transports []notify.Transport
	if cfg.Notify.WhatsAppToken != "" {
		transports = append(transports, notify.NewWhatsAppTransport("", cfg.Notify.WhatsAppToken, cfg.Notify.WhatsAppPhoneID))
	}
	if cfg.Notify.WebhookURL != "" {
		transports = append(transports, notify.NewWebhookTransport(cfg.Notify.WebhookURL))
	}
	dispatcher := notify.NewDispatcher(transports...)

	var geocoder delivery.Geocoder
	if cfg.Geocoder.BaseURL != "" {
		geocoder = delivery.NewHTTPGeocoder(cfg.Geocoder.BaseURL)
	}
	validator := delivery.NewValidator(geocoder)

	engine := lifecycle.NewEngine(db, db, db, validator, dispatcher, broker)
	handler := httpx.NewHandler(engine, db, db, db)
	router := httpx.NewRouter(handler)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}()

	slog.Info("storefront server running", "addr", cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
