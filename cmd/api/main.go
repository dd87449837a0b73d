package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/tierpay/api/routes"
	"github.com/angelmondragon/tierpay/internal/catalog"
	"github.com/angelmondragon/tierpay/internal/payments"
	"github.com/angelmondragon/tierpay/internal/sessions"
	stripewebhook "github.com/angelmondragon/tierpay/internal/webhooks/stripe"
	"github.com/angelmondragon/tierpay/pkg/config"
	"github.com/angelmondragon/tierpay/pkg/logger"
	"github.com/angelmondragon/tierpay/pkg/metrics"
	"github.com/angelmondragon/tierpay/pkg/redis"
	"github.com/angelmondragon/tierpay/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	var webhookGuard *stripewebhook.IdempotencyGuard
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		webhookGuard, err = stripewebhook.NewIdempotencyGuard(redisClient, cfg.Redis.WebhookDedupTTL, "stripe-webhook")
		if err != nil {
			logg.Error(context.Background(), "failed to create webhook guard", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, webhook deliveries are not deduplicated")
	}

	catalogService := catalog.NewService()

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Catalog:        catalogService,
		Stripe:         payments.NewStripeClient(stripeClient),
		PublishableKey: cfg.Stripe.PublishableKey,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	sessionsService, err := sessions.NewService(sessions.ServiceParams{
		Stripe:     sessions.NewStripeClient(stripeClient),
		SuccessURL: cfg.Checkout.SuccessURL,
		CancelURL:  cfg.Checkout.CancelURL,
		ListLimit:  cfg.Checkout.SessionListLimit,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sessions service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			RedisClient:    redisClient,
			StripeClient:   stripeClient,
			Catalog:        catalogService,
			Payments:       paymentsService,
			Sessions:       sessionsService,
			WebhookService: webhookService,
			WebhookGuard:   webhookGuard,
			Registry:       registry,
			HTTPMetrics:    metrics.NewHTTPMetrics(registry),
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
