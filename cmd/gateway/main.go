package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/langdock/gateway-core/internal/accounting"
	"github.com/langdock/gateway-core/internal/config"
	"github.com/langdock/gateway-core/internal/fallback"
	"github.com/langdock/gateway-core/internal/gateway"
	"github.com/langdock/gateway-core/internal/orchestrator"
	"github.com/langdock/gateway-core/internal/pricing"
	"github.com/langdock/gateway-core/internal/provider/httpadapter"
	"github.com/langdock/gateway-core/internal/resilience"
	"github.com/langdock/gateway-core/internal/routing"
	"github.com/langdock/gateway-core/internal/storage"
	"github.com/langdock/gateway-core/internal/streaming"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	configPath := flag.String("config", "", "path to config.yaml (optional; env vars always apply)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("gateway: failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("gateway: failed to open storage")
	}
	defer db.Close()

	pricingStore := pricing.NewSQLiteLookup(db)
	if err := pricing.LoadSeed(ctx, cfg.PricingSeedPath, pricingStore); err != nil {
		log.WithError(err).Warn("gateway: pricing seed load had errors, continuing with whatever loaded")
	}
	pricingLookup := pricing.NewCachedLookup(pricingStore, 5*time.Minute)

	logSink := accounting.NewSQLiteSink(db)
	traceSink := accounting.NewSQLiteTraceSink(db)
	accountant := accounting.New(pricingLookup, logSink, traceSink)

	breakers := resilience.NewRegistry(resilience.BreakerConfig{
		FailureThreshold: cfg.CircuitBreakerFailureThreshold,
		Cooldown:         cfg.CircuitBreakerCooldown(),
	})
	resiliencePolicy := resilience.New(resilience.RetryConfig{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  500 * time.Millisecond,
		MaxJitter:  250 * time.Millisecond,
	}, breakers)

	chain, err := fallback.New(cfg.LargeContextModel, cfg.BalancedModel, cfg.DefaultModel)
	if err != nil {
		log.WithError(err).Fatal("gateway: invalid fallback chain configuration")
	}

	router := routing.New(routing.Config{
		DefaultModel:      cfg.DefaultModel,
		LargeContextModel: cfg.LargeContextModel,
		BalancedModel:     cfg.BalancedModel,
	})

	adapter := httpadapter.New(httpadapter.Config{
		BaseURL:                   cfg.BaseURL,
		APIKey:                    cfg.APIKey,
		TimeoutSeconds:            cfg.TimeoutSeconds,
		MaxConnectionsPerServer:   cfg.MaxConnectionsPerServer,
		ConnectionLifetimeMinutes: cfg.ConnectionLifetimeMinutes,
		UseHTTP2:                  cfg.UseHTTP2,
	})

	loop := orchestrator.New(adapter, resiliencePolicy, chain, accountant, orchestrator.MaxAttempts)
	assembler := streaming.New(router, adapter, resiliencePolicy, chain, accountant, orchestrator.MaxAttempts)

	handler := gateway.NewHandler(router, loop, assembler, accountant, breakers)

	engine := gin.New()
	engine.Use(gin.Recovery(), gateway.CorrelationIDMiddleware(), gateway.LoggingMiddleware())

	engine.POST("/v1/chat/completions", handler.ChatCompletion)
	engine.POST("/v1/chat/completions/stream", handler.ChatCompletionStream)
	engine.GET("/healthz", handler.Health)
	engine.GET("/readyz", handler.Ready)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: engine,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.ListenAddr).Info("gateway: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("gateway: shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("gateway: server exited with error")
	}
}
