package main

import (
	"context"
	"fmt"

	"github.com/ordermesh/courier/internal/config"
	"github.com/ordermesh/courier/internal/orchestrator"
	"github.com/ordermesh/courier/internal/store"
	"github.com/ordermesh/courier/internal/telemetry"
	"github.com/ordermesh/courier/pkg/courier"
	"github.com/ordermesh/courier/pkg/courier/auth"
	"github.com/ordermesh/courier/pkg/courier/nimbuspost"
	"github.com/ordermesh/courier/pkg/courier/shiprocket"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

// dependencies bundles everything runServe needs.
type dependencies struct {
	Registry     *courier.Registry
	Rates        *courier.RateAggregator
	Orchestrator *orchestrator.Orchestrator
	Metrics      *telemetry.Metrics

	pgStore *store.PostgresStore
}

// Close releases held resources.
func (d *dependencies) Close() {
	if d.pgStore != nil {
		d.pgStore.Close()
	}
}

func initDependencies(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) (*dependencies, error) {
	metrics := telemetry.NewMetrics()

	tokens := initTokenCache(cfg, metrics)
	registry := initProviderRegistry(cfg, tokens, logger, tracer)
	if registry.Count() == 0 {
		return nil, fmt.Errorf("no courier providers enabled")
	}
	if _, err := registry.Get(cfg.DefaultProvider); err != nil {
		return nil, fmt.Errorf("default provider: %w", err)
	}

	deps := &dependencies{
		Registry: registry,
		Metrics:  metrics,
		Rates: courier.NewRateAggregator(registry,
			courier.WithPerProviderTimeout(cfg.RateProviderTimeout),
			courier.WithAggregateTimeout(cfg.RateAggregateTimeout),
		),
	}

	var orderStore store.OrderStore
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("order store: %w", err)
		}
		deps.pgStore = pg
		orderStore = pg
	} else {
		orderStore = store.NewMemoryStore()
	}

	deps.Orchestrator = orchestrator.New(registry, orderStore, cfg.DefaultProvider, logger, metrics)
	return deps, nil
}

func initTokenCache(cfg *config.Config, metrics *telemetry.Metrics) *auth.Cache {
	opts := []auth.CacheOption{
		auth.WithObserver(func(provider string, err error) {
			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordTokenRefresh(provider, status)
		}),
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		opts = append(opts, auth.WithStore(auth.NewRedisStore(client)))
	}
	return auth.NewCache(opts...)
}

func initProviderRegistry(cfg *config.Config, tokens *auth.Cache, logger *otelzap.Logger, tracer trace.Tracer) *courier.Registry {
	registry := courier.NewRegistry()

	if cfg.ShiprocketEnabled {
		sr := shiprocket.New(shiprocket.Config{
			Email:    cfg.ShiprocketEmail,
			Password: cfg.ShiprocketPassword,
			BaseURL:  cfg.ShiprocketBaseURL,
			Timeout:  cfg.ShiprocketTimeout,
			UseMock:  cfg.ShiprocketUseMock,
		}, tokens, logger, tracer)
		registry.Register(sr)
	}

	if cfg.NimbusPostEnabled {
		np := nimbuspost.New(nimbuspost.Config{
			Email:    cfg.NimbusPostEmail,
			Password: cfg.NimbusPostPassword,
			BaseURL:  cfg.NimbusPostBaseURL,
			Timeout:  cfg.NimbusPostTimeout,
			UseMock:  cfg.NimbusPostUseMock,
		}, tokens, logger, tracer)
		registry.Register(np)
	}

	return registry
}
