package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/digital-duende/leadfinder/internal/discovery"
	"github.com/digital-duende/leadfinder/internal/enrich"
	"github.com/digital-duende/leadfinder/internal/pipeline"
	"github.com/digital-duende/leadfinder/internal/ratelimit"
	"github.com/digital-duende/leadfinder/internal/store"
	"github.com/digital-duende/leadfinder/pkg/websearch"
)

// env bundles the wired subsystems commands operate on.
type env struct {
	Store     store.Store
	Pipeline  *pipeline.Pipeline
	Discovery *discovery.Orchestrator
	Limiter   *ratelimit.Limiter
}

// initEnv opens the store, runs migrations, and wires the pipeline stack
// from config.
func initEnv(ctx context.Context) (*env, error) {
	var st store.Store
	var err error
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Quota.MonthlyLimit, nil)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path, cfg.Quota.MonthlyLimit)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	enricher := enrich.New(enrich.Options{
		UserAgent: cfg.Enrich.UserAgent,
		Timeout:   time.Duration(cfg.Enrich.TimeoutSecs) * time.Second,
		MaxBytes:  cfg.Enrich.MaxBytes,
		FetchRate: rate.Limit(cfg.Enrich.FetchesPerSec),
	})

	var searchOpts []websearch.Option
	if cfg.Search.BaseURL != "" {
		searchOpts = append(searchOpts, websearch.WithBaseURL(cfg.Search.BaseURL))
	}
	search := websearch.NewClient(cfg.Search.Key, searchOpts...)

	pipe := pipeline.New(enricher, st)
	disc := discovery.New(search, pipe, st, cfg.Discovery.Parallelism)
	limiter := ratelimit.New(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSecs)*time.Second)

	return &env{
		Store:     st,
		Pipeline:  pipe,
		Discovery: disc,
		Limiter:   limiter,
	}, nil
}

// Close releases the store connection.
func (e *env) Close() {
	_ = e.Store.Close()
}
