// Package provider supplies work-in-process data for bin codes.
//
// Two sources implement Provider: MockProvider generates synthetic cassettes
// for demos and tests, and LiveProvider reads the manufacturing database.
// CachedProvider wraps either one with a Redis-backed response cache.
package provider

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/floor-layout/backend/internal/config"
	"github.com/floor-layout/backend/internal/models"
)

// Provider modes reported by Mode.
const (
	ModeMock = "mock"
	ModeLive = "live"
)

// Provider resolves WIP data keyed by bin code. Every requested code is
// present in the result, empty when the source has nothing for it.
type Provider interface {
	WipByBins(ctx context.Context, codes []string) (map[string][]models.Cassette, error)
	CountsByBins(ctx context.Context, codes []string) (map[string]int, error)
	Mode() string
}

// Observer is notified after each provider call.
type Observer func(mode, op string, elapsed time.Duration, err error)

// uniqueCodes drops duplicates while keeping first-seen order.
func uniqueCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// New builds the provider selected by cfg. The returned close func releases
// any connections the provider holds.
func New(cfg *config.AppConfig, logger *log.Logger) (Provider, func() error, error) {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("provider")

	var (
		p       Provider
		closers []func() error
	)

	if cfg.Data.UseMock {
		seed := cfg.Data.MockSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		p = NewMockProvider(rand.New(rand.NewSource(seed)), cfg.Data.EmptyRate)
		logger.Info("using mock data provider", "seed", seed, "emptyRate", cfg.Data.EmptyRate)
	} else {
		live := cfg.Data.Live
		driver, err := sqlDriverName(live.Driver)
		if err != nil {
			return nil, nil, err
		}
		db, err := sql.Open(driver, live.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open live source: %w", err)
		}
		opts := LiveOptionsFromConfig(live)
		opts.Driver = driver
		lp, err := NewLiveProvider(db, opts, logger)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		p = lp
		logger.Info("using live data provider", "driver", driver, "linkedServer", live.LinkedServer)
	}

	if cfg.Cache.RedisAddr != "" {
		rc := NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		closers = append(closers, rc.Close)
		p = NewCachedProvider(p, rc, cfg.CacheTTL(), logger)
		logger.Info("provider cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.CacheTTL())
	}

	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	return p, closeAll, nil
}

// Observed wraps p so that obs sees the outcome and latency of every call.
func Observed(p Provider, obs Observer) Provider {
	if obs == nil {
		return p
	}
	return &observedProvider{inner: p, obs: obs}
}

type observedProvider struct {
	inner Provider
	obs   Observer
}

func (o *observedProvider) WipByBins(ctx context.Context, codes []string) (map[string][]models.Cassette, error) {
	start := time.Now()
	res, err := o.inner.WipByBins(ctx, codes)
	o.obs(o.inner.Mode(), "wip", time.Since(start), err)
	return res, err
}

func (o *observedProvider) CountsByBins(ctx context.Context, codes []string) (map[string]int, error) {
	start := time.Now()
	res, err := o.inner.CountsByBins(ctx, codes)
	o.obs(o.inner.Mode(), "counts", time.Since(start), err)
	return res, err
}

func (o *observedProvider) Mode() string { return o.inner.Mode() }
