package main

import (
	"time"

	"github.com/futuricity/livability/internal/classify"
	"github.com/futuricity/livability/internal/config"
	"github.com/futuricity/livability/internal/fetch"
	"github.com/futuricity/livability/internal/pipeline"
	"github.com/futuricity/livability/internal/resilience"
	"github.com/futuricity/livability/internal/rules"
	"github.com/futuricity/livability/internal/score"
	"github.com/futuricity/livability/pkg/overpass"
)

// newRunner builds the scoring pipeline from config: rule tables, Overpass
// client, fetch orchestrator, classifier and scorer. The client is returned
// alongside the runner so callers can report its breaker state.
func newRunner(cfg *config.Config) (*pipeline.Runner, *overpass.HTTPClient, error) {
	tables, err := rules.Load(cfg.Scoring.RulesFile)
	if err != nil {
		return nil, nil, err
	}

	client := overpass.NewHTTPClient(overpass.Options{
		BaseURL:          cfg.Overpass.BaseURL,
		UserAgent:        cfg.Overpass.UserAgent,
		Timeout:          cfg.Overpass.Timeout(),
		RequestDelay:     cfg.Overpass.RequestDelay(),
		BreakerThreshold: cfg.Overpass.BreakerThreshold,
		BreakerCooldown:  cfg.Overpass.BreakerCooldown(),
	})

	policy := resilience.DefaultPolicy()
	if cfg.Overpass.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Overpass.MaxAttempts
	}
	if cfg.Overpass.InitialBackoffMs > 0 {
		policy.InitialDelay = time.Duration(cfg.Overpass.InitialBackoffMs) * time.Millisecond
	}
	if cfg.Overpass.MaxBackoffMs > 0 {
		policy.MaxDelay = time.Duration(cfg.Overpass.MaxBackoffMs) * time.Millisecond
	}
	if cfg.Overpass.BackoffMultiplier > 0 {
		policy.Multiplier = cfg.Overpass.BackoffMultiplier
	}

	orchestrator := fetch.New(client, policy, cfg.Overpass.Concurrency)
	classifier := classify.New(tables)
	scorer := score.NewScorer(tables, float64(cfg.Scoring.MaxRadiusMeters))

	runner := pipeline.New(orchestrator, classifier, scorer, pipeline.Options{
		QueryRadiusMeters: cfg.Scoring.MaxRadiusMeters,
		NearbyLimit:       cfg.Scoring.NearbyLimit,
		LocationDelay:     cfg.Batch.LocationDelay(),
	})
	return runner, client, nil
}
