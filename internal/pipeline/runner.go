// Package pipeline wires fetch, classification and scoring into the
// per-location run and the sequential batch loop.
package pipeline

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/futuricity/livability/internal/classify"
	"github.com/futuricity/livability/internal/fetch"
	"github.com/futuricity/livability/internal/model"
	"github.com/futuricity/livability/internal/score"
	"github.com/futuricity/livability/pkg/overpass"
)

// LocationError records a location whose run failed terminally. Its
// partial results are discarded; the batch continues.
type LocationError struct {
	Index int
	Err   error
}

// BatchResult holds one result per input location, in input order.
// Locations listed in Errors carry the empty placeholder result.
type BatchResult struct {
	Results []model.LocationResult
	Errors  []LocationError
}

// Runner executes the fetch-classify-score pipeline.
type Runner struct {
	orchestrator *fetch.Orchestrator
	classifier   *classify.Classifier
	scorer       *score.Scorer

	queryRadius   int
	nearbyLimit   int
	locationDelay time.Duration
	clock         clockwork.Clock
}

// Options configures a Runner.
type Options struct {
	// QueryRadiusMeters is the around-filter radius of the category
	// queries. Default: 1000.
	QueryRadiusMeters int

	// NearbyLimit caps the nearby-facility name list. Default: 10.
	NearbyLimit int

	// LocationDelay is the politeness pause between batch locations.
	LocationDelay time.Duration

	// Clock drives the inter-location delay; tests inject a fake.
	Clock clockwork.Clock
}

// New creates a Runner.
func New(orchestrator *fetch.Orchestrator, classifier *classify.Classifier, scorer *score.Scorer, opts Options) *Runner {
	if opts.QueryRadiusMeters <= 0 {
		opts.QueryRadiusMeters = 1000
	}
	if opts.NearbyLimit <= 0 {
		opts.NearbyLimit = 10
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Runner{
		orchestrator:  orchestrator,
		classifier:    classifier,
		scorer:        scorer,
		queryRadius:   opts.QueryRadiusMeters,
		nearbyLimit:   opts.NearbyLimit,
		locationDelay: opts.LocationDelay,
		clock:         opts.Clock,
	}
}

// ValidateBatch rejects an empty batch or any out-of-range coordinate
// before any network activity.
func ValidateBatch(locations []model.Location) error {
	if len(locations) == 0 {
		return eris.New("pipeline: empty location batch")
	}
	for i, loc := range locations {
		if err := loc.Validate(); err != nil {
			return eris.Wrapf(err, "pipeline: location %d", i)
		}
	}
	return nil
}

// Run validates the batch, then scores each location sequentially with the
// configured delay between locations. A location that fails terminally is
// reported in Errors with an empty placeholder result while the batch
// continues; context cancellation aborts the whole run.
func (r *Runner) Run(ctx context.Context, locations []model.Location) (*BatchResult, error) {
	if err := ValidateBatch(locations); err != nil {
		return nil, err
	}

	batch := &BatchResult{Results: make([]model.LocationResult, 0, len(locations))}

	for i, loc := range locations {
		if i > 0 && r.locationDelay > 0 {
			timer := r.clock.NewTimer(r.locationDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, eris.Wrap(ctx.Err(), "pipeline: batch canceled")
			case <-timer.Chan():
			}
		}

		result, err := r.RunOne(ctx, loc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			zap.L().Error("location failed",
				zap.Int("index", i),
				zap.Float64("lat", loc.Lat),
				zap.Float64("lng", loc.Lng),
				zap.Error(err),
			)
			batch.Errors = append(batch.Errors, LocationError{Index: i, Err: err})
			batch.Results = append(batch.Results, model.EmptyResult(loc.DisplayLabel(), r.scorer.ClampMin()))
			continue
		}
		batch.Results = append(batch.Results, result)
	}

	return batch, nil
}

// RunOne scores a single already-validated location.
func (r *Runner) RunOne(ctx context.Context, loc model.Location) (model.LocationResult, error) {
	log := zap.L().With(zap.Float64("lat", loc.Lat), zap.Float64("lng", loc.Lng))
	start := time.Now()

	queries := overpass.BuildQueries(loc, r.queryRadius)

	fetched, err := r.orchestrator.FetchAll(ctx, queries)
	if err != nil {
		return model.LocationResult{}, err
	}
	if len(fetched.Failed) == len(queries) {
		return model.LocationResult{}, eris.Wrap(fetched.Failed[0].Err, "pipeline: every category fetch failed")
	}

	// Flatten in query order so dedup order is deterministic.
	var facilities []model.Facility
	for _, q := range queries {
		elements, ok := fetched.Elements[q.Category]
		if !ok {
			continue
		}
		facilities = append(facilities, r.scorer.ProcessElements(loc, q.Category, elements, r.classifier)...)
	}

	facilities = score.Dedupe(facilities)
	scores, counts := r.scorer.Aggregate(facilities)

	nearby := make([]string, 0, r.nearbyLimit)
	for _, f := range facilities {
		if len(nearby) >= r.nearbyLimit {
			break
		}
		nearby = append(nearby, f.Name)
	}

	log.Info("location scored",
		zap.Int("facilities", len(facilities)),
		zap.Int("failed_categories", len(fetched.Failed)),
		zap.Float64("overall", scores.Overall),
		zap.Duration("elapsed", time.Since(start)),
	)

	return model.LocationResult{
		Label:            loc.DisplayLabel(),
		FacilityCounts:   counts,
		Scores:           scores,
		NearbyFacilities: nearby,
		Facilities:       facilities,
	}, nil
}
