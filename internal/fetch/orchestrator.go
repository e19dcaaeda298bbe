// Package fetch runs the category queries for one location against the
// Overpass client under a concurrency cap, with per-query retries.
package fetch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/futuricity/livability/internal/model"
	"github.com/futuricity/livability/internal/resilience"
	"github.com/futuricity/livability/pkg/overpass"
)

// FailedCategory records a category whose fetch failed terminally.
type FailedCategory struct {
	Category string
	Err      error
}

// Result groups the raw elements by category, plus the categories that
// failed after exhausting retries.
type Result struct {
	Elements map[string][]overpass.Element
	Failed   []FailedCategory
}

// Orchestrator fans category queries out over a bounded worker pool.
type Orchestrator struct {
	client      overpass.Client
	policy      resilience.Policy
	concurrency int
}

// New creates an Orchestrator. Concurrency below 1 is clamped to 1.
func New(client overpass.Client, policy resilience.Policy, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{client: client, policy: policy, concurrency: concurrency}
}

// FetchAll runs every query and joins once all categories have settled.
// A category that exhausts its retries is reported in Result.Failed and
// skipped; the remaining categories still contribute. Workers share no
// mutable state beyond the pool's slot counter: each writes its own index.
func (o *Orchestrator) FetchAll(ctx context.Context, queries []model.CategoryQuery) (*Result, error) {
	type outcome struct {
		elements []overpass.Element
		err      error
	}
	outcomes := make([]outcome, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, q := range queries {
		g.Go(func() error {
			policy := o.policy
			policy.OnRetry = resilience.LogRetries(q.Category)

			elements, err := resilience.Do(gctx, policy, func(ctx context.Context) ([]overpass.Element, error) {
				return o.client.Fetch(ctx, q.Category, q.Query)
			})
			outcomes[i] = outcome{elements: elements, err: err}

			// A terminal category failure does not abort the location;
			// cancellation is the only group-level error.
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Elements: make(map[string][]overpass.Element, len(queries))}
	for i, q := range queries {
		if out := outcomes[i]; out.err != nil {
			zap.L().Error("category fetch failed",
				zap.String("category", q.Category),
				zap.Error(out.err),
			)
			result.Failed = append(result.Failed, FailedCategory{Category: q.Category, Err: out.err})
		} else {
			result.Elements[q.Category] = out.elements
		}
	}
	return result, nil
}
