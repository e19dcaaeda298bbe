package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futuricity/livability/internal/classify"
	"github.com/futuricity/livability/internal/fetch"
	"github.com/futuricity/livability/internal/model"
	"github.com/futuricity/livability/internal/resilience"
	"github.com/futuricity/livability/internal/rules"
	"github.com/futuricity/livability/internal/score"
	"github.com/futuricity/livability/pkg/overpass"
)

type fakeClient func(ctx context.Context, category, query string) ([]overpass.Element, error)

func (f fakeClient) Fetch(ctx context.Context, category, query string) ([]overpass.Element, error) {
	return f(ctx, category, query)
}

func ptr(v float64) *float64 { return &v }

func newTestRunner(client fakeClient, opts Options) *Runner {
	tables := rules.DefaultTables()
	orch := fetch.New(client, resilience.Policy{MaxAttempts: 1}, 2)
	return New(orch, classify.New(tables), score.NewScorer(tables, 1000), opts)
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name      string
		locations []model.Location
		wantErr   bool
	}{
		{"empty batch", nil, true},
		{"latitude out of range", []model.Location{{Lat: 91, Lng: 0}}, true},
		{"longitude out of range", []model.Location{{Lat: 0, Lng: -181}}, true},
		{"second location invalid", []model.Location{{Lat: -6.2, Lng: 106.8}, {Lat: 0, Lng: 999}}, true},
		{"valid", []model.Location{{Lat: -6.2, Lng: 106.8}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatch(tt.locations)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunOneNoFacilities(t *testing.T) {
	r := newTestRunner(func(ctx context.Context, category, query string) ([]overpass.Element, error) {
		return nil, nil
	}, Options{})

	result, err := r.RunOne(context.Background(), model.Location{Label: "Menteng", Lat: -6.2, Lng: 106.8})
	require.NoError(t, err)

	assert.Equal(t, "Menteng", result.Label)
	assert.Equal(t, model.GroupScores{}, result.Scores)
	assert.Empty(t, result.Facilities)
	assert.Empty(t, result.NearbyFacilities)
	for _, cat := range model.Categories {
		assert.Equal(t, 0, result.FacilityCounts[cat])
	}
}

func TestRunOneCollapsesCrossCategoryDuplicates(t *testing.T) {
	hospital := overpass.Element{
		ID:   1,
		Type: "node",
		Lat:  ptr(-6.2),
		Lon:  ptr(106.8),
		Tags: map[string]string{"amenity": "hospital", "name": "RSUD Menteng"},
	}

	// The same hospital node answers both the health and the safety query.
	r := newTestRunner(func(ctx context.Context, category, query string) ([]overpass.Element, error) {
		switch category {
		case model.CategoryHealth, model.CategorySafety:
			return []overpass.Element{hospital}, nil
		default:
			return nil, nil
		}
	}, Options{})

	result, err := r.RunOne(context.Background(), model.Location{Lat: -6.2, Lng: 106.8})
	require.NoError(t, err)

	require.Len(t, result.Facilities, 1)
	assert.Equal(t, "health-1", result.Facilities[0].ID)
	assert.Equal(t, 1, result.FacilityCounts[model.CategoryHealth])
	assert.Equal(t, 0, result.FacilityCounts[model.CategorySafety])
}

func TestRunOneNearbyLimit(t *testing.T) {
	var shops []overpass.Element
	for i := int64(1); i <= 5; i++ {
		shops = append(shops, overpass.Element{
			ID:   i,
			Type: "node",
			Lat:  ptr(-6.2),
			Lon:  ptr(106.8),
			Tags: map[string]string{"shop": "convenience", "name": "Toko " + strings.Repeat("A", int(i))},
		})
	}

	r := newTestRunner(func(ctx context.Context, category, query string) ([]overpass.Element, error) {
		if category == model.CategoryMarket {
			return shops, nil
		}
		return nil, nil
	}, Options{NearbyLimit: 2})

	result, err := r.RunOne(context.Background(), model.Location{Lat: -6.2, Lng: 106.8})
	require.NoError(t, err)

	assert.Len(t, result.Facilities, 5)
	assert.Len(t, result.NearbyFacilities, 2)
	assert.Equal(t, "Toko A", result.NearbyFacilities[0])
}

func TestRunOnePartialCategoryFailure(t *testing.T) {
	r := newTestRunner(func(ctx context.Context, category, query string) ([]overpass.Element, error) {
		if category == model.CategoryTransport {
			return nil, eris.New("gateway exploded")
		}
		if category == model.CategoryHealth {
			return []overpass.Element{{
				ID: 9, Type: "node", Lat: ptr(-6.2), Lon: ptr(106.8),
				Tags: map[string]string{"amenity": "hospital", "name": "RS Medika"},
			}}, nil
		}
		return nil, nil
	}, Options{})

	result, err := r.RunOne(context.Background(), model.Location{Lat: -6.2, Lng: 106.8})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FacilityCounts[model.CategoryHealth])
}

func TestRunOneAllCategoriesFail(t *testing.T) {
	r := newTestRunner(func(ctx context.Context, category, query string) ([]overpass.Element, error) {
		return nil, eris.New("service down")
	}, Options{})

	_, err := r.RunOne(context.Background(), model.Location{Lat: -6.2, Lng: 106.8})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every category fetch failed")
}

func TestRunContinuesPastFailedLocation(t *testing.T) {
	// The fetch query embeds the coordinates, so the fake can fail just
	// the first location.
	r := newTestRunner(func(ctx context.Context, category, query string) ([]overpass.Element, error) {
		if strings.Contains(query, "-6.9") {
			return nil, eris.New("service down")
		}
		return nil, nil
	}, Options{})

	batch, err := r.Run(context.Background(), []model.Location{
		{Label: "Bandung", Lat: -6.9, Lng: 107.6},
		{Label: "Jakarta", Lat: -6.2, Lng: 106.8},
	})
	require.NoError(t, err)

	require.Len(t, batch.Results, 2)
	require.Len(t, batch.Errors, 1)
	assert.Equal(t, 0, batch.Errors[0].Index)
	assert.Equal(t, "Bandung", batch.Results[0].Label)
	assert.Empty(t, batch.Results[0].NearbyFacilities)
	assert.Equal(t, "Jakarta", batch.Results[1].Label)
}

func TestRunPlaceholderScoresAtClampMin(t *testing.T) {
	tables := rules.DefaultTables()
	tables.Weights.ClampMin = 5

	client := fakeClient(func(ctx context.Context, category, query string) ([]overpass.Element, error) {
		return nil, eris.New("service down")
	})
	orch := fetch.New(client, resilience.Policy{MaxAttempts: 1}, 2)
	r := New(orch, classify.New(tables), score.NewScorer(tables, 1000), Options{})

	batch, err := r.Run(context.Background(), []model.Location{{Lat: -6.2, Lng: 106.8}})
	require.NoError(t, err)
	require.Len(t, batch.Errors, 1)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, 5.0, batch.Results[0].Scores.Overall)
	assert.Equal(t, 5.0, batch.Results[0].Scores.Safety)
}

func TestRunRejectsInvalidBatch(t *testing.T) {
	called := false
	r := newTestRunner(func(ctx context.Context, category, query string) ([]overpass.Element, error) {
		called = true
		return nil, nil
	}, Options{})

	_, err := r.Run(context.Background(), nil)
	assert.Error(t, err)

	_, err = r.Run(context.Background(), []model.Location{{Lat: 200, Lng: 0}})
	assert.Error(t, err)
	assert.False(t, called, "invalid batches must not reach the network")
}

func TestRunWaitsBetweenLocations(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newTestRunner(func(ctx context.Context, category, query string) ([]overpass.Element, error) {
		return nil, nil
	}, Options{LocationDelay: time.Second, Clock: clock})

	type outcome struct {
		batch *BatchResult
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		batch, err := r.Run(context.Background(), []model.Location{
			{Lat: -6.2, Lng: 106.8},
			{Lat: -6.3, Lng: 106.9},
		})
		done <- outcome{batch, err}
	}()

	// The loop parks on the delay timer before the second location.
	clock.BlockUntil(1)
	select {
	case <-done:
		t.Fatal("second location ran before the delay elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(time.Second)
	out := <-done
	require.NoError(t, out.err)
	assert.Len(t, out.batch.Results, 2)
}

func TestRunCanceledDuringDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newTestRunner(func(ctx context.Context, category, query string) ([]overpass.Element, error) {
		return nil, nil
	}, Options{LocationDelay: time.Minute, Clock: clock})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx, []model.Location{
			{Lat: -6.2, Lng: 106.8},
			{Lat: -6.3, Lng: 106.9},
		})
		done <- err
	}()

	clock.BlockUntil(1)
	cancel()

	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch canceled")
}
