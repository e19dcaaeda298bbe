package score

import (
	"math"

	"github.com/futuricity/livability/internal/classify"
	"github.com/futuricity/livability/internal/model"
	"github.com/futuricity/livability/internal/rules"
	"github.com/futuricity/livability/pkg/overpass"
)

// Scorer applies the contribution model and aggregation weights.
type Scorer struct {
	tables    *rules.Tables
	maxRadius float64
}

// NewScorer creates a Scorer. maxRadiusMeters below or equal to zero
// defaults to 1000.
func NewScorer(tables *rules.Tables, maxRadiusMeters float64) *Scorer {
	if maxRadiusMeters <= 0 {
		maxRadiusMeters = 1000
	}
	return &Scorer{tables: tables, maxRadius: maxRadiusMeters}
}

// Contribution computes the distance-decayed contribution for a facility
// of the given category. Beyond the maximum radius it is 0; inside, the
// decay value is floored at minRatio of the category maximum, so the
// result is non-increasing in distance and flat once it hits the floor.
func (s *Scorer) Contribution(distance float64, category string) float64 {
	if distance > s.maxRadius {
		return 0
	}

	p := s.tables.ParamsFor(category)
	normalized := distance / s.maxRadius
	c := p.MaxContribution * math.Pow(1-normalized, p.DecayExponent)

	floor := p.MinRatio * p.MaxContribution
	if c < floor {
		return floor
	}
	return c
}

// ProcessElements normalizes, classifies and scores one category query's
// raw elements. Records without a position, without a matching category,
// or with zero contribution are dropped. The transform is pure per record;
// output order follows input order.
func (s *Scorer) ProcessElements(loc model.Location, queryCategory string, elements []overpass.Element, classifier *classify.Classifier) []model.Facility {
	facilities := make([]model.Facility, 0, len(elements))

	for _, el := range elements {
		lat, lng, ok := el.Position()
		if !ok {
			continue
		}

		name := classifier.ResolveName(el.Tags, queryCategory)
		category, ok := classifier.Detect(el.Tags, name)
		if !ok {
			continue
		}

		distance := Distance(loc.Lat, loc.Lng, lat, lng)
		contribution := s.Contribution(distance, category)
		if contribution <= 0 {
			continue
		}

		facilities = append(facilities, model.Facility{
			ID:           model.FacilityID(category, el.ID),
			Name:         name,
			Category:     category,
			Lat:          lat,
			Lng:          lng,
			Distance:     distance,
			Contribution: contribution,
			Tags:         el.Tags,
		})
	}

	return facilities
}

// Dedupe collapses facilities to the first occurrence of each ID,
// preserving discovery order. Overlapping category queries surface the
// same element more than once; after classification those copies share an
// ID and only the first survives.
func Dedupe(facilities []model.Facility) []model.Facility {
	seen := make(map[string]bool, len(facilities))
	out := make([]model.Facility, 0, len(facilities))
	for _, f := range facilities {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out
}

// Aggregate reduces a deduplicated facility list into clamped group scores,
// the weighted overall score and per-category counts. It never fails: zero
// facilities produce the fully-clamped all-zero result.
func (s *Scorer) Aggregate(facilities []model.Facility) (model.GroupScores, map[string]int) {
	counts := make(map[string]int, len(model.Categories))
	for _, c := range model.Categories {
		counts[c] = 0
	}

	totals := make(map[string]float64)
	for _, f := range facilities {
		counts[f.Category]++
		totals[f.Category] += f.Contribution
	}

	w := s.tables.Weights

	groupTotals := make(map[string]float64, len(model.Groups))
	for _, group := range model.Groups {
		var sum float64
		for _, cat := range s.tables.Mapping[group] {
			sum += totals[cat]
		}
		groupTotals[group] = sum
	}
	// Hospitals and clinics make a neighborhood safer as well as better
	// served, so a fraction of the health total feeds the safety group.
	groupTotals[model.GroupSafety] += totals[model.CategoryHealth] * w.HealthToSafetyRatio

	clamped := make(map[string]float64, len(model.Groups))
	var overall float64
	for _, group := range model.Groups {
		clamped[group] = clamp(groupTotals[group], w.ClampMin, w.ClampMax)
		overall += w.GroupWeights[group] * clamped[group]
	}
	overall = clamp(overall, w.ClampMin, w.ClampMax)

	return model.GroupScores{
		Overall:     overall,
		Services:    clamped[model.GroupServices],
		Mobility:    clamped[model.GroupMobility],
		Safety:      clamped[model.GroupSafety],
		Environment: clamped[model.GroupEnvironment],
	}, counts
}

// ClampMin returns the lower score bound; placeholder results use it so
// failed locations report scores inside the configured range.
func (s *Scorer) ClampMin() float64 {
	return s.tables.Weights.ClampMin
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
