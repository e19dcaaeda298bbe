// Package rules holds the data tables driving classification and scoring:
// category detection rules, contribution parameters, group weights and the
// category-to-group mapping. Tables are loaded once at startup and treated
// as immutable by the pipeline.
package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/futuricity/livability/internal/model"
)

// PrefixRule matches a lower-cased name prefix unless the name contains one
// of the excluded substrings. Used to resolve abbreviation collisions, e.g.
// "RS " (rumah sakit) versus school names containing "sekolah".
type PrefixRule struct {
	Prefix  string   `yaml:"prefix"`
	Exclude []string `yaml:"exclude"`
}

// CategoryRule is one entry of the ordered classifier table. A record
// matches when any tag-value test, name keyword test or prefix test holds.
type CategoryRule struct {
	Category string `yaml:"category"`

	// TagValues maps a tag key to the set of accepted values. The special
	// value "*" accepts any non-empty value for that key.
	TagValues map[string][]string `yaml:"tag_values"`

	// Keywords are matched case-insensitively as substrings of the name.
	Keywords []string `yaml:"keywords"`

	// Prefixes are matched against the start of the lower-cased name.
	Prefixes []PrefixRule `yaml:"prefixes"`
}

// Matches reports whether the rule accepts the given tags and lower-cased
// name. Callers must pass the name already lower-cased.
func (r CategoryRule) Matches(tags map[string]string, lowerName string) bool {
	for key, accepted := range r.TagValues {
		v, ok := tags[key]
		if !ok || v == "" {
			continue
		}
		for _, a := range accepted {
			if a == "*" || a == v {
				return true
			}
		}
	}
	for _, kw := range r.Keywords {
		if strings.Contains(lowerName, kw) {
			return true
		}
	}
	for _, p := range r.Prefixes {
		if !strings.HasPrefix(lowerName, p.Prefix) {
			continue
		}
		excluded := false
		for _, ex := range p.Exclude {
			if strings.Contains(lowerName, ex) {
				excluded = true
				break
			}
		}
		if !excluded {
			return true
		}
	}
	return false
}

// ContributionParams controls the distance-decay curve for one category.
type ContributionParams struct {
	MaxContribution float64 `yaml:"max_contribution"`
	DecayExponent   float64 `yaml:"decay_exponent"`
	MinRatio        float64 `yaml:"min_ratio"`
}

// ScoreWeights controls group aggregation.
type ScoreWeights struct {
	GroupWeights        map[string]float64 `yaml:"group_weights"`
	HealthToSafetyRatio float64            `yaml:"health_to_safety_ratio"`
	ClampMin            float64            `yaml:"clamp_min"`
	ClampMax            float64            `yaml:"clamp_max"`
}

// Tables bundles every rule table the pipeline consumes.
type Tables struct {
	// Detection is the classifier table in evaluation order. Order is
	// correctness-relevant: the first matching rule wins, which is how
	// overlaps (a shop that is also a pharmacy) are resolved.
	Detection []CategoryRule `yaml:"detection"`

	// Contribution holds per-category decay parameters; categories absent
	// from the map use Default.
	Contribution map[string]ContributionParams `yaml:"contribution"`
	Default      ContributionParams            `yaml:"default_contribution"`

	Weights ScoreWeights `yaml:"weights"`

	// Mapping assigns categories to score groups. Slices are ordered so
	// aggregation is deterministic.
	Mapping map[string][]string `yaml:"mapping"`

	// NameFields is the tag-key priority list for display-name extraction.
	NameFields []string `yaml:"name_fields"`
}

// Validate checks internal consistency of the tables.
func (t *Tables) Validate() error {
	var errs []string

	if len(t.Detection) == 0 {
		errs = append(errs, "detection table is empty")
	}
	seen := make(map[string]bool)
	for _, r := range t.Detection {
		if r.Category == "" {
			errs = append(errs, "detection rule with empty category")
		}
		if seen[r.Category] {
			errs = append(errs, fmt.Sprintf("duplicate detection rule for %q", r.Category))
		}
		seen[r.Category] = true
	}

	for cat, p := range t.Contribution {
		if p.MaxContribution <= 0 {
			errs = append(errs, fmt.Sprintf("%s: max_contribution must be > 0", cat))
		}
		if p.DecayExponent <= 0 {
			errs = append(errs, fmt.Sprintf("%s: decay_exponent must be > 0", cat))
		}
		if p.MinRatio < 0 || p.MinRatio > 1 {
			errs = append(errs, fmt.Sprintf("%s: min_ratio must be in [0, 1]", cat))
		}
	}
	if t.Default.MaxContribution <= 0 {
		errs = append(errs, "default_contribution: max_contribution must be > 0")
	}

	if t.Weights.ClampMax <= t.Weights.ClampMin {
		errs = append(errs, "weights: clamp_max must be > clamp_min")
	}
	if t.Weights.HealthToSafetyRatio < 0 {
		errs = append(errs, "weights: health_to_safety_ratio must be >= 0")
	}
	var weightSum float64
	for g, w := range t.Weights.GroupWeights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("weights: group %q weight must be >= 0", g))
		}
		weightSum += w
	}
	if weightSum <= 0 {
		errs = append(errs, "weights: group weight sum must be > 0")
	}
	if math.Abs(weightSum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights: group weights should sum to 1, got %.3f", weightSum))
	}

	for group, cats := range t.Mapping {
		for _, c := range cats {
			if !seen[c] {
				errs = append(errs, fmt.Sprintf("mapping: group %q references unknown category %q", group, c))
			}
		}
	}

	if len(t.NameFields) == 0 {
		errs = append(errs, "name_fields is empty")
	}

	if len(errs) > 0 {
		return eris.Errorf("rules: invalid tables: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParamsFor returns the contribution parameters for a category, falling
// back to the default triple for unmapped categories.
func (t *Tables) ParamsFor(category string) ContributionParams {
	if p, ok := t.Contribution[category]; ok {
		return p
	}
	return t.Default
}

// GroupFor returns the group containing the category, or "" if unmapped.
func (t *Tables) GroupFor(category string) string {
	for _, g := range model.Groups {
		for _, c := range t.Mapping[g] {
			if c == category {
				return g
			}
		}
	}
	return ""
}
