package model

// GroupScores holds the clamped per-group scores and the weighted overall.
type GroupScores struct {
	Overall     float64 `json:"overall"`
	Services    float64 `json:"services"`
	Mobility    float64 `json:"mobility"`
	Safety      float64 `json:"safety"`
	Environment float64 `json:"environment"`
}

// LocationResult is the scoring output for one input location.
type LocationResult struct {
	Label            string         `json:"address"`
	FacilityCounts   map[string]int `json:"facility_counts"`
	Scores           GroupScores    `json:"scores"`
	NearbyFacilities []string       `json:"nearby_facilities"`
	Facilities       []Facility     `json:"facilities"`
}

// EmptyResult returns the placeholder result for a location that produced
// no facilities. Counts are present (zero) for every category so callers
// get a stable shape, and every score sits at the clamp minimum so the
// placeholder stays inside the configured score range.
func EmptyResult(label string, clampMin float64) LocationResult {
	counts := make(map[string]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	return LocationResult{
		Label:          label,
		FacilityCounts: counts,
		Scores: GroupScores{
			Overall:     clampMin,
			Services:    clampMin,
			Mobility:    clampMin,
			Safety:      clampMin,
			Environment: clampMin,
		},
		NearbyFacilities: []string{},
		Facilities:       []Facility{},
	}
}
