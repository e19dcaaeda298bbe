package model

import "fmt"

// Canonical facility categories. The order here is informational; the
// classifier's rule order in internal/rules decides precedence.
const (
	CategoryHealth        = "health"
	CategoryEducation     = "education"
	CategoryMarket        = "market"
	CategoryTransport     = "transport"
	CategoryWalkability   = "walkability"
	CategoryRecreation    = "recreation"
	CategorySafety        = "safety"
	CategoryPolice        = "police"
	CategoryReligious     = "religious"
	CategoryAccessibility = "accessibility"
)

// Categories lists every canonical category.
var Categories = []string{
	CategoryHealth,
	CategoryEducation,
	CategoryMarket,
	CategoryTransport,
	CategoryWalkability,
	CategoryRecreation,
	CategorySafety,
	CategoryPolice,
	CategoryReligious,
	CategoryAccessibility,
}

// Score groups.
const (
	GroupServices    = "services"
	GroupMobility    = "mobility"
	GroupSafety      = "safety"
	GroupEnvironment = "environment"
)

// Groups lists every score group.
var Groups = []string{GroupServices, GroupMobility, GroupSafety, GroupEnvironment}

// Facility is a classified point of interest with its distance-decayed
// score contribution. Immutable once created.
type Facility struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Lat          float64           `json:"lat"`
	Lng          float64           `json:"lng"`
	Distance     float64           `json:"distance"`
	Contribution float64           `json:"contribution"`
	Tags         map[string]string `json:"tags,omitempty"`
}

// FacilityID builds the composite identity used for deduplication: the same
// raw element classified into different categories stays distinguishable,
// but is unique per category assignment.
func FacilityID(category string, elementID int64) string {
	return fmt.Sprintf("%s-%d", category, elementID)
}
