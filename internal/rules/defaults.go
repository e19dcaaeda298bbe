package rules

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rotisserie/eris"

	"github.com/futuricity/livability/internal/model"
)

// DefaultTables returns the production rule tables. The keyword lists carry
// both OSM tag vocabulary and Indonesian facility names because the source
// data is densest in Indonesian cities.
func DefaultTables() *Tables {
	return &Tables{
		Detection: []CategoryRule{
			{
				Category: model.CategoryEducation,
				TagValues: map[string][]string{
					"amenity": {"school", "university", "college", "kindergarten", "library"},
				},
				Keywords: []string{
					"sekolah", "sma", "smp", "sd ", "smk", "universitas", "univ",
					"kampus", "tk", "paud", "perpustakaan", "library",
				},
			},
			{
				Category: model.CategoryPolice,
				TagValues: map[string][]string{
					"amenity": {"police"},
				},
				Keywords: []string{
					"polisi", "polres", "polsek", "polda", "satlantas", "satpol", "police",
				},
			},
			{
				Category: model.CategoryMarket,
				TagValues: map[string][]string{
					"shop": {"*"},
					"amenity": {
						"restaurant", "cafe", "fast_food", "food_court", "bar", "pub",
						"ice_cream", "coffee_shop",
						"fuel", "gas_station", "petrol_station", "service_station",
					},
				},
				Keywords: []string{
					"spbu", "pom bensin", "gas station", "pertamina", "shell",
					"warung", "toko", "shop", "store", "market", "mall", "plaza",
				},
			},
			{
				Category: model.CategoryHealth,
				TagValues: map[string][]string{
					"amenity": {"hospital", "clinic", "doctors", "dentist", "pharmacy", "veterinary"},
				},
				Keywords: []string{
					"rumah sakit", "rsud", "klinik", "apotek", "dokter", "puskesmas", "poli",
				},
				// "RS Harapan" is a hospital, "RS" inside a school name is not.
				Prefixes: []PrefixRule{{Prefix: "rs ", Exclude: []string{"sekolah"}}},
			},
			{
				Category: model.CategoryTransport,
				TagValues: map[string][]string{
					"public_transport": {"platform", "station", "stop_position"},
					"highway":          {"bus_stop"},
					"railway":          {"station", "halt", "tram_stop"},
				},
				Keywords: []string{
					"halte", "bus stop", "terminal", "stasiun", "station", "mrt", "lrt", "angkot",
				},
			},
			{
				Category: model.CategoryReligious,
				TagValues: map[string][]string{
					"amenity": {
						"place_of_worship", "mosque", "church", "temple", "synagogue",
						"hindu_temple", "buddhist_temple",
					},
				},
				Keywords: []string{"masjid", "gereja", "katedral", "pura", "vihara", "candi"},
			},
			{
				Category: model.CategoryRecreation,
				TagValues: map[string][]string{
					"leisure": {"park", "playground", "sports_centre", "fitness_centre", "swimming_pool", "garden"},
					"amenity": {"cinema", "theatre"},
				},
				Keywords: []string{
					"taman", "gym", "fitness", "playground", "bioskop", "cinema", "kolam renang",
				},
			},
			{
				Category: model.CategoryWalkability,
				TagValues: map[string][]string{
					"highway":         {"footway", "pedestrian", "path", "steps", "street_lamp", "crossing"},
					"route":           {"foot", "hiking", "walking"},
					"amenity":         {"bench", "drinking_water"},
					"traffic_calming": {"*"},
					"lit":             {"yes"},
					"natural":         {"tree_row", "hedge"},
					"landuse":         {"grass", "meadow"},
				},
			},
			{
				Category: model.CategoryAccessibility,
				TagValues: map[string][]string{
					"barrier":        {"kerb"},
					"kerb":           {"lowered", "flush"},
					"highway":        {"elevator"},
					"wheelchair":     {"yes"},
					"amenity":        {"toilets"},
					"tactile_paving": {"yes"},
				},
			},
			{
				Category: model.CategorySafety,
				TagValues: map[string][]string{
					"highway":         {"street_lamp"},
					"lit":             {"yes"},
					"traffic_calming": {"*"},
					"man_made":        {"surveillance"},
					"amenity":         {"fire_station", "hospital"},
				},
			},
		},

		Contribution: map[string]ContributionParams{
			model.CategoryHealth:        {MaxContribution: 10, DecayExponent: 0.8, MinRatio: 0.1},
			model.CategoryEducation:     {MaxContribution: 10, DecayExponent: 0.9, MinRatio: 0.1},
			model.CategoryMarket:        {MaxContribution: 8, DecayExponent: 0.85, MinRatio: 0.1},
			model.CategoryTransport:     {MaxContribution: 10, DecayExponent: 0.95, MinRatio: 0.1},
			model.CategoryWalkability:   {MaxContribution: 12, DecayExponent: 0.85, MinRatio: 0.1},
			model.CategoryRecreation:    {MaxContribution: 8, DecayExponent: 0.8, MinRatio: 0.1},
			model.CategorySafety:        {MaxContribution: 6, DecayExponent: 0.7, MinRatio: 0.1},
			model.CategoryAccessibility: {MaxContribution: 4, DecayExponent: 0.9, MinRatio: 0.1},
			model.CategoryPolice:        {MaxContribution: 8, DecayExponent: 0.6, MinRatio: 0.1},
			model.CategoryReligious:     {MaxContribution: 6, DecayExponent: 0.75, MinRatio: 0.1},
		},
		Default: ContributionParams{MaxContribution: 5, DecayExponent: 0.8, MinRatio: 0.1},

		Weights: ScoreWeights{
			GroupWeights: map[string]float64{
				model.GroupServices:    0.25,
				model.GroupMobility:    0.25,
				model.GroupSafety:      0.25,
				model.GroupEnvironment: 0.25,
			},
			HealthToSafetyRatio: 0.25,
			ClampMin:            0,
			ClampMax:            100,
		},

		Mapping: map[string][]string{
			model.GroupServices:    {model.CategoryHealth, model.CategoryEducation, model.CategoryMarket, model.CategoryReligious},
			model.GroupMobility:    {model.CategoryTransport, model.CategoryWalkability},
			model.GroupSafety:      {model.CategorySafety, model.CategoryPolice, model.CategoryAccessibility},
			model.GroupEnvironment: {model.CategoryRecreation},
		},

		NameFields: []string{"name", "amenity", "shop", "leisure", "highway"},
	}
}

// Load returns the default tables, optionally overlaid with a YAML file.
// An empty path means defaults only. The merged tables are validated.
func Load(path string) (*Tables, error) {
	t := DefaultTables()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "rules: read %s", path)
		}
		var override Tables
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, eris.Wrapf(err, "rules: parse %s", path)
		}
		merge(t, &override)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// merge overlays non-empty sections of override onto t. Sections replace
// wholesale rather than merging entry by entry so a file stays auditable.
func merge(t, override *Tables) {
	if len(override.Detection) > 0 {
		t.Detection = override.Detection
	}
	if len(override.Contribution) > 0 {
		t.Contribution = override.Contribution
	}
	if override.Default.MaxContribution > 0 {
		t.Default = override.Default
	}
	if len(override.Weights.GroupWeights) > 0 {
		t.Weights = override.Weights
	}
	if len(override.Mapping) > 0 {
		t.Mapping = override.Mapping
	}
	if len(override.NameFields) > 0 {
		t.NameFields = override.NameFields
	}
}
