package overpass

import (
	"fmt"
	"strings"

	"github.com/futuricity/livability/internal/model"
)

// categorySelectors holds the Overpass QL tag filters per category. Each
// selector is expanded into a node and a way clause with an around filter.
var categorySelectors = map[string][]string{
	model.CategoryHealth: {
		`["amenity"~"^(hospital|clinic|doctors|dentist|pharmacy)$"]`,
	},
	model.CategoryEducation: {
		`["amenity"~"^(school|university|college|kindergarten|library)$"]`,
	},
	model.CategoryMarket: {
		`["shop"]`,
		`["amenity"~"^(restaurant|cafe|fast_food|food_court|fuel)$"]`,
	},
	model.CategoryTransport: {
		`["highway"="bus_stop"]`,
		`["railway"~"^(station|halt|tram_stop)$"]`,
		`["public_transport"~"^(platform|station|stop_position)$"]`,
	},
	model.CategoryWalkability: {
		`["highway"~"^(footway|pedestrian|path|steps|street_lamp|crossing)$"]`,
	},
	model.CategoryRecreation: {
		`["leisure"~"^(park|playground|sports_centre|fitness_centre|swimming_pool|garden)$"]`,
		`["amenity"~"^(cinema|theatre)$"]`,
	},
	model.CategorySafety: {
		`["man_made"="surveillance"]`,
		`["amenity"~"^(fire_station|hospital)$"]`,
	},
	model.CategoryPolice: {
		`["amenity"="police"]`,
	},
	model.CategoryReligious: {
		`["amenity"="place_of_worship"]`,
	},
	model.CategoryAccessibility: {
		`["wheelchair"="yes"]`,
		`["amenity"="toilets"]`,
		`["kerb"~"^(lowered|flush)$"]`,
	},
}

// BuildQuery produces the Overpass QL text fetching one category's raw
// records within radiusMeters of the location. Unknown categories fall back
// to a generic amenity query.
func BuildQuery(category string, loc model.Location, radiusMeters int) string {
	selectors, ok := categorySelectors[category]
	if !ok {
		selectors = []string{`["amenity"]`}
	}

	var body strings.Builder
	for _, sel := range selectors {
		fmt.Fprintf(&body, "node%s(around:%d,%v,%v);", sel, radiusMeters, loc.Lat, loc.Lng)
		fmt.Fprintf(&body, "way%s(around:%d,%v,%v);", sel, radiusMeters, loc.Lat, loc.Lng)
	}

	return fmt.Sprintf("[out:json];(%s);out center;", body.String())
}

// BuildQueries produces one CategoryQuery per canonical category.
func BuildQueries(loc model.Location, radiusMeters int) []model.CategoryQuery {
	queries := make([]model.CategoryQuery, 0, len(model.Categories))
	for _, cat := range model.Categories {
		queries = append(queries, model.CategoryQuery{
			Category: cat,
			Query:    BuildQuery(cat, loc, radiusMeters),
		})
	}
	return queries
}
