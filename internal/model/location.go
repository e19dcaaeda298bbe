package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Location is a coordinate to be scored. Label is optional display text;
// when empty the formatted coordinate is used in results.
type Location struct {
	Label string  `json:"label,omitempty"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// DisplayLabel returns the label, falling back to "lat, lng".
func (l Location) DisplayLabel() string {
	if l.Label != "" {
		return l.Label
	}
	return fmt.Sprintf("%v, %v", l.Lat, l.Lng)
}

// Validate checks that the coordinate is inside the valid WGS84 range.
func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 {
		return eris.Errorf("model: latitude %v out of range [-90, 90]", l.Lat)
	}
	if l.Lng < -180 || l.Lng > 180 {
		return eris.Errorf("model: longitude %v out of range [-180, 180]", l.Lng)
	}
	return nil
}

// CategoryQuery pairs a canonical category with the Overpass QL text that
// fetches its raw records around one location.
type CategoryQuery struct {
	Category string
	Query    string
}
