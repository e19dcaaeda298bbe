// Package overpass is a minimal client for the Overpass API: it posts a
// QL query and decodes the element list, leaving interpretation of the
// elements to the caller.
package overpass

// Response is the top-level Overpass JSON payload.
type Response struct {
	Elements []Element `json:"elements"`
}

// Element is one raw OSM record. Nodes carry lat/lon directly; ways and
// relations queried with "out center" carry a bounding-box centroid.
type Element struct {
	ID     int64             `json:"id"`
	Type   string            `json:"type"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Center is the centroid of a way or relation.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Position resolves the usable coordinate of an element, preferring the
// explicit point over the centroid. ok is false when neither is present.
func (e Element) Position() (lat, lng float64, ok bool) {
	if e.Lat != nil && e.Lon != nil {
		return *e.Lat, *e.Lon, true
	}
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon, true
	}
	return 0, 0, false
}
