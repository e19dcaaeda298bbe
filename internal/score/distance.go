// Package score computes distance-decayed facility contributions and rolls
// them up into group and overall livability scores.
package score

import "github.com/golang/geo/s2"

// earthRadiusMeters is the mean Earth radius used for great-circle math.
const earthRadiusMeters = 6_371_000.0

// Distance returns the great-circle distance in meters between two WGS84
// coordinates.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * earthRadiusMeters
}
