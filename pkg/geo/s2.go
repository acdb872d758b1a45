package geo

import (
	"github.com/golang/geo/s2"
)

// GeodesicDistance returns the great-circle distance between a and b in meters.
func GeodesicDistance(a, b Coordinate) float64 {
	aLatLng := s2.LatLngFromDegrees(a.Lat, a.Lon)
	bLatLng := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return aLatLng.Distance(bLatLng).Radians() * earthRadiusM
}
