package geo

import (
	"math"

	"github.com/lintang-b-s/navroute/pkg/util"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

const (
	earthRadiusKM = 6371.0
	earthRadiusM  = earthRadiusKM * 1000.0
)

// BoundingBoxAround returns the lat/lon box containing every point within radius (km) of (lat, lon).
// ok is false when the box would cross a pole or the antimeridian, callers must then fall back to a full scan.
// http://janmatuschek.de/LatitudeLongitudeBoundingCoordinates
func BoundingBoxAround(lat, lon, radius float64) (minLat, minLon, maxLat, maxLon float64, ok bool) {
	angular := radius / earthRadiusKM
	latRad := util.DegreeToRadians(lat)

	minLatRad := latRad - angular
	maxLatRad := latRad + angular
	if minLatRad <= -math.Pi/2 || maxLatRad >= math.Pi/2 {
		return 0, 0, 0, 0, false
	}

	dLon := math.Asin(math.Sin(angular) / math.Cos(latRad))
	minLon = lon - util.RadiansToDegree(dLon)
	maxLon = lon + util.RadiansToDegree(dLon)
	if minLon < -180 || maxLon > 180 {
		return 0, 0, 0, 0, false
	}

	return util.RadiansToDegree(minLatRad), minLon, util.RadiansToDegree(maxLatRad), maxLon, true
}
