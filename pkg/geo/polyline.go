package geo

import (
	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

// PolylineFromLineStrings encodes the concatenation of lines (precision 5, lat/lon order).
// Consecutive duplicate points at line joints are emitted once.
func PolylineFromLineStrings(lines []orb.LineString) string {
	coords := make([][]float64, 0)
	for _, ls := range lines {
		for _, p := range ls {
			if n := len(coords); n > 0 && coords[n-1][0] == p.Lat() && coords[n-1][1] == p.Lon() {
				continue
			}
			coords = append(coords, []float64{p.Lat(), p.Lon()})
		}
	}
	return string(polyline.EncodeCoords(coords))
}
