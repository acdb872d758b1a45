package spatialindex

import (
	"context"
	"errors"

	da "github.com/lintang-b-s/navroute/pkg/datastructure"
	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

var ErrNoNetworkCoverage = errors.New("no network vertex found near coordinate")

// maxWindowRadius bounds the expanding window search (km); beyond it we scan every vertex.
const maxWindowRadius = 2000.0

type vertexEntry struct {
	id  int64
	lat float64
	lon float64
}

// Rtree indexes graph vertices by position and answers geodesic nearest-vertex queries.
type Rtree struct {
	tr            *rtree.RTreeG[vertexEntry]
	entries       []vertexEntry
	initialRadius float64
}

// NewRtree. initialRadius (km) is the first search window radius, it doubles until a match is proven nearest.
func NewRtree(initialRadius float64) *Rtree {
	var tr rtree.RTreeG[vertexEntry]
	if initialRadius <= 0 {
		initialRadius = 0.5
	}
	return &Rtree{
		tr:            &tr,
		entries:       make([]vertexEntry, 0),
		initialRadius: initialRadius,
	}
}

// Build inserts every positioned vertex of graph.
func (rt *Rtree) Build(graph *da.Graph, log *zap.Logger) {
	log.Info("Building R-tree spatial index...", zap.Int("vertices", graph.NumberOfVertices()))
	graph.ForVertices(func(v *da.Vertex, u da.Index) {
		if !v.HasPosition() {
			return
		}
		rt.Insert(v.GetID(), v.GetLat(), v.GetLon())
	})
	log.Info("R-tree spatial index built.", zap.Int("indexed", rt.Len()))
}

func (rt *Rtree) Insert(id int64, lat, lon float64) {
	entry := vertexEntry{id: id, lat: lat, lon: lon}
	rt.entries = append(rt.entries, entry)
	rt.tr.Insert([2]float64{lon, lat}, [2]float64{lon, lat}, entry)
}

func (rt *Rtree) Len() int {
	return len(rt.entries)
}

// NearestVertex returns the id of the vertex with the smallest geodesic distance to coord.
// Equidistant vertices resolve to the smallest id.
func (rt *Rtree) NearestVertex(ctx context.Context, coord geo.Coordinate) (int64, error) {
	if rt.Len() == 0 {
		return 0, ErrNoNetworkCoverage
	}

	for radius := rt.initialRadius; radius <= maxWindowRadius; radius *= 2 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		candidates, ok := rt.searchWithinRadius(coord.Lat, coord.Lon, radius)
		if !ok {
			break
		}
		best, bestDist, found := nearest(coord, candidates)
		// every vertex closer than radius lies inside the window, so best is the global nearest
		if found && bestDist <= radius*1000 {
			return best.id, nil
		}
	}

	best, _, _ := nearest(coord, rt.entries)
	return best.id, nil
}

// searchWithinRadius returns all vertices inside the bounding box of the circle of radius (km) around (qLat, qLon).
// ok is false when the box cannot be expressed without wrapping.
func (rt *Rtree) searchWithinRadius(qLat, qLon, radius float64) ([]vertexEntry, bool) {
	minLat, minLon, maxLat, maxLon, ok := geo.BoundingBoxAround(qLat, qLon, radius)
	if !ok {
		return nil, false
	}

	results := make([]vertexEntry, 0, 16)
	rt.tr.Search([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat},
		func(min, max [2]float64, data vertexEntry) bool {
			results = append(results, data)
			return true
		})
	return results, true
}

func nearest(coord geo.Coordinate, candidates []vertexEntry) (vertexEntry, float64, bool) {
	var (
		best     vertexEntry
		bestDist float64
		found    bool
	)
	for _, c := range candidates {
		d := geo.GeodesicDistance(coord, geo.NewCoordinate(c.lat, c.lon))
		if !found || d < bestDist || (d == bestDist && c.id < best.id) {
			best, bestDist, found = c, d, true
		}
	}
	return best, bestDist, found
}
