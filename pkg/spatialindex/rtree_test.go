package spatialindex

import (
	"context"
	"testing"

	da "github.com/lintang-b-s/navroute/pkg/datastructure"
	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

func bruteForceNearest(coord geo.Coordinate, entries []vertexEntry) int64 {
	best := entries[0]
	bestDist := geo.GeodesicDistance(coord, geo.NewCoordinate(best.lat, best.lon))
	for _, e := range entries[1:] {
		d := geo.GeodesicDistance(coord, geo.NewCoordinate(e.lat, e.lon))
		if d < bestDist || (d == bestDist && e.id < best.id) {
			best, bestDist = e, d
		}
	}
	return best.id
}

func TestNearestVertexMatchesBruteForce(t *testing.T) {
	rd := rand.New(rand.NewSource(1))
	rt := NewRtree(0.05)

	// vertices around Yogyakarta
	for i := int64(1); i <= 500; i++ {
		rt.Insert(i, -7.85+rd.Float64()*0.15, 110.30+rd.Float64()*0.15)
	}

	for i := 0; i < 200; i++ {
		// queries both inside and well outside the covered area
		q := geo.NewCoordinate(-8.0+rd.Float64()*0.5, 110.1+rd.Float64()*0.5)
		got, err := rt.NearestVertex(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, bruteForceNearest(q, rt.entries), got, "query %v", q)
	}
}

func TestNearestVertexFarAway(t *testing.T) {
	rt := NewRtree(0.5)
	rt.Insert(1, -7.79, 110.36)
	rt.Insert(2, -6.20, 106.81)

	// farther than the largest window: falls back to a full scan
	tokyo := geo.NewCoordinate(35.68, 139.69)
	got, err := rt.NearestVertex(context.Background(), tokyo)
	require.NoError(t, err)
	assert.Equal(t, bruteForceNearest(tokyo, rt.entries), got)

	// near a pole the window cannot be expressed
	got, err = rt.NearestVertex(context.Background(), geo.NewCoordinate(89.9999, 0))
	require.NoError(t, err)
	assert.Contains(t, []int64{1, 2}, got)
}

func TestNearestVertexTieBreak(t *testing.T) {
	rt := NewRtree(0.5)
	rt.Insert(7, 0, 0.001)
	rt.Insert(3, 0, -0.001)

	got, err := rt.NearestVertex(context.Background(), geo.NewCoordinate(0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestNearestVertexEmpty(t *testing.T) {
	rt := NewRtree(0.5)

	_, err := rt.NearestVertex(context.Background(), geo.NewCoordinate(0, 0))
	assert.ErrorIs(t, err, ErrNoNetworkCoverage)
}

func TestNearestVertexCancelled(t *testing.T) {
	rt := NewRtree(0.5)
	rt.Insert(1, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rt.NearestVertex(ctx, geo.NewCoordinate(1, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildSkipsUnpositionedVertices(t *testing.T) {
	b := da.NewGraphBuilder()
	b.AddVertex(1, -7.0, 110.0)
	require.NoError(t, b.AddEdge(1, 1, 2, 10, "", nil))

	rt := NewRtree(0.5)
	rt.Build(b.Build(), zap.NewNop())

	assert.Equal(t, 1, rt.Len())
}
