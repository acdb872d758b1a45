package graphstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dsnet/compress/bzip2"
	da "github.com/lintang-b-s/navroute/pkg/datastructure"
	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const roadNetwork = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [110.3650, -7.7925]}, "properties": {"id": 1}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [110.3660, -7.7930]}, "properties": {"id": 2}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [110.3680, -7.7940]}, "properties": {"id": 3}},
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[110.3650, -7.7925], [110.3660, -7.7930]]},
     "properties": {"id": 10, "source": 1, "target": 2, "name": "Jalan Malioboro", "cost": 100, "oneway": true}},
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[110.3660, -7.7930], [110.3680, -7.7940]]},
     "properties": {"id": 20, "source": 2, "target": 3, "name": "Jalan Mataram", "cost": 200, "reverse_cost": 250}},
    {"type": "Feature",
     "geometry": {"type": "LineString", "coordinates": [[110.3680, -7.7940], [110.3700, -7.7950]]},
     "properties": {"id": 30, "source": "3", "target": "4"}}
  ]
}`

func outEdges(g *da.Graph, id int64) []*da.Edge {
	u, ok := g.IndexOf(id)
	if !ok {
		return nil
	}
	edges := make([]*da.Edge, 0)
	g.ForOutEdgesOf(u, func(e *da.Edge, _ da.Index) {
		edges = append(edges, e)
	})
	return edges
}

func TestReadRoadNetwork(t *testing.T) {
	g, err := ReadRoadNetwork(strings.NewReader(roadNetwork))
	require.NoError(t, err)

	assert.Equal(t, 4, g.NumberOfVertices())
	// 10 is oneway, 20 and 30 have reverse arcs
	assert.Equal(t, 5, g.NumberOfEdges())

	fromOne := outEdges(g, 1)
	require.Len(t, fromOne, 1)
	assert.Equal(t, int64(10), fromOne[0].GetID())
	assert.Equal(t, 100.0, fromOne[0].GetCost())
	assert.Equal(t, "Jalan Malioboro", fromOne[0].GetName())

	fromTwo := outEdges(g, 2)
	require.Len(t, fromTwo, 1)
	assert.Equal(t, int64(20), fromTwo[0].GetID())

	fromThree := outEdges(g, 3)
	require.Len(t, fromThree, 2)
	reverse := fromThree[0]
	assert.Equal(t, int64(20), reverse.GetID())
	assert.Equal(t, 250.0, reverse.GetCost())
	assert.Equal(t, 110.3680, reverse.GetGeometry()[0].Lon())
	assert.Equal(t, 110.3660, reverse.GetGeometry()[1].Lon())

	// no cost property: geodesic length of the geometry
	assert.Equal(t, int64(30), fromThree[1].GetID())
	assert.InDelta(t, 248.5, fromThree[1].GetCost(), 5)
	assert.Empty(t, fromThree[1].GetName())

	u, ok := g.IndexOf(4)
	require.True(t, ok)
	v := g.GetVertex(u)
	assert.True(t, v.HasPosition())
	assert.Equal(t, -7.7950, v.GetLat())
}

func TestReadRoadNetworkErrors(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
	}{
		{"not json", `{"type": "FeatureCollection", "features": [`},
		{"road without id", `{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"LineString","coordinates":[[0,0],[0,1]]},"properties":{"source":1,"target":2}}]}`},
		{"road without target", `{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"LineString","coordinates":[[0,0],[0,1]]},"properties":{"id":1,"source":1}}]}`},
		{"negative cost", `{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"LineString","coordinates":[[0,0],[0,1]]},"properties":{"id":1,"source":1,"target":2,"cost":-3}}]}`},
		{"point without id", `{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}]}`},
		{"polygon", `{"type":"FeatureCollection","features":[{"type":"Feature",
			"geometry":{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[0,0]]]},"properties":{"id":1,"source":1,"target":2}}]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadRoadNetwork(strings.NewReader(tc.payload))
			assert.Error(t, err)
		})
	}
}

func TestLoadGeoJSONFile(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "road_network.geojson")
	require.NoError(t, os.WriteFile(plain, []byte(roadNetwork), 0o644))

	compressed := filepath.Join(dir, "road_network.geojson.bz2")
	f, err := os.Create(compressed)
	require.NoError(t, err)
	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{Level: bzip2.BestSpeed})
	require.NoError(t, err)
	_, err = bz.Write([]byte(roadNetwork))
	require.NoError(t, err)
	require.NoError(t, bz.Close())
	require.NoError(t, f.Close())

	for _, path := range []string{plain, compressed} {
		g, err := LoadGeoJSONFile(path, zap.NewNop())
		require.NoError(t, err, path)
		assert.Equal(t, 4, g.NumberOfVertices())
		assert.Equal(t, 5, g.NumberOfEdges())
	}

	_, err = LoadGeoJSONFile(filepath.Join(dir, "missing.geojson"), zap.NewNop())
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	g, err := ReadRoadNetwork(strings.NewReader(roadNetwork))
	require.NoError(t, err)
	store := NewMemoryStore(g, 0.5, zap.NewNop())
	defer store.Close()

	session, err := store.Acquire(context.Background())
	require.NoError(t, err)
	defer session.Close()

	id, err := session.NearestVertex(context.Background(), geo.NewCoordinate(-7.7931, 110.3661))
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	got, err := session.Graph(context.Background())
	require.NoError(t, err)
	assert.Same(t, g, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
