package graphstore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	da "github.com/lintang-b-s/navroute/pkg/datastructure"
	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// LoadGeoJSONFile reads a road network FeatureCollection, bzip2 compressed when the name ends in .bz2.
func LoadGeoJSONFile(path string, log *zap.Logger) (*da.Graph, error) {
	log.Info("Reading road network from ", zap.String("graphFilePath", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".bz2") {
		bz, err := bzip2.NewReader(f, nil)
		if err != nil {
			return nil, err
		}
		defer bz.Close()
		r = bz
	}

	graph, err := ReadRoadNetwork(r)
	if err != nil {
		return nil, fmt.Errorf("read road network %s: %w", path, err)
	}
	log.Info("Road network loaded", zap.Int("vertices", graph.NumberOfVertices()),
		zap.Int("edges", graph.NumberOfEdges()))
	return graph, nil
}

// ReadRoadNetwork builds a graph from a GeoJSON FeatureCollection.
// LineString features are roads with properties id, source, target and optionally name, cost
// (meters, default: geodesic length), oneway (default false) and reverse_cost (< 0 disables the reverse arc).
// Point features with an id property position vertices explicitly.
func ReadRoadNetwork(r io.Reader) (*da.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", geo.ErrGeometryDecode, err)
	}

	builder := da.NewGraphBuilder()
	for i, f := range fc.Features {
		if p, ok := f.Geometry.(orb.Point); ok {
			id, ok := int64Property(f.Properties, "id")
			if !ok {
				return nil, fmt.Errorf("feature %d: point without id", i)
			}
			builder.AddVertex(id, p.Lat(), p.Lon())
		}
	}

	for i, f := range fc.Features {
		if _, ok := f.Geometry.(orb.Point); ok {
			continue
		}
		if err := addRoadFeature(builder, f); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
	}

	return builder.Build(), nil
}

func addRoadFeature(builder *da.GraphBuilder, f *geojson.Feature) error {
	ls, err := geo.ToLineString(f.Geometry)
	if err != nil {
		return err
	}

	id, ok := int64Property(f.Properties, "id")
	if !ok {
		return fmt.Errorf("road without id")
	}
	source, ok := int64Property(f.Properties, "source")
	if !ok {
		return fmt.Errorf("road %d without source", id)
	}
	target, ok := int64Property(f.Properties, "target")
	if !ok {
		return fmt.Errorf("road %d without target", id)
	}
	name := f.Properties.MustString("name", "")

	cost, ok := float64Property(f.Properties, "cost")
	if !ok {
		cost = orbgeo.LengthHaversine(ls)
	}
	if err := builder.AddEdge(id, source, target, cost, name, ls); err != nil {
		return err
	}

	reverseCost := cost
	if f.Properties.MustBool("oneway", false) {
		reverseCost = -1
	}
	if rc, ok := float64Property(f.Properties, "reverse_cost"); ok {
		reverseCost = rc
	}
	if reverseCost < 0 {
		return nil
	}
	return builder.AddEdge(id, target, source, reverseCost, name, geo.Reversed(ls))
}

func int64Property(props geojson.Properties, key string) (int64, bool) {
	switch v := props[key].(type) {
	case float64:
		return int64(v), v == float64(int64(v))
	case json.Number:
		id, err := v.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

func float64Property(props geojson.Properties, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
