package osmparser

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders the network as GeoJSON: one Point feature per vertex and
// one LineString feature per road.
func (n *RoadNetwork) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(n.Vertices)+len(n.Roads))

	for _, v := range n.Vertices {
		f := geojson.NewFeature(orb.Point{v.Lon, v.Lat})
		f.Properties["id"] = v.ID
		fc.Append(f)
	}

	for _, r := range n.Roads {
		f := geojson.NewFeature(r.Geometry)
		f.Properties["id"] = r.ID
		f.Properties["osm_way_id"] = r.WayID
		f.Properties["source"] = r.Source
		f.Properties["target"] = r.Target
		f.Properties["name"] = r.Name
		f.Properties["highway"] = r.Highway
		f.Properties["cost"] = r.Length
		f.Properties["oneway"] = r.OneWay
		fc.Append(f)
	}
	return fc
}

func (n *RoadNetwork) WriteGeoJSON(w io.Writer) error {
	return json.NewEncoder(w).Encode(n.FeatureCollection())
}

// WriteFile writes the network to path, bzip2 compressed when the name ends in .bz2.
func (n *RoadNetwork) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	var w io.Writer = bw

	var bz *bzip2.Writer
	if strings.HasSuffix(path, ".bz2") {
		bz, err = bzip2.NewWriter(bw, &bzip2.WriterConfig{Level: bzip2.BestCompression})
		if err != nil {
			return err
		}
		w = bz
	}

	if err := n.WriteGeoJSON(w); err != nil {
		return err
	}
	if bz != nil {
		if err := bz.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}
