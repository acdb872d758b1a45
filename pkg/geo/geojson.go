package geo

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/navroute/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var ErrGeometryDecode = errors.New("malformed edge geometry")

// DecodeLineString decodes a GeoJSON geometry payload into a line string.
// MultiLineString parts are concatenated in order. Anything else is rejected.
func DecodeLineString(payload []byte) (orb.LineString, error) {
	g, err := geojson.UnmarshalGeometry(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometryDecode, err)
	}
	return ToLineString(g.Geometry())
}

// ToLineString validates an already decoded geometry.
func ToLineString(g orb.Geometry) (orb.LineString, error) {
	var ls orb.LineString
	switch geom := g.(type) {
	case orb.LineString:
		ls = geom
	case orb.MultiLineString:
		for _, part := range geom {
			ls = append(ls, part...)
		}
	case nil:
		return nil, fmt.Errorf("%w: empty geometry", ErrGeometryDecode)
	default:
		return nil, fmt.Errorf("%w: unsupported geometry type %s", ErrGeometryDecode, g.GeoJSONType())
	}

	if len(ls) < 2 {
		return nil, fmt.Errorf("%w: line string needs at least 2 points, got %d", ErrGeometryDecode, len(ls))
	}
	for i, p := range ls {
		if !validPoint(p) {
			return nil, fmt.Errorf("%w: invalid coordinate at position %d: %v", ErrGeometryDecode, i, p)
		}
	}
	return ls, nil
}

func validPoint(p orb.Point) bool {
	lon, lat := p.Lon(), p.Lat()
	if !util.IsFinite(lon) || !util.IsFinite(lat) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// Reversed returns a reversed copy of ls.
func Reversed(ls orb.LineString) orb.LineString {
	r := ls.Clone()
	r.Reverse()
	return r
}
