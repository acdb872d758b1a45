package osmparser

import "github.com/paulmach/orb"

type NodeType int

const (
	END_NODE NodeType = iota
	BETWEEN_NODE
	JUNCTION_NODE
)

var (
	acceptedHighway = map[string]struct{}{
		"motorway":         {},
		"motorway_link":    {},
		"trunk":            {},
		"trunk_link":       {},
		"primary":          {},
		"primary_link":     {},
		"secondary":        {},
		"secondary_link":   {},
		"residential":      {},
		"residential_link": {},
		"service":          {},
		"tertiary":         {},
		"tertiary_link":    {},
		"road":             {},
		"track":            {},
		"unclassified":     {},
		"undefined":        {},
		"unknown":          {},
		"living_street":    {},
		"private":          {},
		"motorroad":        {},
	}

	acceptedBarrierType = map[string]struct{}{
		"bollard":        {},
		"swing_gate":     {},
		"jersey_barrier": {},
		"lift_gate":      {},
		"block":          {},
		"gate":           {},
	}
)

type NodeCoord struct {
	lat float64
	lon float64
}

func NewNodeCoord(lat, lon float64) NodeCoord {
	return NodeCoord{lat, lon}
}

type node struct {
	id    int64
	coord NodeCoord
}

// Vertex is a graph vertex: an OSM node where a road starts, ends or crosses another road.
type Vertex struct {
	ID  int64
	Lat float64
	Lon float64
}

// Road is one directed or bidirectional road edge between two vertices. Geometry is in
// the road's forward direction.
type Road struct {
	ID       int64
	WayID    int64
	Source   int64
	Target   int64
	Name     string
	Highway  string
	Length   float64 // meters
	OneWay   bool
	Geometry orb.LineString
}

// RoadNetwork is the parsed road network.
type RoadNetwork struct {
	Vertices []Vertex
	Roads    []Road
}
