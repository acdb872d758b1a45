package guidance

import (
	da "github.com/lintang-b-s/navroute/pkg/datastructure"
	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/paulmach/orb"
)

// Segment is one traversed edge of an itinerary.
type Segment struct {
	seq                int
	vertex             int64
	edge               int64
	geometry           orb.LineString
	distance           float64
	streetName         string
	duration           Duration
	cumulativeDistance float64
	cumulativeDuration Duration
}

func (s Segment) GetSeq() int {
	return s.seq
}

func (s Segment) GetVertex() int64 {
	return s.vertex
}

func (s Segment) GetEdge() int64 {
	return s.edge
}

func (s Segment) GetGeometry() orb.LineString {
	return s.geometry
}

func (s Segment) GetDistance() float64 {
	return s.distance
}

func (s Segment) GetStreetName() string {
	return s.streetName
}

func (s Segment) GetDuration() Duration {
	return s.duration
}

func (s Segment) GetCumulativeDistance() float64 {
	return s.cumulativeDistance
}

func (s Segment) GetCumulativeDuration() Duration {
	return s.cumulativeDuration
}

type Summary struct {
	totalDistance float64
	totalDuration Duration
	polyline      string
}

func (s Summary) GetTotalDistance() float64 {
	return s.totalDistance
}

func (s Summary) GetTotalDuration() Duration {
	return s.totalDuration
}

// GetPolyline is the encoded polyline of the whole route geometry.
func (s Summary) GetPolyline() string {
	return s.polyline
}

// Itinerary is a read-only snapshot: ordered segments and their totals.
type Itinerary struct {
	segments []Segment
	summary  Summary
}

// Segments returns a copy of the segments in traversal order.
func (it *Itinerary) Segments() []Segment {
	segments := make([]Segment, len(it.segments))
	copy(segments, it.segments)
	return segments
}

func (it *Itinerary) NumberOfSegments() int {
	return len(it.segments)
}

func (it *Itinerary) Summary() Summary {
	return it.summary
}

// BuildItinerary attaches distance and duration metrics to every edge of path.
// speed is the assumed constant travel speed in meters/second.
func BuildItinerary(path *da.Path, speed float64) *Itinerary {
	edges := path.Edges()
	segments := make([]Segment, 0, len(edges))
	lines := make([]orb.LineString, 0, len(edges))

	cumulativeDistance := 0.0
	for _, step := range edges {
		cumulativeDistance += step.Cost
		segments = append(segments, Segment{
			seq:                step.Seq,
			vertex:             step.Vertex,
			edge:               step.Edge,
			geometry:           step.Geometry,
			distance:           step.Cost,
			streetName:         step.Name,
			duration:           NewDuration(step.Cost / speed),
			cumulativeDistance: cumulativeDistance,
			cumulativeDuration: NewDuration(cumulativeDistance / speed),
		})
		lines = append(lines, step.Geometry)
	}

	return &Itinerary{
		segments: segments,
		summary: Summary{
			totalDistance: cumulativeDistance,
			totalDuration: NewDuration(cumulativeDistance / speed),
			polyline:      geo.PolylineFromLineStrings(lines),
		},
	}
}
