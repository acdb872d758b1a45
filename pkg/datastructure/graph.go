package datastructure

import (
	"fmt"
	"math"

	"github.com/lintang-b-s/navroute/pkg/util"
	"github.com/paulmach/orb"
)

type Index uint32

const INVALID_INDEX Index = math.MaxUint32

type Vertex struct {
	id          int64
	lat         float64
	lon         float64
	hasPosition bool
}

func (v *Vertex) GetID() int64 {
	return v.id
}

func (v *Vertex) GetLat() float64 {
	return v.lat
}

func (v *Vertex) GetLon() float64 {
	return v.lon
}

// HasPosition is false for vertices only known through an edge without geometry.
func (v *Vertex) HasPosition() bool {
	return v.hasPosition
}

// Edge is a directed arc tail -> head. Both arcs of a two-way road share the road id.
// Geometry runs tail to head, so a reverse arc holds the stored road geometry reversed.
type Edge struct {
	id       int64
	tail     Index
	head     Index
	cost     float64 // meters
	name     string
	geometry orb.LineString
}

func (e *Edge) GetID() int64 {
	return e.id
}

func (e *Edge) GetTail() Index {
	return e.tail
}

func (e *Edge) GetHead() Index {
	return e.head
}

func (e *Edge) GetCost() float64 {
	return e.cost
}

func (e *Edge) GetName() string {
	return e.name
}

func (e *Edge) GetGeometry() orb.LineString {
	return e.geometry
}

// Graph is an immutable directed graph in compressed sparse row layout.
// outEdges[firstOut[u]:firstOut[u+1]] are the arcs leaving u, in insertion order.
type Graph struct {
	vertices  []Vertex
	firstOut  []Index
	outEdges  []Edge
	idToIndex map[int64]Index
}

func (g *Graph) NumberOfVertices() int {
	return len(g.vertices)
}

func (g *Graph) NumberOfEdges() int {
	return len(g.outEdges)
}

func (g *Graph) IndexOf(id int64) (Index, bool) {
	u, ok := g.idToIndex[id]
	return u, ok
}

func (g *Graph) GetVertex(u Index) *Vertex {
	return &g.vertices[u]
}

func (g *Graph) GetOutDegree(u Index) Index {
	return g.firstOut[u+1] - g.firstOut[u]
}

func (g *Graph) GetOutEdge(e Index) *Edge {
	return &g.outEdges[e]
}

func (g *Graph) ForOutEdgesOf(u Index, handle func(e *Edge, eId Index)) {
	for e := g.firstOut[u]; e < g.firstOut[u+1]; e++ {
		handle(&g.outEdges[e], e)
	}
}

func (g *Graph) ForVertices(handle func(v *Vertex, u Index)) {
	for u := range g.vertices {
		handle(&g.vertices[u], Index(u))
	}
}

type GraphBuilder struct {
	vertices  []Vertex
	idToIndex map[int64]Index
	edges     []Edge
}

func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		vertices:  make([]Vertex, 0),
		idToIndex: make(map[int64]Index),
		edges:     make([]Edge, 0),
	}
}

// AddVertex registers a vertex or sets the position of an already registered one.
func (b *GraphBuilder) AddVertex(id int64, lat, lon float64) Index {
	if u, ok := b.idToIndex[id]; ok {
		b.vertices[u].lat, b.vertices[u].lon, b.vertices[u].hasPosition = lat, lon, true
		return u
	}
	u := Index(len(b.vertices))
	b.vertices = append(b.vertices, Vertex{id: id, lat: lat, lon: lon, hasPosition: true})
	b.idToIndex[id] = u
	return u
}

func (b *GraphBuilder) implicitVertex(id int64, p orb.Point, hasPoint bool) Index {
	if u, ok := b.idToIndex[id]; ok {
		if !b.vertices[u].hasPosition && hasPoint {
			b.vertices[u].lat, b.vertices[u].lon, b.vertices[u].hasPosition = p.Lat(), p.Lon(), true
		}
		return u
	}
	u := Index(len(b.vertices))
	b.vertices = append(b.vertices, Vertex{id: id, lat: p.Lat(), lon: p.Lon(), hasPosition: hasPoint})
	b.idToIndex[id] = u
	return u
}

// AddEdge adds the directed arc source -> target. cost is in meters and must be finite and non-negative.
func (b *GraphBuilder) AddEdge(id, source, target int64, cost float64, name string, geometry orb.LineString) error {
	if !util.IsFinite(cost) || cost < 0 {
		return fmt.Errorf("edge %d: invalid cost %v", id, cost)
	}

	var first, last orb.Point
	hasPoint := len(geometry) > 0
	if hasPoint {
		first, last = geometry[0], geometry[len(geometry)-1]
	}
	tail := b.implicitVertex(source, first, hasPoint)
	head := b.implicitVertex(target, last, hasPoint)

	b.edges = append(b.edges, Edge{
		id:       id,
		tail:     tail,
		head:     head,
		cost:     cost,
		name:     name,
		geometry: geometry,
	})
	return nil
}

// Build sorts edges by tail (stable) into the CSR layout.
func (b *GraphBuilder) Build() *Graph {
	n := len(b.vertices)
	firstOut := make([]Index, n+1)
	for _, e := range b.edges {
		firstOut[e.tail+1]++
	}
	for u := 0; u < n; u++ {
		firstOut[u+1] += firstOut[u]
	}

	outEdges := make([]Edge, len(b.edges))
	next := make([]Index, n)
	copy(next, firstOut[:n])
	for _, e := range b.edges {
		outEdges[next[e.tail]] = e
		next[e.tail]++
	}

	vertices := make([]Vertex, n)
	copy(vertices, b.vertices)
	idToIndex := make(map[int64]Index, n)
	for id, u := range b.idToIndex {
		idToIndex[id] = u
	}

	return &Graph{
		vertices:  vertices,
		firstOut:  firstOut,
		outEdges:  outEdges,
		idToIndex: idToIndex,
	}
}
