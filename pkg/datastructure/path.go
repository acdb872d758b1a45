package datastructure

import "github.com/paulmach/orb"

// TerminalEdge marks the last step of a path: arrival at the target, no outgoing edge.
const TerminalEdge int64 = -1

// PathStep is one row of a shortest path: the vertex visited and the edge taken from it.
type PathStep struct {
	Seq      int
	Vertex   int64
	Edge     int64
	Cost     float64 // meters
	AggCost  float64 // meters before taking Edge
	Name     string
	Geometry orb.LineString
}

func (ps PathStep) IsTerminal() bool {
	return ps.Edge == TerminalEdge
}

// Path is the ordered source -> target traversal. The last step is always terminal.
type Path struct {
	steps []PathStep
}

func NewPath(steps []PathStep) *Path {
	return &Path{steps: steps}
}

func (p *Path) Steps() []PathStep {
	return p.steps
}

// Edges returns the non-terminal steps.
func (p *Path) Edges() []PathStep {
	edges := make([]PathStep, 0, len(p.steps))
	for _, s := range p.steps {
		if s.IsTerminal() {
			continue
		}
		edges = append(edges, s)
	}
	return edges
}

func (p *Path) TotalCost() float64 {
	total := 0.0
	for _, s := range p.steps {
		if !s.IsTerminal() {
			total += s.Cost
		}
	}
	return total
}
