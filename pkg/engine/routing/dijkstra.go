package routing

import (
	"context"
	"errors"
	"fmt"

	da "github.com/lintang-b-s/navroute/pkg/datastructure"
	"github.com/lintang-b-s/navroute/pkg/util"
)

var (
	ErrNoPathExists  = errors.New("no directed path between source and target")
	ErrInvalidVertex = errors.New("vertex is not present in the graph")
)

// check for cancellation every cancelCheckInterval settled vertices
const cancelCheckInterval = 1024

// Dijkstra is a one-shot point to point search over a graph snapshot. Not safe for concurrent use.
type Dijkstra struct {
	graph *da.Graph

	info []VertexInfo
	pq   *da.MinHeap[da.Index]

	numSettledNodes int
}

func NewDijkstra(graph *da.Graph) *Dijkstra {
	return &Dijkstra{
		graph: graph,
		pq:    da.NewFourAryHeap[da.Index](),
	}
}

func (us *Dijkstra) GetNumSettledNodes() int {
	return us.numSettledNodes
}

// ShortestPath computes the minimum cost directed path from source to target (external vertex ids).
// Ties between equal cost paths resolve to the first arc relaxed, in CSR order.
func (us *Dijkstra) ShortestPath(ctx context.Context, source, target int64) (*da.Path, error) {
	s, ok := us.graph.IndexOf(source)
	if !ok {
		return nil, fmt.Errorf("%w: source %d", ErrInvalidVertex, source)
	}
	t, ok := us.graph.IndexOf(target)
	if !ok {
		return nil, fmt.Errorf("%w: target %d", ErrInvalidVertex, target)
	}

	if s == t {
		return da.NewPath([]da.PathStep{
			{Seq: 1, Vertex: source, Edge: da.TerminalEdge},
		}), nil
	}

	us.Preallocate()

	sNode := da.NewPriorityQueueNode(0, s)
	us.pq.Insert(sNode)
	us.info[s] = NewVertexInfo(0, da.INVALID_INDEX, sNode)

	for !us.pq.IsEmpty() {
		if us.numSettledNodes%cancelCheckInterval == 0 && util.StopConcurrentOperation(ctx) {
			return nil, ctx.Err()
		}

		node, _ := us.pq.ExtractMin()
		u := node.GetItem()
		us.info[u].settled = true
		us.numSettledNodes++

		if u == t {
			return us.retrievePath(s, t), nil
		}

		us.relaxOutEdges(u)
	}

	return nil, fmt.Errorf("%w: %d -> %d", ErrNoPathExists, source, target)
}

func (us *Dijkstra) relaxOutEdges(u da.Index) {
	uDist := us.info[u].GetDist()

	us.graph.ForOutEdgesOf(u, func(e *da.Edge, eId da.Index) {
		v := e.GetHead()
		if us.info[v].settled {
			return
		}

		newDist := uDist + e.GetCost()
		vInfo := &us.info[v]

		if vInfo.IsLabelled() && newDist >= vInfo.GetDist() {
			// not better
			return
		}

		if vInfo.IsLabelled() {
			vInfo.update(newDist, eId)
			// v is still queued (not settled), so decrease its key
			_ = us.pq.DecreaseKey(vInfo.GetHeapNode(), newDist)
			return
		}

		vNode := da.NewPriorityQueueNode(newDist, v)
		*vInfo = NewVertexInfo(newDist, eId, vNode)
		us.pq.Insert(vNode)
	})
}

// retrievePath walks parent arcs back from t and emits steps in traversal order.
func (us *Dijkstra) retrievePath(s, t da.Index) *da.Path {
	edgePath := make([]da.Index, 0)
	for cur := t; cur != s; {
		eId := us.info[cur].GetParentEdge()
		edgePath = append(edgePath, eId)
		cur = us.graph.GetOutEdge(eId).GetTail()
	}

	steps := make([]da.PathStep, 0, len(edgePath)+1)
	aggCost := 0.0
	for i := len(edgePath) - 1; i >= 0; i-- {
		e := us.graph.GetOutEdge(edgePath[i])
		steps = append(steps, da.PathStep{
			Seq:      len(steps) + 1,
			Vertex:   us.graph.GetVertex(e.GetTail()).GetID(),
			Edge:     e.GetID(),
			Cost:     e.GetCost(),
			AggCost:  aggCost,
			Name:     e.GetName(),
			Geometry: e.GetGeometry(),
		})
		aggCost += e.GetCost()
	}

	steps = append(steps, da.PathStep{
		Seq:     len(steps) + 1,
		Vertex:  us.graph.GetVertex(t).GetID(),
		Edge:    da.TerminalEdge,
		AggCost: aggCost,
	})
	return da.NewPath(steps)
}

func (us *Dijkstra) Preallocate() {
	n := us.graph.NumberOfVertices()
	us.info = make([]VertexInfo, n)
	initInfWeightVertexInfo(us.info)
	us.pq.Preallocate(n)
	us.numSettledNodes = 0
}
