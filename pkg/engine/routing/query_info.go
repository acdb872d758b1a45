package routing

import (
	"math"

	da "github.com/lintang-b-s/navroute/pkg/datastructure"
)

var infWeight = math.Inf(1)

// VertexInfo is the search label of a vertex: tentative distance and the arc it was reached through.
type VertexInfo struct {
	dist       float64
	parentEdge da.Index
	heapNode   *da.PriorityQueueNode[da.Index]
	settled    bool
}

func NewVertexInfo(dist float64, parentEdge da.Index, heapNode *da.PriorityQueueNode[da.Index]) VertexInfo {
	return VertexInfo{
		dist:       dist,
		parentEdge: parentEdge,
		heapNode:   heapNode,
	}
}

func (vi *VertexInfo) GetDist() float64 {
	return vi.dist
}

func (vi *VertexInfo) GetParentEdge() da.Index {
	return vi.parentEdge
}

func (vi *VertexInfo) GetHeapNode() *da.PriorityQueueNode[da.Index] {
	return vi.heapNode
}

func (vi *VertexInfo) IsLabelled() bool {
	return vi.dist < infWeight
}

func (vi *VertexInfo) update(dist float64, parentEdge da.Index) {
	vi.dist = dist
	vi.parentEdge = parentEdge
}

func initInfWeightVertexInfo(infos []VertexInfo) {
	for i := range infos {
		infos[i] = NewVertexInfo(infWeight, da.INVALID_INDEX, nil)
	}
}
