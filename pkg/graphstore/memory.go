package graphstore

import (
	"context"

	da "github.com/lintang-b-s/navroute/pkg/datastructure"
	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/lintang-b-s/navroute/pkg/spatialindex"
	"go.uber.org/zap"
)

// MemoryStore serves an immutable in-memory graph snapshot and its spatial index.
type MemoryStore struct {
	graph *da.Graph
	index *spatialindex.Rtree
}

func NewMemoryStore(graph *da.Graph, indexRadius float64, log *zap.Logger) *MemoryStore {
	index := spatialindex.NewRtree(indexRadius)
	index.Build(graph, log)
	return &MemoryStore{
		graph: graph,
		index: index,
	}
}

func (ms *MemoryStore) Acquire(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memorySession{store: ms}, nil
}

func (ms *MemoryStore) Close() error {
	return nil
}

type memorySession struct {
	store *MemoryStore
}

func (s *memorySession) NearestVertex(ctx context.Context, coord geo.Coordinate) (int64, error) {
	return s.store.index.NearestVertex(ctx, coord)
}

func (s *memorySession) Graph(ctx context.Context) (*da.Graph, error) {
	return s.store.graph, nil
}

func (s *memorySession) Close() error {
	return nil
}
