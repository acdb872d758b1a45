package graphstore

import (
	"context"

	da "github.com/lintang-b-s/navroute/pkg/datastructure"
	"github.com/lintang-b-s/navroute/pkg/geo"
)

// Session is a read-only view of the road network scoped to one routing request.
// Close must be called on every exit path.
type Session interface {
	NearestVertex(ctx context.Context, coord geo.Coordinate) (int64, error)
	Graph(ctx context.Context) (*da.Graph, error)
	Close() error
}
