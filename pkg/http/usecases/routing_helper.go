package usecases

import (
	"context"

	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/lintang-b-s/navroute/pkg/graphstore"
	"golang.org/x/sync/errgroup"
)

// snapOrigDest resolves start and end to their nearest vertices concurrently.
func (rs *RoutingService) snapOrigDest(ctx context.Context, session graphstore.Session,
	start, end geo.Coordinate) (int64, int64, error) {
	var source, target int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		source, err = session.NearestVertex(gctx, start)
		return err
	})
	g.Go(func() error {
		var err error
		target, err = session.NearestVertex(gctx, end)
		return err
	})

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return source, target, nil
}
