package usecases

import (
	"context"
	"time"

	"github.com/lintang-b-s/navroute/pkg/graphstore"
	"github.com/lintang-b-s/navroute/pkg/publisher"
)

type GraphStore interface {
	Acquire(ctx context.Context) (graphstore.Session, error)
}

type RouteObserver interface {
	ObserveRoute(outcome string, segments int, d time.Duration)
}

type RoutePublisher interface {
	PublishRouteComputed(ctx context.Context, ev publisher.RouteComputedEvent) error
}
