package controllers

import (
	"context"

	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/lintang-b-s/navroute/pkg/guidance"
)

type RoutingService interface {
	Route(ctx context.Context, start, end geo.Coordinate) (*guidance.Itinerary, error)
}
