package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/lintang-b-s/navroute/pkg/engine/routing"
	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/lintang-b-s/navroute/pkg/guidance"
	"github.com/lintang-b-s/navroute/pkg/metrics"
	"github.com/lintang-b-s/navroute/pkg/publisher"
	"github.com/lintang-b-s/navroute/pkg/spatialindex"
	"github.com/lintang-b-s/navroute/pkg/util"
	"go.uber.org/zap"
)

type Config struct {
	SpeedKmh float64
}

type Option func(*RoutingService)

func WithObserver(observer RouteObserver) Option {
	return func(rs *RoutingService) {
		rs.observer = observer
	}
}

func WithPublisher(publisher RoutePublisher) Option {
	return func(rs *RoutingService) {
		rs.publisher = publisher
	}
}

type RoutingService struct {
	log       *zap.Logger
	store     GraphStore
	speed     float64 // meters/second
	observer  RouteObserver
	publisher RoutePublisher
}

func NewRoutingService(log *zap.Logger, store GraphStore, config Config, opts ...Option) *RoutingService {
	rs := &RoutingService{
		log:   log,
		store: store,
		speed: guidance.KmhToMps(config.SpeedKmh),
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Route snaps start and end to the network, computes the shortest directed path between them and
// returns its itinerary. Any failure aborts the request; the returned error carries a util code.
func (rs *RoutingService) Route(ctx context.Context, start, end geo.Coordinate) (*guidance.Itinerary, error) {
	if !validCoordinate(start) || !validCoordinate(end) {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "coordinates must be finite numbers")
	}

	began := time.Now()
	itinerary, source, target, err := rs.route(ctx, start, end)
	rs.observe(err, itinerary, time.Since(began))
	if err != nil {
		return nil, rs.translateError(err, start, end)
	}

	rs.publish(ctx, start, end, source, target, itinerary)
	return itinerary, nil
}

func (rs *RoutingService) route(ctx context.Context, start, end geo.Coordinate) (*guidance.Itinerary, int64, int64, error) {
	session, err := rs.store.Acquire(ctx)
	if err != nil {
		return nil, 0, 0, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			rs.log.Warn("failed to release graph store session", zap.Error(cerr))
		}
	}()

	source, target, err := rs.snapOrigDest(ctx, session, start, end)
	if err != nil {
		return nil, 0, 0, err
	}

	graph, err := session.Graph(ctx)
	if err != nil {
		return nil, 0, 0, err
	}

	path, err := routing.NewDijkstra(graph).ShortestPath(ctx, source, target)
	if err != nil {
		return nil, 0, 0, err
	}

	return guidance.BuildItinerary(path, rs.speed), source, target, nil
}

func (rs *RoutingService) translateError(err error, start, end geo.Coordinate) error {
	switch {
	case errors.Is(err, spatialindex.ErrNoNetworkCoverage):
		return util.WrapErrorf(err, util.ErrNotFound, "no nearest node found")
	case errors.Is(err, routing.ErrNoPathExists):
		return util.WrapErrorf(err, util.ErrNotFound,
			"route not found from %f,%f to %f,%f, please check direction and coordinates",
			start.Lat, start.Lon, end.Lat, end.Lon)
	case errors.Is(err, routing.ErrInvalidVertex), errors.Is(err, geo.ErrGeometryDecode):
		rs.log.Error("routing pipeline inconsistency", zap.Error(err))
		return util.WrapErrorf(err, util.ErrInternalServerError, util.MessageInternalServerError)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return util.WrapErrorf(err, util.ErrInternalServerError, "routing request cancelled: %v", err)
	default:
		rs.log.Error("routing request failed", zap.Error(err))
		return util.WrapErrorf(err, util.ErrInternalServerError, util.MessageInternalServerError)
	}
}

func (rs *RoutingService) observe(err error, itinerary *guidance.Itinerary, d time.Duration) {
	if rs.observer == nil {
		return
	}
	if err != nil {
		rs.observer.ObserveRoute(outcomeOf(err), 0, d)
		return
	}
	rs.observer.ObserveRoute(metrics.OutcomeOK, itinerary.NumberOfSegments(), d)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, spatialindex.ErrNoNetworkCoverage):
		return metrics.OutcomeNoCoverage
	case errors.Is(err, routing.ErrNoPathExists):
		return metrics.OutcomeNoPath
	case errors.Is(err, routing.ErrInvalidVertex):
		return metrics.OutcomeInvalidVertex
	case errors.Is(err, geo.ErrGeometryDecode):
		return metrics.OutcomeGeometry
	default:
		return metrics.OutcomeError
	}
}

// publish failures never fail the request.
func (rs *RoutingService) publish(ctx context.Context, start, end geo.Coordinate, source, target int64,
	itinerary *guidance.Itinerary) {
	if rs.publisher == nil {
		return
	}
	summary := itinerary.Summary()
	ev := publisher.RouteComputedEvent{
		StartLat:     start.Lat,
		StartLon:     start.Lon,
		EndLat:       end.Lat,
		EndLon:       end.Lon,
		SourceVertex: source,
		TargetVertex: target,
		Segments:     itinerary.NumberOfSegments(),
		DistanceM:    summary.GetTotalDistance(),
		DurationSec:  summary.GetTotalDuration().Seconds(),
		ComputedAt:   time.Now().UTC(),
	}
	if err := rs.publisher.PublishRouteComputed(ctx, ev); err != nil {
		rs.log.Warn("failed to publish route event", zap.Error(err))
	}
}

func validCoordinate(c geo.Coordinate) bool {
	return util.IsFinite(c.Lat) && util.IsFinite(c.Lon)
}
