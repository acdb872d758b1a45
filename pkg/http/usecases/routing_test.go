package usecases

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	da "github.com/lintang-b-s/navroute/pkg/datastructure"
	"github.com/lintang-b-s/navroute/pkg/engine/routing"
	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/lintang-b-s/navroute/pkg/graphstore"
	"github.com/lintang-b-s/navroute/pkg/metrics"
	"github.com/lintang-b-s/navroute/pkg/publisher"
	"github.com/lintang-b-s/navroute/pkg/spatialindex"
	"github.com/lintang-b-s/navroute/pkg/util"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingStore struct {
	inner  *graphstore.MemoryStore
	closed atomic.Int32
}

func (s *countingStore) Acquire(ctx context.Context) (graphstore.Session, error) {
	session, err := s.inner.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &countingSession{Session: session, store: s}, nil
}

type countingSession struct {
	graphstore.Session
	store *countingStore
}

func (s *countingSession) Close() error {
	s.store.closed.Add(1)
	return s.Session.Close()
}

type failingStore struct {
	err error
}

func (s failingStore) Acquire(ctx context.Context) (graphstore.Session, error) {
	return nil, s.err
}

// stubStore hands out stubSessions and counts how many were closed.
type stubStore struct {
	nearest map[geo.Coordinate]int64
	graph   *da.Graph
	err     error
	closed  atomic.Int32
}

func (s *stubStore) Acquire(ctx context.Context) (graphstore.Session, error) {
	return &stubSession{store: s}, nil
}

type stubSession struct {
	store *stubStore
}

func (s *stubSession) NearestVertex(ctx context.Context, coord geo.Coordinate) (int64, error) {
	return s.store.nearest[coord], nil
}

func (s *stubSession) Graph(ctx context.Context) (*da.Graph, error) {
	return s.store.graph, s.store.err
}

func (s *stubSession) Close() error {
	s.store.closed.Add(1)
	return nil
}

type observation struct {
	outcome  string
	segments int
}

type fakeObserver struct {
	mu           sync.Mutex
	observations []observation
}

func (o *fakeObserver) ObserveRoute(outcome string, segments int, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observations = append(o.observations, observation{outcome: outcome, segments: segments})
}

type fakePublisher struct {
	err    error
	events []publisher.RouteComputedEvent
}

func (p *fakePublisher) PublishRouteComputed(ctx context.Context, ev publisher.RouteComputedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

// 1 -> 2 -> 3 along the equator, one way, 100 m and 200 m.
func lineGraph(t *testing.T) *da.Graph {
	b := da.NewGraphBuilder()
	b.AddVertex(1, 0, 0)
	b.AddVertex(2, 0, 0.0009)
	b.AddVertex(3, 0, 0.0027)
	require.NoError(t, b.AddEdge(10, 1, 2, 100, "Jalan Malioboro", orb.LineString{{0, 0}, {0.0009, 0}}))
	require.NoError(t, b.AddEdge(20, 2, 3, 200, "Jalan Mataram", orb.LineString{{0.0009, 0}, {0.0027, 0}}))
	return b.Build()
}

func newService(t *testing.T, graph *da.Graph, opts ...Option) (*RoutingService, *countingStore) {
	store := &countingStore{inner: graphstore.NewMemoryStore(graph, 0.5, zap.NewNop())}
	return NewRoutingService(zap.NewNop(), store, Config{SpeedKmh: 50}, opts...), store
}

func TestRoute(t *testing.T) {
	observer := &fakeObserver{}
	pub := &fakePublisher{}
	rs, store := newService(t, lineGraph(t), WithObserver(observer), WithPublisher(pub))

	it, err := rs.Route(context.Background(), geo.NewCoordinate(0.00001, 0.00001), geo.NewCoordinate(0, 0.0026))
	require.NoError(t, err)

	segments := it.Segments()
	require.Len(t, segments, 2)
	assert.Equal(t, int64(10), segments[0].GetEdge())
	assert.Equal(t, "0 min 7 sec", segments[0].GetDuration().String())
	assert.Equal(t, int64(20), segments[1].GetEdge())
	assert.Equal(t, "0 min 14 sec", segments[1].GetDuration().String())

	summary := it.Summary()
	assert.Equal(t, 300.0, summary.GetTotalDistance())
	assert.Equal(t, "0 min 21 sec", summary.GetTotalDuration().String())

	assert.Equal(t, int32(1), store.closed.Load())
	assert.Equal(t, []observation{{outcome: metrics.OutcomeOK, segments: 2}}, observer.observations)

	require.Len(t, pub.events, 1)
	assert.Equal(t, int64(1), pub.events[0].SourceVertex)
	assert.Equal(t, int64(3), pub.events[0].TargetVertex)
	assert.Equal(t, 300.0, pub.events[0].DistanceM)
}

func TestRouteSameVertex(t *testing.T) {
	rs, _ := newService(t, lineGraph(t))

	it, err := rs.Route(context.Background(), geo.NewCoordinate(0, 0.0009), geo.NewCoordinate(0, 0.00091))
	require.NoError(t, err)
	assert.Zero(t, it.NumberOfSegments())
	assert.Equal(t, "0 min 0 sec", it.Summary().GetTotalDuration().String())
}

func TestRouteNoPath(t *testing.T) {
	observer := &fakeObserver{}
	rs, store := newService(t, lineGraph(t), WithObserver(observer))

	_, err := rs.Route(context.Background(), geo.NewCoordinate(0, 0.0027), geo.NewCoordinate(0, 0))
	require.Error(t, err)
	assert.Equal(t, util.ErrNotFound, util.ErrorCode(err))
	assert.ErrorIs(t, err, routing.ErrNoPathExists)
	assert.Contains(t, err.Error(), "route not found")

	assert.Equal(t, int32(1), store.closed.Load())
	assert.Equal(t, []observation{{outcome: metrics.OutcomeNoPath}}, observer.observations)
}

func TestRouteEmptyNetwork(t *testing.T) {
	rs, store := newService(t, da.NewGraphBuilder().Build())

	_, err := rs.Route(context.Background(), geo.NewCoordinate(0, 0), geo.NewCoordinate(1, 1))
	require.Error(t, err)
	assert.Equal(t, util.ErrNotFound, util.ErrorCode(err))
	assert.ErrorIs(t, err, spatialindex.ErrNoNetworkCoverage)
	assert.Equal(t, "no nearest node found", err.Error())
	assert.Equal(t, int32(1), store.closed.Load())
}

func TestRouteInvalidCoordinates(t *testing.T) {
	rs, store := newService(t, lineGraph(t))

	testCases := []struct {
		name       string
		start, end geo.Coordinate
	}{
		{"nan start", geo.NewCoordinate(math.NaN(), 0), geo.NewCoordinate(0, 0)},
		{"inf end", geo.NewCoordinate(0, 0), geo.NewCoordinate(0, math.Inf(1))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rs.Route(context.Background(), tc.start, tc.end)
			require.Error(t, err)
			assert.Equal(t, util.ErrBadParamInput, util.ErrorCode(err))
		})
	}
	assert.Zero(t, store.closed.Load())
}

func TestRoutePublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	rs, _ := newService(t, lineGraph(t), WithPublisher(pub))

	it, err := rs.Route(context.Background(), geo.NewCoordinate(0, 0), geo.NewCoordinate(0, 0.0027))
	require.NoError(t, err)
	assert.Equal(t, 2, it.NumberOfSegments())
	assert.Len(t, pub.events, 1)
}

func TestRouteStoreFailure(t *testing.T) {
	observer := &fakeObserver{}
	rs := NewRoutingService(zap.NewNop(), failingStore{err: errors.New("connection refused")},
		Config{SpeedKmh: 50}, WithObserver(observer))

	_, err := rs.Route(context.Background(), geo.NewCoordinate(0, 0), geo.NewCoordinate(0, 0.0027))
	require.Error(t, err)
	assert.Equal(t, util.ErrInternalServerError, util.ErrorCode(err))
	assert.Equal(t, util.MessageInternalServerError, err.Error())
	assert.Equal(t, []observation{{outcome: metrics.OutcomeError}}, observer.observations)
}

func TestRouteCancelled(t *testing.T) {
	rs, _ := newService(t, lineGraph(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rs.Route(ctx, geo.NewCoordinate(0, 0), geo.NewCoordinate(0, 0.0027))
	require.Error(t, err)
	assert.Equal(t, util.ErrInternalServerError, util.ErrorCode(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRoutePipelineInconsistencies(t *testing.T) {
	start, end := geo.NewCoordinate(0, 0), geo.NewCoordinate(0, 0.0027)

	testCases := []struct {
		name    string
		store   *stubStore
		wantErr error
		outcome string
	}{
		{
			name: "undecodable geometry",
			store: &stubStore{
				nearest: map[geo.Coordinate]int64{start: 1, end: 3},
				err:     fmt.Errorf("edge 20: %w: unsupported geometry type Point", geo.ErrGeometryDecode),
			},
			wantErr: geo.ErrGeometryDecode,
			outcome: metrics.OutcomeGeometry,
		},
		{
			name: "snapped vertex missing from graph",
			store: &stubStore{
				nearest: map[geo.Coordinate]int64{start: 1, end: 99},
				graph:   lineGraph(t),
			},
			wantErr: routing.ErrInvalidVertex,
			outcome: metrics.OutcomeInvalidVertex,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			observer := &fakeObserver{}
			rs := NewRoutingService(zap.NewNop(), tc.store, Config{SpeedKmh: 50}, WithObserver(observer))

			_, err := rs.Route(context.Background(), start, end)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, util.ErrInternalServerError, util.ErrorCode(err))
			assert.Equal(t, util.MessageInternalServerError, err.Error())
			assert.Equal(t, int32(1), tc.store.closed.Load())
			assert.Equal(t, []observation{{outcome: tc.outcome}}, observer.observations)
		})
	}
}
