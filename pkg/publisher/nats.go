package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
}

// RouteComputedEvent is emitted after every successful routing request.
type RouteComputedEvent struct {
	StartLat     float64   `json:"start_lat"`
	StartLon     float64   `json:"start_lon"`
	EndLat       float64   `json:"end_lat"`
	EndLon       float64   `json:"end_lon"`
	SourceVertex int64     `json:"source_vertex"`
	TargetVertex int64     `json:"target_vertex"`
	Segments     int       `json:"segments"`
	DistanceM    float64   `json:"distance_meters"`
	DurationSec  float64   `json:"duration_seconds"`
	ComputedAt   time.Time `json:"computed_at"`
}

type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	log     *zap.Logger
	metrics PublisherMetrics
}

func NewNATSPublisher(url, subject string, log *zap.Logger, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("navroute"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc, subject: subject, log: log, metrics: m}, nil
}

func (p *NATSPublisher) PublishRouteComputed(ctx context.Context, ev RouteComputedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.subject, b); err != nil {
		if p.metrics != nil {
			p.metrics.NATSPublishErrInc()
		}
		return err
	}
	if p.metrics != nil {
		p.metrics.NATSPublishedInc()
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}
