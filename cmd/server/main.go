package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/navroute/pkg/graphstore"
	"github.com/lintang-b-s/navroute/pkg/http"
	"github.com/lintang-b-s/navroute/pkg/http/usecases"
	"github.com/lintang-b-s/navroute/pkg/logger"
	"github.com/lintang-b-s/navroute/pkg/metrics"
	"github.com/lintang-b-s/navroute/pkg/publisher"
	"github.com/lintang-b-s/navroute/pkg/util"
	"go.uber.org/zap"
)

type graphStore interface {
	usecases.GraphStore
	Close() error
}

func main() {
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := util.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newGraphStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open graph store", zap.Error(err))
	}
	defer store.Close()

	var (
		collector *metrics.Collector
		opts      []usecases.Option
	)
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector()
		opts = append(opts, usecases.WithObserver(collector))
	}

	if cfg.NATSURL != "" {
		var publisherMetrics publisher.PublisherMetrics
		if collector != nil {
			publisherMetrics = collector
		}
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger, publisherMetrics)
		if err != nil {
			logger.Fatal("failed to connect to nats", zap.Error(err))
		}
		defer pub.Close()
		opts = append(opts, usecases.WithPublisher(pub))
	}

	routingService := usecases.NewRoutingService(logger, store, usecases.Config{SpeedKmh: cfg.SpeedKmh}, opts...)

	api := http.NewServer(logger)
	api.Use(ctx, cfg, routingService, collector)

	if err := api.Wait(); err != nil {
		logger.Error("navroute server stopped with error", zap.Error(err))
		return
	}
	logger.Info("navroute server stopped")
}

func newGraphStore(ctx context.Context, cfg *util.Config, log *zap.Logger) (graphStore, error) {
	switch cfg.GraphStore {
	case util.GraphStoreGeoJSON:
		graph, err := graphstore.LoadGeoJSONFile(cfg.GraphFile, log)
		if err != nil {
			return nil, err
		}
		return graphstore.NewMemoryStore(graph, cfg.IndexRadiusKm, log), nil
	default:
		store, err := graphstore.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.EdgeTable, cfg.VertexTable,
			cfg.MaxConns, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
