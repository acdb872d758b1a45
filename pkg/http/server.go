package http

import (
	"context"

	http_router "github.com/lintang-b-s/navroute/pkg/http/router"
	"github.com/lintang-b-s/navroute/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/navroute/pkg/http/server"
	"github.com/lintang-b-s/navroute/pkg/metrics"
	"github.com/lintang-b-s/navroute/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
	g   errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use starts the API in the background. The API stops when ctx is done; Wait returns its result.
func (s *Server) Use(
	ctx context.Context,
	cfg *util.Config,

	routingService controllers.RoutingService,
	collector *metrics.Collector,
) *Server {
	viper.SetDefault("HTTP_SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("HTTP_SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("HTTP_SERVER_IDLE_TIMEOUT", "120s")
	viper.SetDefault("HTTP_SERVER_READ_HEADER_TIMEOUT", "5s")

	config := http_server.Config{
		Port:              cfg.APIPort,
		WebsocketPort:     cfg.WebsocketPort,
		Timeout:           cfg.APITimeout,
		ReadTimeout:       viper.GetDuration("HTTP_SERVER_READ_TIMEOUT"),
		WriteTimeout:      viper.GetDuration("HTTP_SERVER_WRITE_TIMEOUT"),
		IdleTimeout:       viper.GetDuration("HTTP_SERVER_IDLE_TIMEOUT"),
		ReadHeaderTimeout: viper.GetDuration("HTTP_SERVER_READ_HEADER_TIMEOUT"),
		UseRateLimit:      cfg.UseRateLimit,
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		WebsocketWorkers:  cfg.WebsocketPool,
	}

	server := http_router.NewAPI(s.Log)

	s.g.Go(func() error {
		return server.Run(ctx, config, routingService, collector)
	})

	return s
}

func (s *Server) Wait() error {
	return s.g.Wait()
}
