package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lintang-b-s/navroute/pkg/concurrent"
	"github.com/lintang-b-s/navroute/pkg/http/router/controllers"
	router_helper "github.com/lintang-b-s/navroute/pkg/http/router/routerhelper"
	http_server "github.com/lintang-b-s/navroute/pkg/http/server"
	"github.com/lintang-b-s/navroute/pkg/metrics"
	"github.com/mailru/easygo/netpoll"

	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"go.uber.org/zap"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "net/http/pprof"
)

type API struct {
	log    *zap.Logger
	hub    *controllers.Hub
	poller netpoll.Poller
	pool   *concurrent.WorkerPool
}

func NewAPI(log *zap.Logger) *API {
	return &API{log: log}
}

//	@title			navroute API
//	@version		1.0
//	@description	Shortest path routing over a directed road network.

//	@license.name	BSD License
//	@license.url	https://opensource.org/license/bsd-2-clause

// @host		localhost
// @BasePath	/api
func (api *API) Run(
	ctx context.Context,
	config http_server.Config,
	routingService controllers.RoutingService,
	collector *metrics.Collector,
) error {
	api.log.Info("Run httprouter API")

	handler := api.Handler(config, routingService, collector)

	wsCtx, stopWebsocket := context.WithCancel(ctx)
	defer stopWebsocket()

	errChan := make(chan error, 1)
	wsDone := make(chan struct{})
	go func() {
		defer close(wsDone)
		api.serveWebsocket(wsCtx, config, routingService, errChan)
	}()

	srv := http_server.New(ctx, handler, config)
	api.log.Info(fmt.Sprintf("API run on port %d", config.Port))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		api.log.Error("Websocket error, shutting down server", zap.Error(err))
		_ = srv.Shutdown(context.Background())
		return err
	case err := <-serverErr:
		api.log.Error("HTTP server stopped, shutting down websocket server", zap.Error(err))
		stopWebsocket()
		<-wsDone
		return err
	case <-ctx.Done():
		api.log.Info("Context canceled, shutting down server")
		err := srv.Shutdown(context.Background())
		<-wsDone
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Handler builds the API router behind the middleware chain.
func (api *API) Handler(
	config http_server.Config,
	routingService controllers.RoutingService,
	collector *metrics.Collector,
) http.Handler {
	router := httprouter.New()

	corsHandler := cors.New(cors.Options{ //nolint:gocritic // ignore
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", headerRequestID},
		ExposedHeaders:   []string{"Link", headerRequestID},
		AllowCredentials: true,
		MaxAge:           300, //nolint:mnd // ignore
	})

	router.GET("/doc/*any", swaggerHandler)

	router.Handler(http.MethodGet, "/debug/pprof/*item", http.DefaultServeMux)

	if collector != nil {
		router.Handler(http.MethodGet, "/metrics", collector.Handler())
	}

	router.HandlerFunc(http.MethodGet, "/ws/route",
		api.upstream("websocket route server", "tcp", fmt.Sprintf("localhost:%d", config.WebsocketPort)))

	group := router_helper.NewRouteGroup(router, "/api")

	routingRoutes := controllers.New(routingService, config.Timeout, api.log)

	routingRoutes.Routes(group)

	mwChain := []alice.Constructor{corsHandler.Handler, EnforceJSONHandler, api.recoverPanic,
		RealIP, Heartbeat("healthz"), Logger(api.log), Labels}
	if collector != nil {
		mwChain = append(mwChain, Metrics(collector))
	}
	if config.UseRateLimit {
		mwChain = append(mwChain, Limit(config.RateLimitRPS, config.RateLimitBurst))
	}
	return alice.New(mwChain...).Then(router)
}

func swaggerHandler(res http.ResponseWriter, req *http.Request, p httprouter.Params) {
	httpSwagger.WrapHandler(res, req)
}
