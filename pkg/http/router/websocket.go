package router

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/lintang-b-s/navroute/pkg/concurrent"
	"github.com/lintang-b-s/navroute/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/navroute/pkg/http/server"
	"github.com/mailru/easygo/netpoll"
	"go.uber.org/zap"
)

const (
	acceptScheduleTimeout = time.Second
	acceptCooldown        = 5 * time.Millisecond
)

// serveWebsocket runs the websocket route server until ctx is done. Connections are
// watched by the poller and every readable connection is served on the worker pool.
func (api *API) serveWebsocket(ctx context.Context, config http_server.Config,
	routingService controllers.RoutingService, errChan chan<- error,
) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", config.WebsocketPort))
	if err != nil {
		errChan <- err
		return
	}

	acceptDesc, err := netpoll.HandleListener(ln, netpoll.EventRead|netpoll.EventOneShot)
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	api.poller, err = netpoll.New(nil)
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	workers := config.WebsocketWorkers
	if workers <= 0 {
		workers = 1
	}
	api.pool = concurrent.NewWorkerPool(workers, workers)
	api.hub = controllers.NewHub(routingService, config.Timeout)
	api.pool.Spawn(workers / 2)

	api.log.Info(fmt.Sprintf("websocket route server run on port %d", config.WebsocketPort))

	// accept signals the result of the scheduled Accept()
	accept := make(chan error, 1)

	err = api.poller.Start(acceptDesc, func(ev netpoll.Event) {
		defer api.poller.Resume(acceptDesc)

		err := api.pool.ScheduleTimeout(acceptScheduleTimeout, func() {
			conn, err := ln.Accept()
			if err != nil {
				accept <- err
				return
			}

			accept <- nil
			api.handle(ctx, conn)
		})
		if err == nil {
			err = <-accept
		}
		if err == nil {
			return
		}

		// pool saturated or a temporary accept failure: cool down before the next accept
		var ne net.Error
		switch {
		case errors.Is(err, concurrent.ErrScheduleTimeout), errors.As(err, &ne) && ne.Timeout():
			api.log.Info("accept error, retrying", zap.Error(err), zap.Duration("delay", acceptCooldown))
			time.Sleep(acceptCooldown)
		case errors.Is(err, concurrent.ErrPoolClosed), errors.Is(err, net.ErrClosed):
		default:
			api.log.Error("accept error", zap.Error(err))
		}
	})
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	<-ctx.Done()

	api.poller.Stop(acceptDesc)
	ln.Close()
	api.hub.RemoveAllUser()
	api.pool.Close()

	api.log.Info("websocket route server stopped")
}

// handle upgrades conn and registers its read readiness with the poller.
func (api *API) handle(ctx context.Context, conn net.Conn) {
	br := bufio.NewReader(conn)

	rw := struct {
		io.Reader
		io.Writer
	}{br, conn}

	hs, err := ws.Upgrade(rw)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err), zap.String("connection", nameConn(conn)))
		conn.Close()
		return
	}

	api.log.Info("established websocket connection", zap.String("connection", nameConn(conn)),
		zap.String("protocol", hs.Protocol))

	user := api.hub.Register(conn)

	desc, err := netpoll.HandleRead(conn)
	if err != nil {
		api.log.Error("failed to watch websocket connection", zap.Error(err))
		api.hub.Remove(user)
		return
	}

	err = api.poller.Start(desc, func(ev netpoll.Event) {
		if ev&(netpoll.EventReadHup|netpoll.EventHup) != 0 {
			api.log.Info("user disconnected from websocket server", zap.Uint("user", user.ID()))

			api.poller.Stop(desc)
			api.hub.Remove(user)
			return
		}

		err := api.pool.Schedule(func() {
			if err := user.Route(ctx); err != nil {
				api.log.Info("closing websocket connection", zap.Uint("user", user.ID()), zap.Error(err))
				api.poller.Stop(desc)
				api.hub.Remove(user)
			}
		})
		if err != nil {
			api.poller.Stop(desc)
			api.hub.Remove(user)
		}
	})
	if err != nil {
		api.log.Error("failed to watch websocket connection", zap.Error(err))
		api.hub.Remove(user)
	}
}

func nameConn(conn net.Conn) string {
	return conn.LocalAddr().String() + " > " + conn.RemoteAddr().String()
}
