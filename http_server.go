/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"crypto/tls"
	"github.com/example/booksearch/booksearchapi"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

type implHttpServer struct {
	Log *zap.Logger `inject:""`

	ShutdownTimeout time.Duration `value:"server.shutdown-timeout,default=10s"`

	srv      *http.Server
	listener net.Listener

	alive        atomic.Bool
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

func NewHttpServer(srv *http.Server) booksearchapi.Server {
	return &implHttpServer{srv: srv, shutdownCh: make(chan struct{})}
}

func (t *implHttpServer) PostConstruct() error {
	t.alive.Store(false)
	if t.ShutdownTimeout <= 0 {
		t.ShutdownTimeout = defaultShutdownTimeout
	}
	if t.Log == nil {
		t.Log = zap.NewNop()
	}
	return nil
}

func (t *implHttpServer) BeanName() string {
	return "http_server"
}

func (t *implHttpServer) GetStats(cb func(name, value string) bool) error {
	return emitStats(cb,
		"addr", t.ListenAddress().String(),
		"alive", strconv.FormatBool(t.Alive()),
		"tls", strconv.FormatBool(t.srv.TLSConfig != nil),
	)
}

func (t *implHttpServer) Bind() (err error) {

	listener, err := net.Listen("tcp", t.srv.Addr)
	if err != nil {
		return errors.Errorf("can not bind to port '%s', %v", t.srv.Addr, err)
	}

	// the listener is final before Serve and Shutdown run on other goroutines
	if t.srv.TLSConfig != nil {
		listener = tls.NewListener(listener, t.srv.TLSConfig)
	}

	t.listener = listener
	return nil
}

func (t *implHttpServer) Alive() bool {
	return t.alive.Load()
}

func (t *implHttpServer) ListenAddress() net.Addr {
	if t.listener != nil {
		return t.listener.Addr()
	} else {
		return booksearchapi.EmptyAddr
	}
}

/*
Shutdown stops accepting connections and waits for active requests up to the shutdown timeout,
then closes the remaining connections.
*/
func (t *implHttpServer) Shutdown() (err error) {

	t.shutdownOnce.Do(func() {

		addr := t.ListenAddress()
		t.Log.Info("HttpServerShutdown",
			zap.String("addr", addr.String()),
			zap.String("network", addr.Network()))

		// notify everyone that we are shutting down
		close(t.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), t.ShutdownTimeout)
		defer cancel()

		if err = t.srv.Shutdown(ctx); err != nil {
			t.Log.Warn("HttpServerForceClose", zap.Error(err))
			err = t.srv.Close()
		}

		if t.listener != nil && !t.Alive() {
			// never served, http.Server does not own the listener yet
			t.listener.Close()
		}

	})

	return
}

func (t *implHttpServer) ShutdownCh() <-chan struct{} {
	return t.shutdownCh
}

func (t *implHttpServer) Destroy() error {
	// safe to call twice
	return t.Shutdown()
}

func (t *implHttpServer) Serve() (err error) {

	defer PanicToError(&err)

	if t.srv.TLSConfig != nil {
		t.Log.Info("HttpServerServe",
			zap.String("addr", t.ListenAddress().String()),
			zap.String("network", t.ListenAddress().Network()),
			zap.Bool("tls", true),
			zap.Bool("insecure", t.srv.TLSConfig.InsecureSkipVerify))
	} else {
		t.Log.Info("HttpServerServe",
			zap.String("addr", t.ListenAddress().String()),
			zap.String("network", t.ListenAddress().Network()),
			zap.Bool("tls", false))
	}

	t.alive.Store(true)
	err = t.srv.Serve(t.listener)
	t.alive.Store(false)

	if err == nil || err == http.ErrServerClosed || strings.Contains(err.Error(), "closed") {
		return nil
	}

	t.Log.Warn("HttpServerClose", zap.Error(err))
	return err
}
