/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/example/booksearch/booksearchapi"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.arpabet.com/glue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
)

func PanicToError(err *error) {
	if r := recover(); r != nil {
		*err = errors.Errorf("%v, %s", r, debug.Stack())
	}
}

func ParseOptions(str string) map[string]bool {
	cache := make(map[string]bool)
	parts := strings.Split(str, ";")
	for _, part := range parts {
		key := strings.TrimSpace(part)
		if len(key) > 0 {
			cache[key] = true
		}
	}
	return cache
}

// emitStats sends name/value pairs to the callback until it returns false.
func emitStats(cb func(name, value string) bool, pairs ...string) error {
	if len(pairs)%2 != 0 {
		return errors.Errorf("odd number of stats arguments: %d", len(pairs))
	}
	for i := 0; i < len(pairs); i += 2 {
		if !cb(pairs[i], pairs[i+1]) {
			break
		}
	}
	return nil
}

func matchPrefixes(prefixes []string, pattern string) bool {
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p != "" && strings.HasPrefix(pattern, p) {
			return true
		}
	}
	return false
}

const (
	acceptEncoding  = "Accept-Encoding"
	contentEncoding = "Content-Encoding"
)

type gzipWriter struct {
	w http.ResponseWriter
}

func (t gzipWriter) Header() http.Header {
	return t.w.Header()
}

func (t gzipWriter) Write(b []byte) (int, error) {
	return t.w.Write(b)
}

func (t gzipWriter) WriteHeader(statusCode int) {
	if statusCode == 200 {
		t.w.Header().Del(contentEncoding)
		t.w.Header().Set(contentEncoding, "gzip")
	}
	t.w.WriteHeader(statusCode)
}

func doWithServers(core glue.Context, cb func([]booksearchapi.Server) error) (err error) {

	var contextList []glue.Context

	defer func() {

		var listErr error
		if r := recover(); r != nil {
			listErr = multierror.Append(listErr, errors.Errorf("recovered on error: %v", r))
		}

		for _, ctx := range contextList {
			if ctx != core {
				if e := ctx.Close(); e != nil {
					listErr = multierror.Append(listErr, e)
				}
			}
		}

		if listErr != nil {
			err = multierror.Append(err, listErr).ErrorOrNil()
		}

	}()

	if len(core.Children()) == 0 {
		// no child contexts found, use core context for server
		contextList = append(contextList, core)
	} else {
		for _, child := range core.Children() {
			// Initialize child context, by default they are not initialized
			if ctx, err := child.Object(); err != nil {
				return errors.Errorf("server creation context '%v' failed by %v", child, err)
			} else {
				contextList = append(contextList, ctx)
			}
		}
	}

	var serverList []booksearchapi.Server
	for _, ctx := range contextList {

		for i, bean := range ctx.Bean(booksearchapi.ServerClass, glue.DefaultLevel) {
			if srv, ok := bean.Object().(booksearchapi.Server); ok {
				serverList = append(serverList, srv)
			} else {
				return errors.Errorf("invalid object found for booksearchapi.Server on position %d in child context: %v", i, ctx)
			}
		}

		for i, bean := range ctx.Bean(booksearchapi.HttpServerClass, glue.DefaultLevel) {
			if srv, ok := bean.Object().(*http.Server); ok {
				s := NewHttpServer(srv)
				if err := ctx.Inject(s); err != nil {
					return errors.Errorf("injection error for server '%s' of *http.Server on position %d in child context %v, %v", srv.Addr, i, ctx, err)
				}
				if err := s.PostConstruct(); err != nil {
					return err
				}
				serverList = append(serverList, s)
			} else {
				return errors.Errorf("invalid object found for *http.Server on position %d in child context %v", i, ctx)
			}
		}

	}

	return cb(serverList)
}

/*
runServers binds every server before any of them serves, so a bind failure stops the application
without accepting a single connection. Blocks until all servers stop.
*/
func runServers(runtime booksearchapi.Runtime, core glue.Context, log *zap.Logger) error {

	return doWithServers(core, func(servers []booksearchapi.Server) (err error) {

		defer PanicToError(&err)
		defer log.Sync()

		if len(servers) == 0 {
			return errors.New("booksearchapi.Server instances are not found in server context")
		}

		var boundServers []booksearchapi.Server
		for _, server := range servers {
			if err := server.Bind(); err != nil {
				log.Error("Bind", zap.Error(err))
				for _, bound := range boundServers {
					bound.Shutdown()
				}
				return err
			}
			boundServers = append(boundServers, server)
		}

		// register before serving, a signal must never hit the default handler once the port is open
		signalCh := make(chan os.Signal, 10)
		signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(signalCh)

		done := make(chan struct{})
		defer close(done)

		g, groupCtx := errgroup.WithContext(runtime)

		for _, server := range boundServers {
			g.Go(server.Serve)
		}
		log.Info("BooksearchStarted", zap.Int("Servers", len(boundServers)))

		// if application shutdown or first server stops then groupCtx going to be canceled
		// if groupCtx canceled we need to shutdown all servers
		// ALL or Nothing
		var shutdownGroup sync.WaitGroup
		shutdownGroup.Add(1)
		go func() {
			defer shutdownGroup.Done()
			<-groupCtx.Done()
			for _, server := range boundServers {
				if err := server.Shutdown(); err != nil {
					log.Warn("ServerShutdown", zap.Stringer("addr", server.ListenAddress()), zap.Error(err))
				}
			}
		}()

		go watchSignals(signalCh, done, runtime, core, log)

		err = g.Wait()
		shutdownGroup.Wait()
		return err
	})

}

func watchSignals(signalCh <-chan os.Signal, done <-chan struct{}, runtime booksearchapi.Runtime, core glue.Context, log *zap.Logger) {

	for {

		var sig os.Signal
		select {
		case sig = <-signalCh:
		case <-runtime.Done():
			return
		case <-done:
			return
		}

		log.Info("StopSignal", zap.String("signal", sig.String()))

		if sig == syscall.SIGHUP {
			if rotateLogFiles(core, log) {
				continue
			}
			// no log file configured, restart application
			runtime.Shutdown(true)
		} else {
			runtime.Shutdown(false)
		}
		return
	}

}

func rotateLogFiles(core glue.Context, log *zap.Logger) bool {
	rotated := false
	for _, bean := range core.Bean(booksearchapi.LogFileClass, glue.DefaultLevel) {
		if file, ok := bean.Object().(booksearchapi.LogFile); ok && file.Enabled() {
			if err := file.Rotate(); err != nil {
				log.Error("LogRotate", zap.Error(err))
			}
			rotated = true
		}
	}
	return rotated
}
