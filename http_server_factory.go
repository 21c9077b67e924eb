/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"crypto/tls"
	"fmt"
	"github.com/example/booksearch/booksearchapi"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.arpabet.com/glue"
	"go.uber.org/zap"
	"net"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"time"
)

type implHttpServerFactory struct {
	Log         *zap.Logger                    `inject:""`
	Properties  glue.Properties                `inject:""`
	Handlers    []booksearchapi.HttpHandler    `inject:"optional,level=1"`
	Middlewares []booksearchapi.HttpMiddleware `inject:"optional,level=1"`
	Resources   []*glue.ResourceSource         `inject:"optional"`
	TlsConfig   *tls.Config                    `inject:"optional"`

	beanName string
}

func HttpServerFactory(beanName string) glue.FactoryBean {
	return &implHttpServerFactory{beanName: beanName}
}

func (t *implHttpServerFactory) PostConstruct() error {
	if len(t.Middlewares) > 1 {
		sort.SliceStable(t.Middlewares, func(i, j int) bool {
			return t.Middlewares[i].BeanOrder() < t.Middlewares[j].BeanOrder()
		})
	}
	return nil
}

func (t *implHttpServerFactory) property(name string) string {
	return fmt.Sprintf("%s.%s", t.beanName, name)
}

/*
ListenAddress resolves <bean>.bind-address, or <bean>.address with <bean>.port.
*/
func (t *implHttpServerFactory) ListenAddress() (string, error) {

	if listenAddr := t.Properties.GetString(t.property("bind-address"), ""); listenAddr != "" {
		return listenAddr, nil
	}

	port := t.Properties.GetString(t.property("port"), "")
	if port == "" {
		return "", errors.Errorf("property '%s' not found in server context", t.property("port"))
	}

	return net.JoinHostPort(t.Properties.GetString(t.property("address"), ""), port), nil
}

func (t *implHttpServerFactory) Object() (object interface{}, err error) {

	defer PanicToError(&err)

	listenAddr, err := t.ListenAddress()
	if err != nil {
		return nil, err
	}

	options := ParseOptions(t.Properties.GetString(t.property("options"), "handlers"))

	serveMux := mux.NewRouter()

	visitedPatterns := make(map[string]bool)

	var handlerList []string
	if options["handlers"] {
		for _, handler := range t.Handlers {
			pattern := handler.Pattern()
			if visitedPatterns[pattern] {
				t.Log.Warn("PatternExist", zap.String("pattern", pattern), zap.Any("handler", handler))
				continue
			}
			visitedPatterns[pattern] = true

			route := serveMux.Handle(pattern, t.chain(pattern, handler))
			if mh, ok := handler.(booksearchapi.MethodsHandler); ok {
				if methods := mh.Methods(); len(methods) > 0 {
					route.Methods(methods...)
				}
			}
			handlerList = append(handlerList, pattern)
		}
	}

	var assetList []string
	if options["assets"] {
		for pattern, handler := range t.groupAssets() {
			if visitedPatterns[pattern] {
				t.Log.Warn("PatternExist", zap.String("pattern", pattern))
				continue
			}
			visitedPatterns[pattern] = true
			assetList = append(assetList, pattern)
			serveMux.Handle(pattern, t.chain(pattern, handler))
		}
	}

	var tlsConfig *tls.Config
	if options["tls"] {
		if tlsConfig, err = t.loadTlsConfig(); err != nil {
			return nil, err
		}
	}

	readTimeout := t.Properties.GetDuration(t.property("read-timeout"), 30*time.Second)
	writeTimeout := t.Properties.GetDuration(t.property("write-timeout"), 30*time.Second)
	idleTimeout := t.Properties.GetDuration(t.property("idle-timeout"), time.Minute)

	t.Log.Info("HTTPServerFactory",
		zap.String("listenAddr", listenAddr),
		zap.String("bean", t.beanName),
		zap.Strings("handlers", handlerList),
		zap.Strings("assets", assetList),
		zap.Any("options", options),
		zap.Bool("tls", tlsConfig != nil))

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           serveMux,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		TLSConfig:         tlsConfig,
		ErrorLog:          zap.NewStdLog(t.Log),
	}

	return srv, nil

}

// chain wraps handler with middlewares in reverse order so that
// the first middleware in the list runs first on the request.
func (t *implHttpServerFactory) chain(pattern string, handler http.Handler) http.Handler {
	h := handler
	for i := len(t.Middlewares) - 1; i >= 0; i-- {
		middleware := t.Middlewares[i]
		if middleware != nil && middleware.Match(pattern) {
			h = middleware.Middleware(h)
		}
	}
	return h
}

func (t *implHttpServerFactory) loadTlsConfig() (*tls.Config, error) {

	if t.TlsConfig != nil {
		return t.TlsConfig.Clone(), nil
	}

	certFile := t.Properties.GetString(t.property("tls.cert-file"), "")
	keyFile := t.Properties.GetString(t.property("tls.key-file"), "")
	if certFile == "" || keyFile == "" {
		return nil, errors.Errorf("option 'tls' of '%s' requires *tls.Config bean or '%s' and '%s' properties",
			t.beanName, t.property("tls.cert-file"), t.property("tls.key-file"))
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, errors.Errorf("failed to load key pair '%s', '%s', %v", certFile, keyFile, err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (t *implHttpServerFactory) ObjectType() reflect.Type { return booksearchapi.HttpServerClass }

func (t *implHttpServerFactory) ObjectName() string {

	return t.beanName
}

func (t *implHttpServerFactory) Singleton() bool {
	return true
}

type servingAsset struct {
	pattern string
	plainH  http.Handler
	gzipH   http.Handler
}

func (t *servingAsset) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if t.gzipH != nil && acceptsGzip(r) {
		t.gzipH.ServeHTTP(w, r)
		return
	}
	if t.plainH != nil {
		t.plainH.ServeHTTP(w, r)
		return
	}
	http.Error(w, "resource not found", http.StatusNotFound)
}

func (t *implHttpServerFactory) groupAssets() map[string]*servingAsset {

	cache := make(map[string]*servingAsset)

	for _, res := range t.Resources {
		if !strings.HasPrefix(res.Name, "assets") {
			continue
		}

		var gzip bool
		var handler http.Handler
		handler = http.FileServer(res.AssetFiles)

		if strings.HasSuffix(res.Name, "gzip") {
			handler = gzipHeaderHandler{h: handler}
			gzip = true
		}

		for _, name := range res.AssetNames {

			patterns := []string{"/" + name}
			if name == "index.html" {
				patterns = append(patterns, "/")
			}

			for _, pattern := range patterns {
				s, ok := cache[pattern]
				if !ok {
					s = &servingAsset{pattern: pattern}
					cache[pattern] = s
				}

				if gzip {
					if s.gzipH != nil {
						t.Log.Warn("GzipHandlerExist", zap.String("pattern", pattern), zap.String("asset", name))
					}
					s.gzipH = handler
				} else {
					if s.plainH != nil {
						t.Log.Warn("PlainHandlerExist", zap.String("pattern", pattern), zap.String("asset", name))
					}
					s.plainH = handler
				}
			}

		}

	}

	return cache
}

type gzipHeaderHandler struct {
	h http.Handler
}

func (t gzipHeaderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.h.ServeHTTP(gzipWriter{w}, r)
}
