/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"bytes"
	"compress/gzip"
	"context"
	"github.com/example/booksearch/booksearchapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// orderMiddleware records its name in the order it was entered.
type orderMiddleware struct {
	name   string
	order  int
	prefix string
	trace  *[]string
}

func (t *orderMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*t.trace = append(*t.trace, t.name)
		next.ServeHTTP(w, r)
	})
}

func (t *orderMiddleware) Match(pattern string) bool {
	return strings.HasPrefix(pattern, t.prefix)
}

func (t *orderMiddleware) BeanOrder() int {
	return t.order
}

func TestMiddlewareChainOrder(t *testing.T) {
	var trace []string
	factory := &implHttpServerFactory{
		Middlewares: []booksearchapi.HttpMiddleware{
			&orderMiddleware{name: "auth", order: 70, prefix: "/api", trace: &trace},
			&orderMiddleware{name: "recovery", order: 0, prefix: "/", trace: &trace},
			&orderMiddleware{name: "metrics", order: 30, prefix: "/", trace: &trace},
		},
	}
	require.NoError(t, factory.PostConstruct())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace = append(trace, "handler")
	})

	factory.chain("/api/books", handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/books", nil))
	assert.Equal(t, []string{"recovery", "metrics", "auth", "handler"}, trace)

	trace = nil
	factory.chain("/health", handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, []string{"recovery", "metrics", "handler"}, trace, "auth does not match /health")
}

func TestGzipMiddleware(t *testing.T) {
	m := &implGzipMiddleware{Level: gzip.BestSpeed, Threshold: 16, SkipPrefixes: []string{"/images"}}

	large := strings.Repeat("book ", 100)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.URL.Query().Get("body"))
	}))

	t.Run("compresses above threshold", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?body="+strings.ReplaceAll(large, " ", "+"), nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
		zr, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		plain, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, large, string(plain))
	})

	t.Run("plain below threshold", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?body=short", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, "short", rec.Body.String())
		assert.Equal(t, "5", rec.Header().Get("Content-Length"))
	})

	t.Run("plain without accept encoding", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?body="+strings.ReplaceAll(large, " ", "+"), nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, large, rec.Body.String())
	})

	t.Run("decompresses request body", func(t *testing.T) {
		var body bytes.Buffer
		zw := gzip.NewWriter(&body)
		io.WriteString(zw, "payload")
		require.NoError(t, zw.Close())

		echo := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(w, r.Body)
		}))
		req := httptest.NewRequest(http.MethodPost, "/", &body)
		req.Header.Set("Content-Encoding", "gzip")
		rec := httptest.NewRecorder()
		echo.ServeHTTP(rec, req)

		assert.Equal(t, "payload", rec.Body.String())
	})

	t.Run("rejects broken gzip body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not gzip"))
		req.Header.Set("Content-Encoding", "gzip")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("passes compressed content through", func(t *testing.T) {
		png := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			io.WriteString(w, large)
		}))
		req := httptest.NewRequest(http.MethodGet, "/cover", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		png.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, large, rec.Body.String())
	})

	assert.True(t, m.Match("/api/books"))
	assert.False(t, m.Match("/images/cover.png"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	m := &implRateLimiterMiddleware{
		Log:            zap.NewNop(),
		Runtime:        NewRuntime("", "."),
		Prefixes:       []string{"/api"},
		Limit:          2,
		Interval:       time.Hour,
		ClientIDHeader: "X-Forwarded-For",
		buckets:        make(map[string]*rateBucket),
	}
	require.NoError(t, m.PostConstruct())
	defer m.Destroy()

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(client string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		if client != "" {
			req.Header.Set("X-Forwarded-For", client)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1, 192.168.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2"), "buckets are per client")
	assert.Equal(t, http.StatusNoContent, call(""), "missing client id is not limited")

	assert.True(t, m.Match("/api/books"))
	assert.False(t, m.Match("/health"))

	stats := map[string]string{}
	require.NoError(t, m.GetStats(func(name, value string) bool {
		stats[name] = value
		return true
	}))
	assert.Equal(t, "2", stats["clients"])

	require.NoError(t, m.Destroy())
	require.NoError(t, m.PostConstruct())
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"), "windows start over with a new context")
}

func TestAuthMiddleware(t *testing.T) {
	provider := AuthTokenProvider().(*implAuthTokenProvider)
	provider.Tokens = []string{"good-token", " "}
	require.NoError(t, provider.PostConstruct())

	m := &implAuthMiddleware{Prefixes: []string{"/api"}, Authenticator: provider}

	var seen AuthInfo
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = AuthFromContext(r.Context())
	}))

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good-token", status: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer bad-token", status: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer good-token", status: http.StatusOK},
		{name: "scheme is case insensitive", header: "bearer good-token", status: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}

	assert.Equal(t, hashToken("good-token"), seen.HashedToken)
	assert.NotContains(t, seen.Subject, "good-token")

	assert.True(t, m.Match("/api/books"))
	assert.False(t, m.Match("/health"))
	assert.False(t, (&implAuthMiddleware{}).Match("/api/books"), "no prefixes protect nothing")
}

type unavailableAuthenticator struct{}

func (unavailableAuthenticator) Authenticate(token string) (AuthInfo, error) {
	return AuthInfo{}, ErrServiceUnavailable
}

func TestAuthMiddlewareUnavailable(t *testing.T) {
	m := &implAuthMiddleware{Authenticator: unavailableAuthenticator{}}
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer any")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthTokenProviderReload(t *testing.T) {
	provider := AuthTokenProvider().(*implAuthTokenProvider)
	provider.Tokens = []string{"old-token"}
	require.NoError(t, provider.PostConstruct())

	_, err := provider.Authenticate("old-token")
	require.NoError(t, err)

	// same bean, next context start with the rotated token list
	provider.Tokens = []string{"new-token"}
	require.NoError(t, provider.PostConstruct())

	_, err = provider.Authenticate("old-token")
	assert.ErrorIs(t, err, ErrUnauthorized, "revoked token")
	_, err = provider.Authenticate("new-token")
	assert.NoError(t, err)
}

func TestAuthTokenProviderRejectsComma(t *testing.T) {
	provider := AuthTokenProvider().(*implAuthTokenProvider)
	provider.Tokens = []string{"a,b"}
	assert.Error(t, provider.PostConstruct())
}

func TestRequestIdMiddleware(t *testing.T) {
	m := RequestIdMiddleware(10)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIdFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", strings.Repeat("x", 200))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36, "oversized id is replaced")

	assert.Empty(t, RequestIdFromContext(context.Background()))
}

func TestRecoveryMiddleware(t *testing.T) {
	m := &implRecoveryMiddleware{Log: zap.NewNop()}
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":"error","error":"internal server error"}`, rec.Body.String())

	abort := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.Panics(t, func() {
		abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := NewMetrics()
	require.NoError(t, metrics.(*implMetrics).PostConstruct())

	m := &implMetricsMiddleware{Metrics: metrics}
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tea", nil))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "booksearch_http_requests_total" {
			for _, metric := range f.GetMetric() {
				labels := map[string]string{}
				for _, l := range metric.GetLabel() {
					labels[l.GetName()] = l.GetValue()
				}
				if labels["status"] == "418" && labels["route"] == "unmatched" && labels["method"] == http.MethodGet {
					found = true
					assert.Equal(t, 1.0, metric.GetCounter().GetValue())
				}
			}
		}
	}
	assert.True(t, found)
}

func TestRateLimiterWindow(t *testing.T) {
	m := &implRateLimiterMiddleware{Limit: 1, Interval: 10 * time.Second, buckets: make(map[string]*rateBucket)}
	start := time.Unix(1_700_000_000, 0)

	ok, _ := m.allow("a", start)
	assert.True(t, ok)

	ok, retry := m.allow("a", start.Add(4*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 6*time.Second, retry)

	ok, _ = m.allow("a", start.Add(10*time.Second))
	assert.True(t, ok, "new window")

	assert.Equal(t, 0, m.evictIdle(start.Add(30*time.Second)))
	assert.Equal(t, 1, m.evictIdle(start.Add(61*time.Second)))
	assert.Empty(t, m.buckets)
}
