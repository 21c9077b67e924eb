/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"github.com/example/booksearch/booksearchapi"
	"go.uber.org/zap"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type implRateLimiterMiddleware struct {
	beanOrder int

	Log *zap.Logger `inject:""`

	Runtime booksearchapi.Runtime `inject:""`

	// Prefixes to apply rate limiting, empty disables the limiter
	Prefixes []string `value:"ratelimit.prefixes,default="`

	// Maximum requests per interval
	Limit int `value:"ratelimit.limit,default=10"`

	// Fixed window length
	Interval time.Duration `value:"ratelimit.interval,default=1s"`

	ClientIDHeader string `value:"ratelimit.header,default=X-Forwarded-For"`

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	buckets map[string]*rateBucket
}

type rateBucket struct {
	count     int
	lastReset time.Time
}

// RateLimiterMiddleware limits requests per client id in a fixed window.
func RateLimiterMiddleware(beanOrder int) booksearchapi.HttpMiddleware {
	return &implRateLimiterMiddleware{
		beanOrder: beanOrder,
		buckets:   make(map[string]*rateBucket),
	}
}

func (t *implRateLimiterMiddleware) PostConstruct() error {
	if t.Interval <= 0 {
		t.Interval = time.Second
	}
	t.mu.Lock()
	t.buckets = make(map[string]*rateBucket)
	t.mu.Unlock()
	t.ctx, t.cancel = context.WithCancel(t.Runtime)
	t.wg.Add(1)
	go t.cleanerLoop()
	return nil
}

func (t *implRateLimiterMiddleware) Destroy() error {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	return nil
}

func (t *implRateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		clientID, ok := t.clientID(r)
		if !ok {
			// the limiter sits behind a proxy, RemoteAddr is the proxy itself
			t.Log.Warn("RateLimiterMissingClientId",
				zap.String("header", t.ClientIDHeader),
				zap.String("remoteAddr", r.RemoteAddr),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("requestId", RequestIdFromContext(r.Context())))
			next.ServeHTTP(w, r)
			return
		}

		if allowed, retryAfter := t.allow(clientID, time.Now()); !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second)/time.Second)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientID is the first address of the client id header.
func (t *implRateLimiterMiddleware) clientID(r *http.Request) (string, bool) {
	value := r.Header.Get(t.ClientIDHeader)
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// allow counts the request in the current window of the client, returns the time left in the window when rejected.
func (t *implRateLimiterMiddleware) allow(clientID string, now time.Time) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket, ok := t.buckets[clientID]
	if !ok || now.Sub(bucket.lastReset) >= t.Interval {
		bucket = &rateBucket{lastReset: now}
		t.buckets[clientID] = bucket
	}

	if bucket.count >= t.Limit {
		retryAfter := t.Interval - now.Sub(bucket.lastReset)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return false, retryAfter
	}

	bucket.count++
	return true, 0
}

func (t *implRateLimiterMiddleware) BeanOrder() int {
	return t.beanOrder
}

func (t *implRateLimiterMiddleware) Match(pattern string) bool {
	return matchPrefixes(t.Prefixes, pattern)
}

func (t *implRateLimiterMiddleware) BeanName() string {
	return "ratelimit"
}

func (t *implRateLimiterMiddleware) GetStats(cb func(name, value string) bool) error {
	t.mu.Lock()
	clients := len(t.buckets)
	t.mu.Unlock()
	return emitStats(cb,
		"clients", strconv.Itoa(clients),
		"limit", strconv.Itoa(t.Limit),
		"interval", t.Interval.String(),
	)
}

// cleanerLoop drops idle buckets until the runtime shuts down or the bean is destroyed.
func (t *implRateLimiterMiddleware) cleanerLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.Interval * 10)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case now := <-ticker.C:
			t.evictIdle(now)
		}
	}
}

func (t *implRateLimiterMiddleware) evictIdle(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for id, b := range t.buckets {
		if now.Sub(b.lastReset) > t.Interval*5 {
			delete(t.buckets, id)
			evicted++
		}
	}
	return evicted
}
