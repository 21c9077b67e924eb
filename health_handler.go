/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"github.com/example/booksearch/booksearchapi"
	"net/http"
	"time"
)

type implHealthHandler struct {
	Runtime    booksearchapi.Runtime           `inject:""`
	Indicators []booksearchapi.HealthIndicator `inject:"optional"`

	Timeout time.Duration `value:"actuator.health.timeout,default=2s"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status     string                          `json:"status"`
	Components map[string]booksearchapi.Health `json:"components,omitempty"`
}

// HealthHandler aggregates all health indicators, 200 when UP, otherwise 503.
func HealthHandler() booksearchapi.MethodsHandler {
	return &implHealthHandler{}
}

func (t *implHealthHandler) Pattern() string {
	return "/health"
}

func (t *implHealthHandler) Methods() []string {
	return getOnly
}

func (t *implHealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := t.Check(r.Context())
	status := http.StatusOK
	if resp.Status != booksearchapi.StatusUp {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

type namedHealth struct {
	name   string
	health booksearchapi.Health
}

/*
Check asks every indicator in parallel. An indicator that does not answer within the timeout is DOWN.
The application is DOWN while shutting down.
*/
func (t *implHealthHandler) Check(ctx context.Context) HealthResponse {

	resp := HealthResponse{Status: booksearchapi.StatusUp}

	if t.Runtime != nil && !t.Runtime.Active() {
		resp.Status = booksearchapi.StatusDown
	}

	if len(t.Indicators) == 0 {
		return resp
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan namedHealth, len(t.Indicators))
	for _, indicator := range t.Indicators {
		go func(indicator booksearchapi.HealthIndicator) {
			resultCh <- namedHealth{name: indicator.HealthName(), health: indicator.Health(ctx)}
		}(indicator)
	}

	resp.Components = make(map[string]booksearchapi.Health, len(t.Indicators))
	for range t.Indicators {
		select {
		case r := <-resultCh:
			resp.Components[r.name] = r.health
		case <-ctx.Done():
		}
	}

	for _, indicator := range t.Indicators {
		if _, ok := resp.Components[indicator.HealthName()]; !ok {
			resp.Components[indicator.HealthName()] = booksearchapi.Health{
				Status:  booksearchapi.StatusDown,
				Details: map[string]string{"error": "timeout"},
			}
		}
	}

	for _, h := range resp.Components {
		if h.Status == booksearchapi.StatusDown {
			resp.Status = booksearchapi.StatusDown
		}
	}

	return resp
}
