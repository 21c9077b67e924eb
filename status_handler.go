/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/example/booksearch/booksearchapi"
	"go.uber.org/zap"
	"net/http"
)

type implStatusHandler struct {
	Log        *zap.Logger               `inject:""`
	Components []booksearchapi.Component `inject:"optional"`
}

// StatusHandler reports the stats of every registered component.
func StatusHandler() booksearchapi.MethodsHandler {
	return &implStatusHandler{}
}

func (t *implStatusHandler) Pattern() string {
	return "/status"
}

func (t *implStatusHandler) Methods() []string {
	return getOnly
}

func (t *implStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, t.Collect())
}

// Collect returns stats by component name, a failing component reports its error under "error".
func (t *implStatusHandler) Collect() map[string]map[string]string {
	out := make(map[string]map[string]string, len(t.Components))
	for _, c := range t.Components {
		stats := make(map[string]string)
		err := c.GetStats(func(name, value string) bool {
			stats[name] = value
			return true
		})
		if err != nil {
			t.Log.Warn("ComponentStats", zap.String("component", c.BeanName()), zap.Error(err))
			stats["error"] = err.Error()
		}
		out[c.BeanName()] = stats
	}
	return out
}
