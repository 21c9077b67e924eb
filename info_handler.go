/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/example/booksearch/booksearchapi"
	"net/http"
	"runtime"
	"runtime/debug"
)

type implInfoHandler struct {
	Runtime booksearchapi.Runtime `inject:""`

	Name    string `value:"application.name,default=booksearch"`
	Version string `value:"application.version,default=dev"`

	info map[string]string
}

func InfoHandler() booksearchapi.MethodsHandler {
	return &implInfoHandler{}
}

func (t *implInfoHandler) PostConstruct() error {
	t.info = map[string]string{
		"name":    t.Name,
		"version": t.Version,
		"profile": t.Runtime.Profile(),
		"go":      runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				t.info["revision"] = s.Value
			case "vcs.time":
				t.info["buildTime"] = s.Value
			}
		}
	}
	return nil
}

func (t *implInfoHandler) Pattern() string {
	return "/info"
}

func (t *implInfoHandler) Methods() []string {
	return getOnly
}

func (t *implInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, t.info)
}
