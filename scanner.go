/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/example/booksearch/booksearchapi"
	"go.arpabet.com/glue"
	"net/http"
)

type httpServerScanner struct {
	beanName string
	scan     []interface{}
}

/*
HttpServerScanner registers the http server factory under beanName together with the explicit list
of handlers and middlewares served by it.
*/
func HttpServerScanner(beanName string, scan ...interface{}) glue.Scanner {
	return &httpServerScanner{
		beanName: beanName,
		scan:     scan,
	}
}

func (t *httpServerScanner) ScannerBeans() []interface{} {
	beans := []interface{}{
		HttpServerFactory(t.beanName),
		&struct {
			// make them visible
			Servers     []booksearchapi.Server `inject:"optional"`
			HttpServers []*http.Server         `inject:""`
		}{},
	}
	return append(beans, t.scan...)
}
