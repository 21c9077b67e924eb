/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package main

import (
	"github.com/example/booksearch"
	"github.com/example/booksearch/internal/app"
	"os"
)

func main() {
	booksearch.Main(os.Args[1:], app.Beans()...)
}
