/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package main

import (
	"github.com/example/booksearch"
	"github.com/example/booksearch/internal/app"
	"go.arpabet.com/cligo"
)

func main() {
	cligo.Main(cligo.Beans(
		booksearch.RunCommand(app.Beans()...),
		booksearch.HealthCommand(),
	))
}
