/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearchapi

import (
	"context"
	"reflect"
)

const (
	StatusUp      = "UP"
	StatusDown    = "DOWN"
	StatusUnknown = "UNKNOWN"
)

type Health struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details,omitempty"`
}

var HealthIndicatorClass = reflect.TypeOf((*HealthIndicator)(nil)).Elem()

/*
HealthIndicator contributes one named entry to the health endpoint.
*/
type HealthIndicator interface {
	HealthName() string

	Health(ctx context.Context) Health
}
