/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func TestRuntimeShutdown(t *testing.T) {
	rt := NewRuntime("prod", ".")
	require.NoError(t, rt.PostConstruct())

	assert.True(t, filepath.IsAbs(rt.HomeDir()))
	assert.Equal(t, "prod", rt.Profile())
	assert.True(t, rt.Active())
	assert.NoError(t, rt.Err())

	ctx, cancel := context.WithCancel(rt)
	defer cancel()

	rt.Shutdown(true)
	rt.Shutdown(false)

	<-ctx.Done()
	assert.False(t, rt.Active())
	assert.True(t, rt.Restarting(), "first shutdown wins")
	assert.ErrorIs(t, rt.Err(), context.Canceled)

	_, ok := rt.Deadline()
	assert.False(t, ok)
}

func TestRuntimeStats(t *testing.T) {
	rt := NewRuntime("", ".")
	require.NoError(t, rt.PostConstruct())

	var names []string
	require.NoError(t, rt.GetStats(func(name, value string) bool {
		names = append(names, name)
		return len(names) < 2
	}))
	assert.Equal(t, []string{"executable", "home"}, names, "callback stops the enumeration")
}
