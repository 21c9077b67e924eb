/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseArguments(t *testing.T) {
	testCases := []struct {
		name        string
		args        []string
		home        string
		profile     string
		properties  map[string]string
		nonOptional []string
	}{
		{
			name:       "no arguments",
			args:       nil,
			home:       ".",
			properties: map[string]string{},
		},
		{
			name:       "runtime flags",
			args:       []string{"--home=/srv/app", "--profile", "prod"},
			home:       "/srv/app",
			profile:    "prod",
			properties: map[string]string{},
		},
		{
			name:       "property overrides",
			args:       []string{"--server.port=9090", "--logging.level=debug"},
			home:       ".",
			properties: map[string]string{"server.port": "9090", "logging.level": "debug"},
		},
		{
			name:       "bare property is true",
			args:       []string{"--tracing.otlp-insecure"},
			home:       ".",
			properties: map[string]string{"tracing.otlp-insecure": "true"},
		},
		{
			name:       "value keeps equals sign",
			args:       []string{"--datasource.dsn=host=db user=app"},
			home:       ".",
			properties: map[string]string{"datasource.dsn": "host=db user=app"},
		},
		{
			name:        "non option arguments",
			args:        []string{"first", "--server.port=1", "--", "--not.a.property=1"},
			home:        ".",
			properties:  map[string]string{"server.port": "1"},
			nonOptional: []string{"first", "--not.a.property=1"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := ParseArguments(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.home, a.HomeDir)
			assert.Equal(t, tc.profile, a.Profile)
			assert.Equal(t, tc.properties, a.Properties)
			if tc.nonOptional == nil {
				assert.Empty(t, a.NonOptionArgs)
			} else {
				assert.Equal(t, tc.nonOptional, a.NonOptionArgs)
			}
			assert.Equal(t, len(tc.args), len(a.SourceArgs))
		})
	}
}

func TestParseArgumentsErrors(t *testing.T) {
	_, err := ParseArguments([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)

	_, err = ParseArguments([]string{"--=value"})
	assert.Error(t, err)

	_, err = ParseArguments([]string{"-x"})
	assert.Error(t, err)

	_, err = ParseArguments([]string{"--profile"})
	assert.Error(t, err, "flag needs an argument")
}

func TestArgumentsStats(t *testing.T) {
	a, err := ParseArguments([]string{"--profile=qa", "--b=1", "--a=2"})
	require.NoError(t, err)

	stats := map[string]string{}
	require.NoError(t, a.GetStats(func(name, value string) bool {
		stats[name] = value
		return true
	}))

	assert.Equal(t, "qa", stats["profile"])
	assert.Equal(t, "a;b", stats["overrides"])
	assert.Equal(t, "0", stats["args"])
}
