/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// unsetEnv removes the variable for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadPropertiesDefaults(t *testing.T) {
	unsetEnv(t, "SERVER_PORT")

	source, err := LoadProperties(&Arguments{HomeDir: t.TempDir()})
	require.NoError(t, err)

	for key, value := range DefaultProperties {
		assert.Equal(t, value, source.Map[key], key)
	}
}

func TestLoadPropertiesPrecedence(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "LOGGING_LEVEL", "APPLICATION_NAME", "APPLICATION_VERSION", "SERVER_ADDRESS"} {
		unsetEnv(t, key)
	}

	home := t.TempDir()
	writeFile(t, home, "application.yml", `
application:
  name: yaml
  version: yaml-version
server:
  address: 127.0.0.2
  port: 1000
logging:
  level: warn
`)
	writeFile(t, home, "application-qa.yml", `
application:
  name: profile
server:
  port: 2000
logging:
  level: error
`)
	writeFile(t, home, ".env", "LOGGING_LEVEL=debug\nSERVER_PORT=3000\n")
	t.Setenv("APPLICATION_NAME", "env")

	args, err := ParseArguments([]string{"--home=" + home, "--profile=qa", "--server.port=5000"})
	require.NoError(t, err)

	source, err := LoadProperties(args)
	require.NoError(t, err)

	assert.Equal(t, "5000", source.Map["server.port"], "command line wins")
	assert.Equal(t, "env", source.Map["application.name"], "environment over profile")
	assert.Equal(t, "debug", source.Map["logging.level"], "env file over profile")
	assert.Equal(t, "yaml-version", source.Map["application.version"], "yaml over defaults")
	assert.Equal(t, "127.0.0.2", source.Map["server.address"])
	assert.Equal(t, "30s", source.Map["server.read-timeout"], "defaults")
}

func TestLoadPropertiesRelaxedEnv(t *testing.T) {
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("SERVER_READTIMEOUT", "5s")

	source, err := LoadProperties(&Arguments{HomeDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "3s", source.Map["server.shutdown-timeout"])
	assert.Equal(t, "5s", source.Map["server.read-timeout"])
}

func TestLoadPropertiesYamlValues(t *testing.T) {
	unsetEnv(t, "APPLICATION_NAME")
	unsetEnv(t, "APPLICATION_VERSION")
	t.Setenv("BOOKSEARCH_TEST_SECRET", "s3cret")

	home := t.TempDir()
	config := writeFile(t, home, "custom.yml", `
application:
  name: books
  version: "1.2"
  title: "${application.name} ${application.version}"
auth:
  tokens:
    - first
    - ${BOOKSEARCH_TEST_SECRET}
feature:
  empty:
`)

	source, err := LoadProperties(&Arguments{HomeDir: home, ConfigFile: config})
	require.NoError(t, err)

	assert.Equal(t, "books 1.2", source.Map["application.title"])
	assert.Equal(t, "first;s3cret", source.Map["auth.tokens"])
	assert.Equal(t, "", source.Map["feature.empty"])
}

func TestLoadPropertiesEnvFileReload(t *testing.T) {
	unsetEnv(t, "SERVER_PORT")
	unsetEnv(t, "LOGGING_LEVEL")
	t.Setenv("LOGGING_FORMAT", "json")

	home := t.TempDir()
	writeFile(t, home, ".env", "SERVER_PORT=3000\nLOGGING_FORMAT=console\n")

	source, err := LoadProperties(&Arguments{HomeDir: home})
	require.NoError(t, err)
	assert.Equal(t, "3000", source.Map["server.port"])
	assert.Equal(t, "json", source.Map["logging.format"], "environment over env file")

	_, leaked := os.LookupEnv("SERVER_PORT")
	assert.False(t, leaked, "env file does not modify the process environment")

	writeFile(t, home, ".env", "SERVER_PORT=4000\nLOGGING_LEVEL=debug\n")

	source, err = LoadProperties(&Arguments{HomeDir: home})
	require.NoError(t, err)
	assert.Equal(t, "4000", source.Map["server.port"], "edited env file applies on the next load")
	assert.Equal(t, "debug", source.Map["logging.level"])
}

func TestLoadPropertiesKeepsBareDollar(t *testing.T) {
	unsetEnv(t, "DATASOURCE_DSN")
	t.Setenv("word", "mangled")

	home := t.TempDir()
	writeFile(t, home, ".env", "DB_PASSWORD=from-file\n")
	writeFile(t, home, "application.yml", `
datasource:
  dsn: "postgres://u:pa$word@db/x"
auth:
  tokens: "${DB_PASSWORD}"
`)

	source, err := LoadProperties(&Arguments{HomeDir: home})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:pa$word@db/x", source.Map["datasource.dsn"])
	assert.Equal(t, "from-file", source.Map["auth.tokens"], "placeholders resolve from the env file")
}

func TestExpandPlaceholders(t *testing.T) {
	lookup := func(name string) string { return "<" + name + ">" }
	assert.Equal(t, "a <b> c", expandPlaceholders("a ${b} c", lookup))
	assert.Equal(t, "$b $ ${", expandPlaceholders("$b $ ${", lookup))
	assert.Equal(t, "<x.y><z>", expandPlaceholders("${x.y}${z}", lookup))
}

func TestLoadPropertiesErrors(t *testing.T) {
	home := t.TempDir()

	_, err := LoadProperties(&Arguments{HomeDir: home, ConfigFile: filepath.Join(home, "missing.yml")})
	assert.Error(t, err, "explicit config file must exist")

	_, err = LoadProperties(&Arguments{HomeDir: home, EnvFile: filepath.Join(home, "missing.env")})
	assert.Error(t, err, "explicit env file must exist")

	writeFile(t, home, "application.yml", "server: [unclosed")
	_, err = LoadProperties(&Arguments{HomeDir: home})
	assert.Error(t, err)

	_, err = LoadProperties(&Arguments{HomeDir: t.TempDir(), Profile: "absent"})
	assert.NoError(t, err, "profile file is optional")
}

func TestEnvNames(t *testing.T) {
	assert.Equal(t, []string{"SERVER_PORT"}, EnvNames("server.port"))
	assert.Equal(t, []string{"SERVER_READTIMEOUT", "SERVER_READ_TIMEOUT"}, EnvNames("server.read-timeout"))
}

func TestPropertyKeysSorted(t *testing.T) {
	source, err := LoadProperties(&Arguments{HomeDir: t.TempDir()})
	require.NoError(t, err)

	keys := PropertyKeys(source)
	require.NotEmpty(t, keys)
	assert.IsIncreasing(t, keys)
}
