/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.arpabet.com/glue"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	DefaultConfigFile = "application.yml"
	DefaultEnvFile    = ".env"
)

// DefaultProperties are the lowest precedence source, every key here can be overridden from the environment.
var DefaultProperties = map[string]string{
	"application.name":        "booksearch",
	"application.version":     "dev",
	"server.address":          "0.0.0.0",
	"server.port":             "8080",
	"server.options":          "handlers",
	"server.read-timeout":     "30s",
	"server.write-timeout":    "30s",
	"server.idle-timeout":     "1m",
	"server.shutdown-timeout": "10s",
	"logging.level":           "info",
	"logging.format":          "console",
	"logging.file.name":       "",
	"datasource.driver":       "",
	"datasource.dsn":          "",
	"tracing.otlp-endpoint":   "",
	"tracing.otlp-insecure":   "false",
	"auth.prefixes":           "",
	"auth.tokens":             "",
	"ratelimit.prefixes":      "",
	"ratelimit.header":        "X-Forwarded-For",
	"actuator.health.timeout": "2s",
	"gzip.threshold":          "1024",
}

/*
LoadProperties merges property sources, the highest precedence first:
command line overrides, environment variables, env file, application-<profile>.yml, application.yml, defaults.
*/
func LoadProperties(args *Arguments) (*glue.PropertySource, error) {

	props := make(map[string]string, len(DefaultProperties))
	for key, value := range DefaultProperties {
		props[key] = value
	}

	configFile, explicit := args.ConfigFile, args.ConfigFile != ""
	if !explicit {
		configFile = filepath.Join(args.HomeDir, DefaultConfigFile)
	}

	if err := loadYamlFile(configFile, explicit, props); err != nil {
		return nil, err
	}

	if args.Profile != "" {
		ext := filepath.Ext(configFile)
		profileFile := strings.TrimSuffix(configFile, ext) + "-" + args.Profile + ext
		if err := loadYamlFile(profileFile, false, props); err != nil {
			return nil, err
		}
	}

	envFile, explicit := args.EnvFile, args.EnvFile != ""
	if !explicit {
		envFile = filepath.Join(args.HomeDir, DefaultEnvFile)
	}
	fileEnv, err := readEnvFile(envFile, explicit)
	if err != nil {
		return nil, err
	}

	for key := range props {
		if value, ok := lookupEnv(key, fileEnv); ok {
			props[key] = value
		}
	}

	for key, value := range args.Properties {
		props[key] = value
	}

	m := make(map[string]interface{}, len(props))
	for key, value := range props {
		m[key] = expandPlaceholders(value, func(name string) string {
			if v, ok := props[name]; ok {
				return v
			}
			if v, ok := os.LookupEnv(name); ok {
				return v
			}
			return fileEnv[name]
		})
	}

	return &glue.PropertySource{Map: m}, nil
}

func loadYamlFile(path string, required bool, props map[string]string) error {

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Errorf("failed to read configuration file '%s', %v", path, err)
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(content, &tree); err != nil {
		return errors.Errorf("failed to parse configuration file '%s', %v", path, err)
	}

	flattenYaml("", tree, props)
	return nil
}

func flattenYaml(prefix string, value interface{}, props map[string]string) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, child := range v {
			flattenYaml(joinKey(prefix, key), child, props)
		}
	case map[interface{}]interface{}:
		for key, child := range v {
			flattenYaml(joinKey(prefix, fmt.Sprint(key)), child, props)
		}
	case []interface{}:
		list := make([]string, 0, len(v))
		for _, item := range v {
			list = append(list, fmt.Sprint(item))
		}
		props[prefix] = strings.Join(list, ";")
	case nil:
		props[prefix] = ""
	default:
		props[prefix] = fmt.Sprint(v)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// placeholderPattern matches ${name} only, a bare $ is kept as is.
var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandPlaceholders(value string, lookup func(name string) string) string {
	return placeholderPattern.ReplaceAllStringFunc(value, func(ref string) string {
		return lookup(ref[2 : len(ref)-1])
	})
}

/*
readEnvFile parses the env file without touching the process environment,
so every context start sees the current file content.
*/
func readEnvFile(path string, required bool) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil, nil
		}
		return nil, errors.Errorf("failed to read env file '%s', %v", path, err)
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Errorf("failed to load env file '%s', %v", path, err)
	}
	return env, nil
}

/*
EnvNames returns relaxed binding candidates of the property key:
server.read-timeout -> SERVER_READTIMEOUT, SERVER_READ_TIMEOUT
*/
func EnvNames(key string) []string {
	upper := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	compact := strings.ReplaceAll(upper, "-", "")
	underscored := strings.ReplaceAll(upper, "-", "_")
	if compact == underscored {
		return []string{compact}
	}
	return []string{compact, underscored}
}

// lookupEnv checks the real environment first, then the env file.
func lookupEnv(key string, fileEnv map[string]string) (string, bool) {
	names := EnvNames(key)
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok {
			return value, true
		}
	}
	for _, name := range names {
		if value, ok := fileEnv[name]; ok {
			return value, true
		}
	}
	return "", false
}

// PropertyKeys returns sorted keys of the property source.
func PropertyKeys(source *glue.PropertySource) []string {
	keys := make([]string, 0, len(source.Map))
	for key := range source.Map {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
