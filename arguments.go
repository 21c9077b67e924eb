/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"fmt"
	"github.com/spf13/pflag"
	"os"
	"sort"
	"strconv"
	"strings"
)

/*
Arguments holds the parsed command line: runtime flags, property overrides in --key=value form and the rest.
*/
type Arguments struct {
	HomeDir    string
	Profile    string
	ConfigFile string
	EnvFile    string

	// --key=value overrides, forwarded unmodified as property values
	Properties map[string]string

	NonOptionArgs []string
	SourceArgs    []string
}

func newFlagSet(a *Arguments) *pflag.FlagSet {
	fs := pflag.NewFlagSet("booksearch", pflag.ContinueOnError)
	fs.StringVar(&a.HomeDir, "home", ".", "home directory of application")
	fs.StringVar(&a.Profile, "profile", "", "runtime profile, selects application-<profile>.yml")
	fs.StringVar(&a.ConfigFile, "config", "", "path to the configuration file, default is application.yml in home directory")
	fs.StringVar(&a.EnvFile, "env-file", "", "path to the env file, default is .env in home directory")
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: booksearch [flags] [--property.name=value ...]\n\nFlags:\n%s", fs.FlagUsages())
	}
	return fs
}

/*
ParseArguments separates runtime flags from property overrides.
Any --key=value whose key is not a runtime flag becomes a property, a bare --key sets it to true.
Returns pflag.ErrHelp on --help.
*/
func ParseArguments(args []string) (*Arguments, error) {

	a := &Arguments{
		Properties: make(map[string]string),
		SourceArgs: append([]string(nil), args...),
	}

	fs := newFlagSet(a)

	var flagArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}

		if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
			flagArgs = append(flagArgs, arg)
			continue
		}

		name, value, hasValue := strings.Cut(arg[2:], "=")
		if name == "help" || fs.Lookup(name) != nil {
			flagArgs = append(flagArgs, arg)
			continue
		}

		if name == "" {
			return nil, fmt.Errorf("invalid property argument '%s'", arg)
		}
		if !hasValue {
			value = strconv.FormatBool(true)
		}
		a.Properties[name] = value
	}

	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}

	a.NonOptionArgs = fs.Args()
	return a, nil
}

func (t *Arguments) BeanName() string {
	return "arguments"
}

func (t *Arguments) GetStats(cb func(name, value string) bool) error {
	if !cb("home", t.HomeDir) {
		return nil
	}
	if !cb("profile", t.Profile) {
		return nil
	}
	var keys []string
	for key := range t.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if !cb("overrides", strings.Join(keys, ";")) {
		return nil
	}
	cb("args", strconv.Itoa(len(t.NonOptionArgs)))
	return nil
}
