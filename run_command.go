/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"go.arpabet.com/cligo"
	"go.arpabet.com/glue"
	"strings"
)

type implRunCommand struct {
	Parent     cligo.CliGroup `cli:"group=cli"`
	HomeDir    string         `cli:"option=home,default=.,help=home directory of application"`
	Profile    string         `cli:"option=profile,default=,help=runtime profile, selects application-<profile>.yml"`
	ConfigFile string         `cli:"option=config,default=,help=path to the configuration file"`
	EnvFile    string         `cli:"option=env-file,default=,help=path to the env file"`
	Set        string         `cli:"option=set,default=,help=property overrides as key=value separated by semicolon"`
	beans      []interface{}
}

// RunCommand runs the application in the command scope context of the operator tool.
func RunCommand(scan ...interface{}) cligo.CliCommand {
	return &implRunCommand{beans: scan}
}

func (cmd *implRunCommand) Command() string {
	return "run"
}

func (cmd *implRunCommand) Help() (string, string) {
	return "Runs the server.",
		`This command runs the server in foreground until it receives SIGINT or SIGTERM.
SIGHUP rotates the log file, or restarts the server if file logging is not configured.`
}

func (cmd *implRunCommand) Arguments() *Arguments {
	a := &Arguments{
		HomeDir:    cmd.HomeDir,
		Profile:    cmd.Profile,
		ConfigFile: cmd.ConfigFile,
		EnvFile:    cmd.EnvFile,
		Properties: make(map[string]string),
	}
	for _, pair := range strings.Split(cmd.Set, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && key != "" {
			a.Properties[key] = value
		}
	}
	if a.HomeDir == "" {
		a.HomeDir = "."
	}
	return a
}

func (cmd *implRunCommand) Run(ctx glue.Context) error {
	return runApplication(ctx, cmd.Arguments(), cmd.beans)
}
