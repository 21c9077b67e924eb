/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"fmt"
	"github.com/example/booksearch/booksearchapi"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.arpabet.com/glue"
	"go.uber.org/zap"
	"os"
)

const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitInvalidUsage = 2
)

/*
Main runs the application with the command line arguments and terminates the process with the exit status.
*/
func Main(args []string, scan ...interface{}) {
	os.Exit(Run(args, scan...))
}

/*
Run parses arguments, builds the application context from the scan list and blocks until all servers stop.
Returns the process exit status.
*/
func Run(args []string, scan ...interface{}) int {

	arguments, err := ParseArguments(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidUsage
	}

	if err := runApplication(nil, arguments, scan); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}

	return ExitOK
}

/*
runApplication builds a fresh context for every run, so SIGHUP restart re-reads configuration.
If parent is nil the context is a root context, otherwise it extends the parent.
*/
func runApplication(parent glue.Context, arguments *Arguments, scan []interface{}) error {

	for {

		properties, err := LoadProperties(arguments)
		if err != nil {
			return err
		}

		runtime := NewRuntime(arguments.Profile, arguments.HomeDir)

		beans := []interface{}{
			properties,
			arguments,
			runtime,
			LogFile(),
		}
		if parent == nil || len(parent.Bean(booksearchapi.ZapLogClass, glue.DefaultLevel)) == 0 {
			beans = append(beans, ZapLogFactory())
		}
		beans = append(beans, scan...)

		var ctx glue.Context
		if parent == nil {
			ctx, err = glue.New(beans...)
		} else {
			ctx, err = parent.Extend(beans...)
		}
		if err != nil {
			return errors.Errorf("failed to initialize application context, %v", err)
		}

		log := contextLogger(ctx)

		runErr := runServers(runtime, ctx, log)
		if runErr != nil {
			log.Error("RunServers", zap.Bool("restarting", runtime.Restarting()), zap.Error(runErr))
		} else {
			log.Info("RunServers", zap.Bool("restarting", runtime.Restarting()))
		}

		closeErr := ctx.Close()
		if closeErr != nil {
			log.Error("ContextClose", zap.Error(closeErr))
		}

		if runErr == nil && runtime.Restarting() {
			continue
		}

		return multierror.Append(runErr, closeErr).ErrorOrNil()
	}

}

func contextLogger(ctx glue.Context) *zap.Logger {
	list := ctx.Bean(booksearchapi.ZapLogClass, glue.DefaultLevel)
	if len(list) > 0 {
		if logger, ok := list[0].Object().(*zap.Logger); ok {
			return logger
		}
	}
	return zap.NewNop()
}
