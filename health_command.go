/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"github.com/pkg/errors"
	"go.arpabet.com/cligo"
	"go.arpabet.com/glue"
	"io"
	"net/http"
	"os"
	"time"
)

type implHealthCommand struct {
	Parent  cligo.CliGroup `cli:"group=cli"`
	URL     string         `cli:"option=url,default=http://127.0.0.1:8080/health,help=health endpoint of the running instance"`
	Timeout string         `cli:"option=timeout,default=5s,help=request timeout"`
}

// HealthCommand probes the health endpoint of a running instance.
func HealthCommand() cligo.CliCommand {
	return &implHealthCommand{}
}

func (cmd *implHealthCommand) Command() string {
	return "health"
}

func (cmd *implHealthCommand) Help() (string, string) {
	return "Checks health of a running server.",
		`This command requests the health endpoint and prints the response.
It fails when the server does not answer with status 200.`
}

func (cmd *implHealthCommand) Run(ctx glue.Context) error {
	timeout, err := time.ParseDuration(cmd.Timeout)
	if err != nil {
		return errors.Errorf("invalid timeout '%s', %v", cmd.Timeout, err)
	}
	return CheckHealth(context.Background(), cmd.URL, timeout, os.Stdout)
}

/*
CheckHealth requests url and copies the response body to out.
Returns an error when the request fails or the status is not 200.
*/
func CheckHealth(ctx context.Context, url string, timeout time.Duration, out io.Writer) error {

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Errorf("invalid health url '%s', %v", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Errorf("health request to '%s' failed, %v", url, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(out, io.LimitReader(resp.Body, 1<<20)); err != nil {
		return errors.Errorf("failed to read health response, %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("health check of '%s' failed with status %d", url, resp.StatusCode)
	}
	return nil
}
