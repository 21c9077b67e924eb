/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"github.com/example/booksearch/booksearchapi"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

type implRuntime struct {
	profile    string
	runtimeErr atomic.Error

	executable    string
	executableDir string
	homeDir       string
	startedAt     time.Time

	shuttingDown atomic.Bool
	shutdownCh   chan struct{} // sends only close channel event
	restarting   atomic.Bool
	shutdownOnce sync.Once
}

func NewRuntime(profile string, homeDir string) booksearchapi.Runtime {
	t := &implRuntime{
		profile:    profile,
		homeDir:    homeDir,
		shutdownCh: make(chan struct{}),
		startedAt:  time.Now(),
	}
	t.runtimeErr.Store(nil)
	return t
}

func (t *implRuntime) BeanName() string {
	return "runtime"
}

func (t *implRuntime) GetStats(cb func(name, value string) bool) error {
	return emitStats(cb,
		"executable", t.executable,
		"home", t.homeDir,
		"profile", t.profile,
		"active", strconv.FormatBool(t.Active()),
		"uptime", time.Since(t.startedAt).Truncate(time.Second).String(),
	)
}

// PostConstruct implements glue.InitializingBean
func (t *implRuntime) PostConstruct() (err error) {

	defer PanicToError(&err)

	absHomeDir, err := filepath.Abs(t.homeDir)
	if err != nil {
		return errors.Errorf("failed to get abs home directory: %s, %v", t.homeDir, err)
	}
	t.homeDir = absHomeDir

	t.executable = os.Args[0]
	t.executableDir, err = filepath.Abs(filepath.Dir(t.executable))
	if err != nil {
		return err
	}
	t.executable = filepath.Base(t.executable)
	return nil
}

func (t *implRuntime) Profile() string {
	return t.profile
}

func (t *implRuntime) Executable() string {
	return t.executable
}

func (t *implRuntime) HomeDir() string {
	return t.homeDir
}

func (t *implRuntime) Active() bool {
	return !t.shuttingDown.Load()
}

func (t *implRuntime) Shutdown(restart bool) {
	t.shutdownOnce.Do(func() {
		t.restarting.Store(restart)
		t.shuttingDown.Store(true)
		t.runtimeErr.Store(context.Canceled)
		close(t.shutdownCh)
	})
}

func (t *implRuntime) Restarting() bool {
	return t.restarting.Load()
}

func (t *implRuntime) Deadline() (deadline time.Time, ok bool) {
	return time.Time{}, false
}

func (t *implRuntime) Value(key interface{}) interface{} {
	return nil
}

func (t *implRuntime) Done() <-chan struct{} {
	return t.shutdownCh
}

func (t *implRuntime) Err() error {
	return t.runtimeErr.Load()
}
