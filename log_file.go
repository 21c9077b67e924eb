/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/example/booksearch/booksearchapi"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
)

type implLogFile struct {
	Filename   string `value:"logging.file.name,default="`
	MaxSize    int    `value:"logging.file.max-size,default=100"` // megabytes
	MaxBackups int    `value:"logging.file.max-backups,default=7"`
	MaxAge     int    `value:"logging.file.max-age,default=30"` // days
	Compress   bool   `value:"logging.file.compress,default=false"`

	logger *lumberjack.Logger
}

func LogFile() booksearchapi.LogFile {
	return &implLogFile{}
}

func (t *implLogFile) PostConstruct() error {
	if t.Filename != "" {
		t.logger = &lumberjack.Logger{
			Filename:   t.Filename,
			MaxSize:    t.MaxSize,
			MaxBackups: t.MaxBackups,
			MaxAge:     t.MaxAge,
			Compress:   t.Compress,
		}
	}
	return nil
}

func (t *implLogFile) Destroy() error {
	if t.logger != nil {
		return t.logger.Close()
	}
	return nil
}

func (t *implLogFile) Enabled() bool {
	return t.logger != nil
}

func (t *implLogFile) Writer() io.Writer {
	if t.logger == nil {
		return nil
	}
	return t.logger
}

func (t *implLogFile) Rotate() error {
	if t.logger == nil {
		return nil
	}
	return t.logger.Rotate()
}
