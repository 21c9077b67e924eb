/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearchapi

import (
	"go.uber.org/zap"
	"io"
	"reflect"
)

var (
	ZapLogClass  = reflect.TypeOf((*zap.Logger)(nil))
	LogFileClass = reflect.TypeOf((*LogFile)(nil)).Elem()
)

/*
LogFile is the optional rotating file sink of the application logger.
*/
type LogFile interface {

	/*
		Indicator if file logging is configured, otherwise the logger writes only to stdout
	*/
	Enabled() bool

	/*
		Gets the file writer, nil if not enabled
	*/
	Writer() io.Writer

	/*
		Closes the current file and opens a new one, used on SIGHUP
	*/
	Rotate() error
}
