/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"github.com/example/booksearch/booksearchapi"
	"github.com/pkg/errors"
	"go.arpabet.com/glue"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"reflect"
	"strings"
)

type implZapLogFactory struct {
	Properties glue.Properties       `inject:""`
	LogFile    booksearchapi.LogFile `inject:"optional"`
}

func ZapLogFactory() glue.FactoryBean {
	return &implZapLogFactory{}
}

/*
Object builds the logger from logging.level and logging.format (console or json).
When the log file is enabled the file receives json entries in addition to stdout.
*/
func (t *implZapLogFactory) Object() (object interface{}, err error) {
	defer PanicToError(&err)

	level, err := zapcore.ParseLevel(t.Properties.GetString("logging.level", "info"))
	if err != nil {
		return nil, errors.Errorf("invalid property 'logging.level', %v", err)
	}

	var encoder zapcore.Encoder
	switch format := strings.ToLower(t.Properties.GetString("logging.format", "console")); format {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "console":
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, errors.Errorf("invalid property 'logging.format' value '%s', expected console or json", format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)

	if t.LogFile != nil && t.LogFile.Enabled() {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(t.LogFile.Writer()),
			level)
		core = zapcore.NewTee(core, fileCore)
	}

	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))), nil
}

func (t *implZapLogFactory) ObjectType() reflect.Type { return booksearchapi.ZapLogClass }

func (t *implZapLogFactory) ObjectName() string {
	return "zap_logger"
}

func (t *implZapLogFactory) Singleton() bool {
	return true
}
