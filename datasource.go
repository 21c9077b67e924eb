/*
 * Copyright (c) 2025 Karagatan LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package booksearch

import (
	"context"
	"github.com/example/booksearch/booksearchapi"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var DataSourceClass = reflect.TypeOf((*DataSource)(nil)).Elem()

/*
DataSource is the optional connection pool of the application.
It is disabled when datasource.driver is empty.
*/
type DataSource interface {
	booksearchapi.HealthIndicator
	booksearchapi.Component

	Enabled() bool

	// DB returns nil if the data source is disabled.
	DB() *gorm.DB
}

type implDataSource struct {
	Log *zap.Logger `inject:""`

	Driver          string        `value:"datasource.driver,default="`
	DSN             string        `value:"datasource.dsn,default="`
	MaxOpenConns    int           `value:"datasource.max-open-conns,default=10"`
	MaxIdleConns    int           `value:"datasource.max-idle-conns,default=5"`
	ConnMaxLifetime time.Duration `value:"datasource.conn-max-lifetime,default=30m"`
	PingOnStart     bool          `value:"datasource.ping-on-start,default=true"`
	LogLevel        string        `value:"datasource.log-level,default=warn"`

	// preset by tests, otherwise every start opens Driver and DSN again
	preset gorm.Dialector
	db     *gorm.DB
}

func NewDataSource() DataSource {
	return &implDataSource{}
}

func openDialector(driver, dsn string) (gorm.Dialector, error) {
	if dsn == "" {
		return nil, errors.Errorf("property 'datasource.dsn' is required for driver '%s'", driver)
	}
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(dsn), nil
	default:
		return nil, errors.Errorf("unsupported datasource driver '%s', expected postgres, mysql or sqlite", driver)
	}
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}

func (t *implDataSource) PostConstruct() (err error) {

	t.db = nil

	dialector := t.preset
	if dialector == nil {
		if t.Driver == "" {
			return nil
		}
		if dialector, err = openDialector(t.Driver, t.DSN); err != nil {
			return err
		}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableAutomaticPing: true,
		Logger: gormlogger.New(zap.NewStdLog(t.Log), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel(t.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return errors.Errorf("failed to open datasource '%s', %v", t.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(t.MaxOpenConns)
	sqlDB.SetMaxIdleConns(t.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(t.ConnMaxLifetime)

	if t.PingOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return errors.Errorf("datasource '%s' is not reachable, %v", t.Driver, err)
		}
	}

	t.db = db
	t.Log.Info("DataSource", zap.String("driver", t.Driver), zap.Int("maxOpenConns", t.MaxOpenConns))
	return nil
}

func (t *implDataSource) Destroy() error {
	if t.db == nil {
		return nil
	}
	db := t.db
	t.db = nil
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (t *implDataSource) Enabled() bool {
	return t.db != nil
}

func (t *implDataSource) DB() *gorm.DB {
	return t.db
}

func (t *implDataSource) HealthName() string {
	return "db"
}

func (t *implDataSource) Health(ctx context.Context) booksearchapi.Health {
	if t.db == nil {
		return booksearchapi.Health{Status: booksearchapi.StatusUp, Details: map[string]string{"enabled": "false"}}
	}
	sqlDB, err := t.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return booksearchapi.Health{
			Status:  booksearchapi.StatusDown,
			Details: map[string]string{"driver": t.Driver, "error": err.Error()},
		}
	}
	return booksearchapi.Health{Status: booksearchapi.StatusUp, Details: map[string]string{"driver": t.Driver}}
}

func (t *implDataSource) BeanName() string {
	return "datasource"
}

func (t *implDataSource) GetStats(cb func(name, value string) bool) error {
	if t.db == nil {
		return emitStats(cb, "enabled", "false")
	}
	sqlDB, err := t.db.DB()
	if err != nil {
		return err
	}
	s := sqlDB.Stats()
	return emitStats(cb,
		"enabled", "true",
		"driver", t.Driver,
		"open", strconv.Itoa(s.OpenConnections),
		"inUse", strconv.Itoa(s.InUse),
		"idle", strconv.Itoa(s.Idle),
		"waitCount", strconv.FormatInt(s.WaitCount, 10),
	)
}
