package database

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/helloworld/todo-service/internal/config"
	"github.com/helloworld/todo-service/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQL opens the relational database selected by cfg.Driver (postgres or
// sqlite), applies pool settings and verifies the connection.
func OpenSQL(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn, err := PostgresDSN(cfg.URL, cfg.SSLMode)
		if err != nil {
			return nil, err
		}
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		if dir := sqliteDir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.PoolRecycle > 0 {
		sqlDB.SetConnMaxLifetime(cfg.PoolRecycle)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.Driver == config.DriverSQLite {
		// one writer at a time; avoids SQLITE_BUSY between pooled connections
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// PostgresDSN normalizes a postgres connection string and makes sure it
// carries an sslmode. Both URL ("postgresql://...") and key=value forms
// are accepted; an sslmode already present in the string wins.
func PostgresDSN(raw, sslMode string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty postgres connection string")
	}
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		q := u.Query()
		if q.Get("sslmode") == "" && sslMode != "" {
			q.Set("sslmode", sslMode)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	if !strings.Contains(raw, "sslmode=") && sslMode != "" {
		raw += " sslmode=" + sslMode
	}
	return raw, nil
}

// SQLiteDSN adds a busy timeout to path, keeping any query parameters it
// already carries.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_pragma=busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

// sqliteDir is the directory holding the database file, or "" for in-memory
// databases.
func sqliteDir(path string) string {
	path, _, _ = strings.Cut(path, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" {
		return ""
	}
	return filepath.Dir(path)
}

type gormLogWriter struct{}

func (gormLogWriter) Printf(format string, v ...interface{}) {
	logger.Warnf(format, v...)
}

func newGormLogger() gormlogger.Interface {
	return gormlogger.New(gormLogWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
