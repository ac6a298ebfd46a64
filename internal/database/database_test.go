package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/helloworld/todo-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	cases := []struct {
		name, raw, mode, want string
	}{
		{"url gets sslmode", "postgresql://u:p@db:5432/todos", "require", "postgresql://u:p@db:5432/todos?sslmode=require"},
		{"url keeps own sslmode", "postgres://u:p@db/todos?sslmode=disable", "require", "postgres://u:p@db/todos?sslmode=disable"},
		{"keyword form", "host=db user=u dbname=todos", "require", "host=db user=u dbname=todos sslmode=require"},
		{"no mode configured", "host=db", "", "host=db"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PostgresDSN(tc.raw, tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := PostgresDSN("  ", "require")
	require.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	cases := []struct {
		path, want, dir string
	}{
		{"data/todos.db", "data/todos.db?_pragma=busy_timeout(5000)", "data"},
		{"todos.db?_pragma=journal_mode(WAL)", "todos.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", "."},
		{":memory:", ":memory:?_pragma=busy_timeout(5000)", ""},
		{"file:/tmp/x/todos.db?cache=shared", "file:/tmp/x/todos.db?cache=shared&_pragma=busy_timeout(5000)", "/tmp/x"},
		{"todos.db?_pragma=busy_timeout(100)", "todos.db?_pragma=busy_timeout(100)", "."},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, SQLiteDSN(tc.path))
			assert.Equal(t, tc.dir, sqliteDir(tc.path))
		})
	}
}

func TestOpenSQLiteInMemory(t *testing.T) {
	db, err := OpenSQL(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, sqlDB.Ping())
}

func TestOpenSQLite(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "nested", "todos.db"),
		PoolRecycle: 300 * time.Second,
	}
	db, err := OpenSQL(context.Background(), cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenSQLRejectsOtherDrivers(t *testing.T) {
	_, err := OpenSQL(context.Background(), config.DatabaseConfig{Driver: config.DriverMongo})
	require.Error(t, err)
}

func TestRetry(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), "test", 3, time.Millisecond, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("not yet")
		}
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, got)
	require.Equal(t, 3, calls)

	calls = 0
	_, err = Retry(context.Background(), "test", 2, time.Millisecond, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("down")
	})
	require.EqualError(t, err, "down")
	require.Equal(t, 2, calls)
}
