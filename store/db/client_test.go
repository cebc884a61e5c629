package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type note struct {
	ID   uint `gorm:"primaryKey"`
	Body string
}

func sqliteConfig(t *testing.T) *Config {
	return &Config{
		Driver: "SQLite",
		SQLite: &SQLiteConfig{FilePath: filepath.Join(t.TempDir(), "test.db")},
	}
}

func TestNewSQLite(t *testing.T) {
	cfg := sqliteConfig(t)
	client, err := New(cfg, WithConnectTimeout(time.Second))
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, DriverSQLite, client.Driver())
	assert.Equal(t, 1, client.sqlDB.Stats().MaxOpenConnections)

	ctx := context.Background()
	require.NoError(t, client.Migrate(ctx, &note{}))
	require.NoError(t, client.DB().Create(&note{Body: "hello"}).Error)

	var got note
	require.NoError(t, client.DB().First(&got).Error)
	assert.Equal(t, "hello", got.Body)

	// 默认值已回填
	assert.Equal(t, "WAL", cfg.SQLite.JournalMode)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQuery)
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(&Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(&Config{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestClose(t *testing.T) {
	client, err := New(sqliteConfig(t))
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	assert.Nil(t, client.DB())
	assert.ErrorIs(t, client.Ping(context.Background()), ErrClosed)
	assert.ErrorIs(t, client.Migrate(context.Background(), &note{}), ErrClosed)
}

func TestDialect(t *testing.T) {
	for driver, want := range map[string]Driver{
		"mysql":    DriverMySQL,
		"Postgres": DriverPostgres,
		"sqlite":   DriverSQLite,
	} {
		d, err := (&Config{Driver: driver}).Dialect()
		require.NoError(t, err, driver)
		assert.Equal(t, want, d.Driver())
	}
}

func TestMySQLDSN(t *testing.T) {
	c := &MySQLConfig{
		Host:      "db.local",
		Port:      3307,
		User:      "app",
		Password:  "secret",
		Database:  "geo",
		Charset:   "utf8mb4",
		Collation: "utf8mb4_unicode_ci",
		Timeout:   5 * time.Second,
	}
	dsn := c.DSN()
	assert.True(t, strings.HasPrefix(dsn, "app:secret@tcp(db.local:3307)/geo?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "timeout=5s")
}

func TestPostgresDSN(t *testing.T) {
	c := &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p w'd",
		Database: "geo",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		`host=localhost port=5432 user=postgres password='p w\'d' dbname=geo sslmode=disable connect_timeout=0`,
		c.DSN())
}

func TestSQLiteDSN(t *testing.T) {
	c := &SQLiteConfig{FilePath: "/tmp/a.db", JournalMode: "WAL", BusyTimeout: 100, SyncMode: "FULL"}
	assert.Equal(t, "file:/tmp/a.db?_busy_timeout=100&_foreign_keys=1&_journal_mode=WAL&_synchronous=FULL", c.DSN())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.Error, parseLevel("error"))
	assert.Equal(t, logger.Warn, parseLevel("WARN"))
	assert.Equal(t, logger.Info, parseLevel("info"))
	assert.Equal(t, logger.Silent, parseLevel(""))
	assert.Equal(t, logger.Silent, parseLevel("verbose"))
}
