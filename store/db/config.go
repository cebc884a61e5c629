package db

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Driver 数据库驱动
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Config 数据库配置，Driver 为空表示不启用；只读取所选驱动的子配置
type Config struct {
	Driver   string          `json:"driver"`
	MySQL    *MySQLConfig    `json:"mysql"`
	Postgres *PostgresConfig `json:"postgres"`
	SQLite   *SQLiteConfig   `json:"sqlite"`

	Pool PoolConfig `json:"pool"`
	// Level gorm 日志级别：silent、error、warn、info
	Level     string        `json:"level" default:"warn"`
	SlowQuery time.Duration `json:"slowQuery" default:"200ms"`
}

// PoolConfig 连接池
type PoolConfig struct {
	MaxIdleConns    int           `json:"maxIdleConns" default:"10"`
	MaxOpenConns    int           `json:"maxOpenConns" default:"100"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" default:"1h"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime" default:"10m"`
}

// Enabled 是否配置了数据库
func (c *Config) Enabled() bool {
	return c != nil && c.Driver != ""
}

// Dialect 所选驱动的连接参数
func (c *Config) Dialect() (Dialect, error) {
	switch Driver(strings.ToLower(c.Driver)) {
	case DriverMySQL:
		return orZero(c.MySQL), nil
	case DriverPostgres:
		return orZero(c.Postgres), nil
	case DriverSQLite:
		return orZero(c.SQLite), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
	}
}

func orZero[T any](p *T) *T {
	if p == nil {
		return new(T)
	}
	return p
}

// Dialect 一种数据库的连接方式
type Dialect interface {
	Driver() Driver
	Dialector() gorm.Dialector
}

// MySQLConfig MySQL 连接参数
type MySQLConfig struct {
	Host      string        `json:"host" default:"localhost"`
	Port      int           `json:"port" default:"3306"`
	User      string        `json:"user" default:"root"`
	Password  string        `json:"password"`
	Database  string        `json:"database" default:"geostego"`
	Charset   string        `json:"charset" default:"utf8mb4"`
	Collation string        `json:"collation" default:"utf8mb4_unicode_ci"`
	Timeout   time.Duration `json:"timeout" default:"10s"`
}

func (c *MySQLConfig) Driver() Driver { return DriverMySQL }

// DSN 使用 UTC 解析时间
func (c *MySQLConfig) DSN() string {
	cfg := mysqldriver.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.Collation = c.Collation
	cfg.Params = map[string]string{"charset": c.Charset}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Timeout = c.Timeout
	return cfg.FormatDSN()
}

func (c *MySQLConfig) Dialector() gorm.Dialector {
	return mysql.Open(c.DSN())
}

// PostgresConfig PostgreSQL 连接参数
type PostgresConfig struct {
	Host           string `json:"host" default:"localhost"`
	Port           int    `json:"port" default:"5432"`
	User           string `json:"user" default:"postgres"`
	Password       string `json:"password"`
	Database       string `json:"database" default:"geostego"`
	SSLMode        string `json:"sslmode" default:"disable"`
	TimeZone       string `json:"timezone" default:"UTC"`
	ConnectTimeout int    `json:"connectTimeout" default:"10"` // 秒
}

func (c *PostgresConfig) Driver() Driver { return DriverPostgres }

// DSN key=value 形式，值中的空格与引号会被转义
func (c *PostgresConfig) DSN() string {
	kv := []struct{ k, v string }{
		{"host", c.Host},
		{"port", strconv.Itoa(c.Port)},
		{"user", c.User},
		{"password", c.Password},
		{"dbname", c.Database},
		{"sslmode", c.SSLMode},
		{"TimeZone", c.TimeZone},
		{"connect_timeout", strconv.Itoa(c.ConnectTimeout)},
	}
	parts := make([]string, 0, len(kv))
	for _, p := range kv {
		if p.v == "" {
			continue
		}
		parts = append(parts, p.k+"="+quote(p.v))
	}
	return strings.Join(parts, " ")
}

func quote(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (c *PostgresConfig) Dialector() gorm.Dialector {
	return postgres.Open(c.DSN())
}

// SQLiteConfig SQLite 连接参数，单文件只允许一个写连接
type SQLiteConfig struct {
	FilePath    string `json:"filePath" default:"./data/geostego.db"`
	JournalMode string `json:"journalMode" default:"WAL"`
	BusyTimeout int    `json:"busyTimeout" default:"5000"` // 毫秒
	SyncMode    string `json:"syncMode" default:"NORMAL"`
}

func (c *SQLiteConfig) Driver() Driver { return DriverSQLite }

func (c *SQLiteConfig) DSN() string {
	q := url.Values{}
	q.Set("_journal_mode", c.JournalMode)
	q.Set("_busy_timeout", strconv.Itoa(c.BusyTimeout))
	q.Set("_synchronous", c.SyncMode)
	q.Set("_foreign_keys", "1")
	return "file:" + c.FilePath + "?" + q.Encode()
}

func (c *SQLiteConfig) Dialector() gorm.Dialector {
	return sqlite.Open(c.DSN())
}
