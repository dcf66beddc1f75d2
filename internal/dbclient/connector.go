// Package dbclient opens database handles from raw connection strings and
// runs script batches for the execution engine.
package dbclient

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Driver identifies a supported database driver.
type Driver string

const (
	DriverSQLServer Driver = "sqlserver"
	DriverPostgres  Driver = "postgres"
	DriverMySQL     Driver = "mysql"
	DriverSQLite    Driver = "sqlite"
)

// Config is a parsed raw connection string.
type Config struct {
	Driver Driver
	DSN    string
}

// Parse determines the driver for a raw connection string. URL-style strings
// select by scheme; ADO-style strings ("Server=...;Database=...") and
// anything else default to SQL Server, the tool's primary target.
func Parse(raw string) (Config, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Config{}, fmt.Errorf("empty connection string")
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "sqlserver://"):
		return Config{Driver: DriverSQLServer, DSN: s}, nil
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Config{Driver: DriverPostgres, DSN: s}, nil
	case strings.HasPrefix(lower, "mysql://"):
		// go-sql-driver DSNs carry no scheme
		return Config{Driver: DriverMySQL, DSN: s[len("mysql://"):]}, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return Config{Driver: DriverSQLite, DSN: s[len("sqlite://"):]}, nil
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return Config{Driver: DriverSQLite, DSN: s}, nil
	default:
		return Config{Driver: DriverSQLServer, DSN: s}, nil
	}
}

// Open opens a handle for the parsed config.
func Open(cfg Config) (*sql.DB, error) {
	db, err := sql.Open(string(driverName(cfg.Driver)), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	// Sensible pool settings for a desktop app
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)
	return db, nil
}

// OpenDatabase opens a handle scoped to one database on the server.
func OpenDatabase(cfg Config, name string) (*sql.DB, error) {
	dsn, err := withDatabase(cfg, name)
	if err != nil {
		return nil, err
	}
	return Open(Config{Driver: cfg.Driver, DSN: dsn})
}

func driverName(d Driver) string {
	switch d {
	case DriverSQLServer:
		return "sqlserver"
	case DriverPostgres:
		return "postgres"
	case DriverMySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

func withDatabase(cfg Config, name string) (string, error) {
	switch cfg.Driver {
	case DriverSQLServer:
		if strings.Contains(cfg.DSN, "://") {
			u, err := url.Parse(cfg.DSN)
			if err != nil {
				return "", fmt.Errorf("parse connection url: %w", err)
			}
			q := u.Query()
			q.Set("database", name)
			u.RawQuery = q.Encode()
			return u.String(), nil
		}
		// ADO-style: the last database pair wins
		return strings.TrimRight(cfg.DSN, "; ") + ";database=" + name, nil
	case DriverPostgres:
		u, err := url.Parse(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("parse connection url: %w", err)
		}
		u.Path = "/" + name
		return u.String(), nil
	case DriverMySQL:
		mc, err := gomysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		mc.DBName = name
		return mc.FormatDSN(), nil
	default:
		// SQLite is a single-database file
		return cfg.DSN, nil
	}
}
