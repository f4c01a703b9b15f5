// Package database opens the SQL connection pool shared by the scrapers and
// the dashboard.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/AlfredBerg/regsido/internal/config"
	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// DSN builds the driver specific data source name.
func DSN(cfg config.Database) string {
	if cfg.Driver == config.DriverSQLite {
		return cfg.Name
	}
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// Open opens the pool without connecting; the first query connects.
func Open(cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite does not allow concurrent writers, and every connection to
		// :memory: would be a separate database
		db.SetMaxOpenConns(1)
		return db, nil
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// Ping verifies the database is reachable.
func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
