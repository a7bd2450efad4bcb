package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/tgienger/tnm/internal/config"
)

const connectTimeout = 5 * time.Second

// DB wraps the database connection
type DB struct {
	*sqlx.DB
	log    *slog.Logger
	driver string
	pool   *pgxpool.Pool // only set for the pgx driver
}

// Open connects to the database described by cfg. It does not touch the schema; call InitSchema.
func Open(ctx context.Context, log *slog.Logger, cfg config.Database) (*DB, error) {
	db := &DB{log: log, driver: cfg.Driver}

	switch cfg.Driver {
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" {
			var err error
			if path, err = DefaultPath(); err != nil {
				return nil, err
			}
		}
		conn, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite serialises writers anyway; one connection keeps the handle single-threaded
		conn.SetMaxOpenConns(1)
		db.DB = conn

	case config.DriverPgx:
		pool, err := newPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		db.pool = pool
		db.DB = sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")

	case config.DriverPostgres:
		conn, err := sqlx.Open("postgres", cfg.URL())
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		conn.SetMaxOpenConns(cfg.MaxConns)
		db.DB = conn

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		log.Error("connection problem", "driver", cfg.Driver, "error", err)
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	log.Debug("database connected", "driver", cfg.Driver)
	return db, nil
}

func newPool(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = 1

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}
	return pool, nil
}

// Close releases the connection and, for pgx, the underlying pool
func (db *DB) Close() error {
	err := db.DB.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}

// Driver returns the configured driver name
func (db *DB) Driver() string {
	return db.driver
}

// DefaultPath returns the path to the local database file
func DefaultPath() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	appDir := filepath.Join(dataDir, "tnm")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(appDir, "tnm.db"), nil
}
