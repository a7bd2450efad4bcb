package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/tgienger/tnm/internal/config"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

//go:embed schema/postgres.sql
var postgresSchema string

// InitSchema creates the users and tasks tables if needed and adds the
// progress column to task tables created before it existed.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := postgresSchema
	if db.driver == config.DriverSQLite {
		schema = sqliteSchema
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	ok, err := db.hasProgressColumn(ctx)
	if err != nil {
		return fmt.Errorf("inspect tasks table: %w", err)
	}
	if ok {
		return nil
	}

	if _, err := db.ExecContext(ctx, `ALTER TABLE tasks ADD COLUMN progress INTEGER DEFAULT 0`); err != nil {
		return fmt.Errorf("add progress column: %w", err)
	}
	db.log.Info("added progress column to tasks table")
	return nil
}

func (db *DB) hasProgressColumn(ctx context.Context) (bool, error) {
	q := `
		SELECT COUNT(*)
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'tasks' AND column_name = 'progress'
	`
	if db.driver == config.DriverSQLite {
		q = `SELECT COUNT(*) FROM pragma_table_info('tasks') WHERE name = 'progress'`
	}

	var n int
	if err := db.GetContext(ctx, &n, q); err != nil {
		return false, err
	}
	return n > 0, nil
}
