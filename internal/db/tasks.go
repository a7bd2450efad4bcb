package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tgienger/tnm/internal/models"
)

const taskColumns = `
	id, COALESCE(user_id, 0) AS user_id, title, description, due_date,
	COALESCE(priority, '') AS priority, COALESCE(status, '') AS status,
	COALESCE(progress, 0) AS progress, created_date
`

// dateOnly drops the time of day, keeping the calendar date of t
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dueDateArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return dateOnly(t)
}

func normalize(t *models.Task) {
	if t.DueDate != nil {
		d := dateOnly(*t.DueDate)
		t.DueDate = &d
	}
}

// CreateTask inserts a task for ownerID and returns its id
func (db *DB) CreateTask(ctx context.Context, ownerID int64, in models.TaskInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	const q = `
		INSERT INTO tasks (user_id, title, description, due_date, priority, status, progress)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	var id int64
	err := db.QueryRowxContext(ctx, db.Rebind(q),
		ownerID,
		in.Title,
		in.Description,
		dueDateArg(in.DueDate),
		string(in.Priority),
		string(in.Status),
		in.Progress,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, models.ErrUserNotFound
		}
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

// GetTask retrieves a task by ID
func (db *DB) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var t models.Task
	err := db.GetContext(ctx, &t, db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, models.ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	normalize(&t)
	return t, nil
}

// ListTasks returns all tasks of a user in store order
func (db *DB) ListTasks(ctx context.Context, ownerID int64) ([]models.Task, error) {
	var tasks []models.Task
	if err := db.SelectContext(ctx, &tasks,
		db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE user_id = ?`), ownerID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	for i := range tasks {
		normalize(&tasks[i])
	}
	return tasks, nil
}

// UpdateTask replaces the mutable fields of a task
func (db *DB) UpdateTask(ctx context.Context, id int64, in models.TaskInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	const q = `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, priority = ?, status = ?, progress = ?
		WHERE id = ?
	`

	res, err := db.ExecContext(ctx, db.Rebind(q),
		in.Title,
		in.Description,
		dueDateArg(in.DueDate),
		string(in.Priority),
		string(in.Status),
		in.Progress,
		id,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOneRow(res)
}

// DeleteTask permanently removes a task
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOneRow(res)
}

// IsCompleted reports whether the task is Completed. A missing task is not completed.
func (db *DB) IsCompleted(ctx context.Context, id int64) (bool, error) {
	var status string
	err := db.GetContext(ctx, &status, db.Rebind(`SELECT COALESCE(status, '') FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get task status: %w", err)
	}
	return models.Status(status) == models.StatusCompleted, nil
}

// ToggleComplete marks an open task Completed with full progress, or reopens a
// completed one with the fallback status. It returns the task as stored.
func (db *DB) ToggleComplete(ctx context.Context, id int64, fallback models.Status) (models.Task, error) {
	if !fallback.Valid() || fallback == models.StatusCompleted {
		return models.Task{}, models.ErrInvalidStatus
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Task{}, fmt.Errorf("begin toggle: %w", err)
	}
	defer tx.Rollback()

	var t models.Task
	err = tx.GetContext(ctx, &t, tx.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, models.ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}

	if t.Completed() {
		t.Status = fallback
	} else {
		t.Status = models.StatusCompleted
		t.Progress = 100
	}

	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`UPDATE tasks SET status = ?, progress = ? WHERE id = ?`),
		string(t.Status), t.Progress, id); err != nil {
		return models.Task{}, fmt.Errorf("toggle task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, fmt.Errorf("commit toggle: %w", err)
	}

	normalize(&t)
	return t, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrTaskNotFound
	}
	return nil
}
