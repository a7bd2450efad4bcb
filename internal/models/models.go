package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxUsernameLen = 50
	MaxTitleLen    = 100
)

// Status is the workflow state of a task
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the known statuses in display order
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the known priorities in display order
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// User is a registered account. The password hash never leaves the db package.
type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
}

// Task represents a single task owned by one user
type Task struct {
	ID          int64      `db:"id"`
	OwnerID     int64      `db:"user_id"`
	Title       string     `db:"title"`
	Description *string    `db:"description"` // nil when absent
	DueDate     *time.Time `db:"due_date"`    // calendar date, nil for legacy rows without one
	Priority    Priority   `db:"priority"`
	Status      Status     `db:"status"`
	Progress    int        `db:"progress"`
	CreatedAt   time.Time  `db:"created_date"`
}

// Completed reports whether the task is in the Completed state
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// TaskInput holds the mutable fields of a task
type TaskInput struct {
	Title       string
	Description *string
	DueDate     time.Time
	Priority    Priority
	Status      Status
	Progress    int
}

// Input returns the mutable fields of t
func (t Task) Input() TaskInput {
	in := TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		Progress:    t.Progress,
	}
	if t.DueDate != nil {
		in.DueDate = *t.DueDate
	}
	return in
}

// Validate checks the input before it reaches the store
func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" || utf8.RuneCountInString(in.Title) > MaxTitleLen {
		return ErrInvalidTitle
	}
	if !in.Status.Valid() {
		return ErrInvalidStatus
	}
	if !in.Priority.Valid() {
		return ErrInvalidPriority
	}
	if in.Progress < 0 || in.Progress > 100 {
		return ErrInvalidProgress
	}
	return nil
}

// ValidUsername reports whether name can be stored in the users table
func ValidUsername(name string) bool {
	return name != "" && utf8.RuneCountInString(name) <= MaxUsernameLen
}

// StringPtr returns nil for an empty string, a pointer to s otherwise
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
