// Package agenda holds the date and status rules shared by every task view:
// overdue and due-tomorrow classification, grouping by status and title search.
package agenda

import (
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/tnm/internal/models"
)

// Class is the highlight a task gets in a list
type Class int

const (
	None Class = iota
	Overdue
	DueTomorrow
)

func (c Class) String() string {
	switch c {
	case Overdue:
		return "overdue"
	case DueTomorrow:
		return "due tomorrow"
	}
	return "none"
}

// Today returns the local calendar date of now as a UTC midnight value,
// the same shape the store uses for due dates.
func Today(now time.Time) time.Time {
	now = now.Local()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func before(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// IsOverdue reports a due date strictly before today on a task that is not completed
func IsOverdue(t models.Task, today time.Time) bool {
	if t.DueDate == nil || t.Completed() {
		return false
	}
	return before(*t.DueDate, today)
}

// IsDueTomorrow reports a due date of exactly today+1 on a task that is not completed
func IsDueTomorrow(t models.Task, today time.Time) bool {
	if t.DueDate == nil || t.Completed() {
		return false
	}
	return sameDay(*t.DueDate, today.AddDate(0, 0, 1))
}

// Classify returns the highlight for t. Overdue is checked first.
func Classify(t models.Task, today time.Time) Class {
	switch {
	case IsOverdue(t, today):
		return Overdue
	case IsDueTomorrow(t, today):
		return DueTomorrow
	}
	return None
}

// DueTomorrowTasks returns the tasks that are due tomorrow and not completed
func DueTomorrowTasks(tasks []models.Task, today time.Time) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if IsDueTomorrow(t, today) {
			out = append(out, t)
		}
	}
	return out
}

// Groups partitions tasks by status
type Groups struct {
	NotStarted []models.Task
	InProgress []models.Task
	Completed  []models.Task
}

// Bucket returns the group holding status s
func (g Groups) Bucket(s models.Status) []models.Task {
	switch s {
	case models.StatusNotStarted:
		return g.NotStarted
	case models.StatusInProgress:
		return g.InProgress
	case models.StatusCompleted:
		return g.Completed
	}
	return nil
}

// Len returns the number of grouped tasks
func (g Groups) Len() int {
	return len(g.NotStarted) + len(g.InProgress) + len(g.Completed)
}

// Group partitions tasks into the three status buckets, keeping input order.
// Tasks with a status outside the known set are left out and reported in the
// returned error, which wraps models.ErrUnknownStatus.
func Group(tasks []models.Task) (Groups, error) {
	var (
		g       Groups
		unknown []string
	)
	for _, t := range tasks {
		switch t.Status {
		case models.StatusNotStarted:
			g.NotStarted = append(g.NotStarted, t)
		case models.StatusInProgress:
			g.InProgress = append(g.InProgress, t)
		case models.StatusCompleted:
			g.Completed = append(g.Completed, t)
		default:
			unknown = append(unknown, fmt.Sprintf("#%d %q", t.ID, t.Status))
		}
	}
	if len(unknown) > 0 {
		return g, fmt.Errorf("%w: %s", models.ErrUnknownStatus, strings.Join(unknown, ", "))
	}
	return g, nil
}

// Filter keeps the tasks whose title contains query, ignoring case.
// A blank query keeps everything.
func Filter(tasks []models.Task, query string) []models.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tasks
	}
	var out []models.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), query) {
			out = append(out, t)
		}
	}
	return out
}
