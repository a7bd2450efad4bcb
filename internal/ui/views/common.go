package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tnm/internal/models"
	"github.com/tgienger/tnm/internal/ui/styles"
)

// Store is the persistence the views need; *db.DB satisfies it
type Store interface {
	Login(ctx context.Context, username, password string) (int64, bool, error)
	ListTasks(ctx context.Context, ownerID int64) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	CreateTask(ctx context.Context, ownerID int64, in models.TaskInput) (int64, error)
	UpdateTask(ctx context.Context, id int64, in models.TaskInput) error
	DeleteTask(ctx context.Context, id int64) error
	ToggleComplete(ctx context.Context, id int64, fallback models.Status) (models.Task, error)
}

const dateLayout = "2006-01-02"

// Messages shared with the app

// LoggedIn is sent once credentials were accepted or a new account was created
type LoggedIn struct {
	UserID     int64
	Username   string
	Registered bool
}

// TasksChanged is sent after any mutation so other views can reload
type TasksChanged struct{}

// ShowBoard and ShowManage ask the app to switch views
type (
	ShowBoard  struct{}
	ShowManage struct{}
)

// errMsg carries a store failure to the view that issued the command
type errMsg struct{ err error }

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func formatDue(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return d.Format(dateLayout)
}

func formatDescription(d *string) string {
	if d == nil || *d == "" {
		return "N/A"
	}
	return *d
}

// truncate shortens s to width runes, marking the cut with an ellipsis
func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if lipgloss.Width(s) <= width || width < 2 {
		return s
	}
	r := []rune(s)
	if len(r) > width-1 {
		r = r[:width-1]
	}
	return string(r) + "…"
}

func renderHelp(s *styles.Styles, pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, fmt.Sprintf("%s %s", s.HelpKey.Render(pairs[i]), pairs[i+1]))
	}
	return s.Help.Render(strings.Join(parts, " • "))
}
