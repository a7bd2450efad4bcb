// Package notify polls a user's tasks for due-tomorrow reminders and delivers them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tgienger/tnm/internal/models"
)

// Notice is a reminder for a single task
type Notice struct {
	TaskID  int64
	Title   string
	DueDate time.Time
}

const noticeTitle = "Task Due Tomorrow"

func (n Notice) Message() string {
	return fmt.Sprintf("Task '%s' is due tomorrow!", n.Title)
}

func noticeFor(t models.Task) Notice {
	n := Notice{TaskID: t.ID, Title: t.Title}
	if t.DueDate != nil {
		n.DueDate = *t.DueDate
	}
	return n
}

// Notifier delivers notices
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// ChanNotifier hands notices to a receiver, typically the UI loop
type ChanNotifier chan Notice

func (c ChanNotifier) Notify(ctx context.Context, n Notice) error {
	select {
	case c <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Multi delivers every notice to all notifiers and joins their errors
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
