package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tgienger/tnm/internal/agenda"
	"github.com/tgienger/tnm/internal/models"
)

// TaskLister is the read side of the task store used by the watcher
type TaskLister interface {
	ListTasks(ctx context.Context, ownerID int64) ([]models.Task, error)
}

// Watcher periodically announces the tasks of one user that are due tomorrow
type Watcher struct {
	log      *slog.Logger
	tasks    TaskLister
	notifier Notifier
	interval time.Duration
	now      func() time.Time
}

func NewWatcher(log *slog.Logger, tasks TaskLister, notifier Notifier, interval time.Duration) *Watcher {
	return &Watcher{
		log:      log,
		tasks:    tasks,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// WithClock replaces the clock used to decide what is due tomorrow
func (w *Watcher) WithClock(now func() time.Time) *Watcher {
	if now != nil {
		w.now = now
	}
	return w
}

// Check sends one notice per task due tomorrow and returns how many were found.
// Delivery failures are logged and do not stop the pass.
func (w *Watcher) Check(ctx context.Context, ownerID int64) (int, error) {
	tasks, err := w.tasks.ListTasks(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list tasks: %w", err)
	}

	due := agenda.DueTomorrowTasks(tasks, agenda.Today(w.now()))
	for _, t := range due {
		w.log.Debug("task due tomorrow", "task_id", t.ID)
		if err := w.notifier.Notify(ctx, noticeFor(t)); err != nil {
			w.log.Warn("notification failed", "task_id", t.ID, "error", err)
		}
	}
	return len(due), nil
}

// Run checks immediately and then once per interval until ctx is cancelled
func (w *Watcher) Run(ctx context.Context, ownerID int64) {
	w.log.Debug("reminder watcher started", "interval", w.interval)
	defer w.log.Debug("reminder watcher stopped")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.Check(ctx, ownerID); err != nil && ctx.Err() == nil {
			w.log.Error("reminder check failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
