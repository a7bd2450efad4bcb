package views

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/tnm/internal/models"
)

// memStore is an in-memory Store
type memStore struct {
	users    map[string]string
	ids      map[string]int64
	tasks    map[int64]models.Task
	order    []int64
	nextID   int64
	fallback models.Status
}

func newMemStore() *memStore {
	return &memStore{
		users: map[string]string{},
		ids:   map[string]int64{},
		tasks: map[int64]models.Task{},
	}
}

func (m *memStore) Login(_ context.Context, username, password string) (int64, bool, error) {
	if pw, ok := m.users[username]; ok {
		if pw != password {
			return 0, false, models.ErrLoginFailed
		}
		return m.ids[username], false, nil
	}
	m.users[username] = password
	m.ids[username] = int64(len(m.ids) + 1)
	return m.ids[username], true, nil
}

func (m *memStore) ListTasks(_ context.Context, ownerID int64) ([]models.Task, error) {
	var out []models.Task
	for _, id := range m.order {
		if t, ok := m.tasks[id]; ok && t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) GetTask(_ context.Context, id int64) (models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return models.Task{}, models.ErrTaskNotFound
	}
	return t, nil
}

func (m *memStore) CreateTask(_ context.Context, ownerID int64, in models.TaskInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	m.nextID++
	due := in.DueDate
	m.tasks[m.nextID] = models.Task{
		ID: m.nextID, OwnerID: ownerID, Title: in.Title, Description: in.Description,
		DueDate: &due, Priority: in.Priority, Status: in.Status, Progress: in.Progress,
	}
	m.order = append(m.order, m.nextID)
	return m.nextID, nil
}

func (m *memStore) UpdateTask(_ context.Context, id int64, in models.TaskInput) error {
	t, ok := m.tasks[id]
	if !ok {
		return models.ErrTaskNotFound
	}
	due := in.DueDate
	t.Title, t.Description, t.DueDate = in.Title, in.Description, &due
	t.Priority, t.Status, t.Progress = in.Priority, in.Status, in.Progress
	m.tasks[id] = t
	return nil
}

func (m *memStore) DeleteTask(_ context.Context, id int64) error {
	if _, ok := m.tasks[id]; !ok {
		return models.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memStore) ToggleComplete(_ context.Context, id int64, fallback models.Status) (models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return models.Task{}, models.ErrTaskNotFound
	}
	m.fallback = fallback
	if t.Completed() {
		t.Status = fallback
	} else {
		t.Status, t.Progress = models.StatusCompleted, 100
	}
	m.tasks[id] = t
	return t, nil
}

func (m *memStore) seed(ownerID int64, title string, status models.Status, due time.Time, progress int) int64 {
	id, _ := m.CreateTask(context.Background(), ownerID, models.TaskInput{
		Title: title, DueDate: due, Priority: models.PriorityMedium, Status: status, Progress: progress,
	})
	return id
}

func fixedNow() time.Time {
	return time.Date(2023, 12, 31, 10, 0, 0, 0, time.Local)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func mustMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()

	if cmd == nil {
		t.Fatalf("expected a command")
	}
	return cmd()
}

func TestLoginView_RegistersNewUser(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	v := NewLoginView(store)
	v.username.SetValue("alice")
	v.password.SetValue("pw")
	v.focusIdx = 2

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg, ok := mustMsg(t, cmd).(LoggedIn)
	if !ok {
		t.Fatalf("expected LoggedIn")
	}
	if msg.Username != "alice" || msg.UserID != 1 || !msg.Registered {
		t.Fatalf("unexpected login result: %+v", msg)
	}
}

func TestLoginView_WrongPassword(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.Login(context.Background(), "alice", "right")

	v := NewLoginView(store)
	v.username.SetValue("alice")
	v.password.SetValue("wrong")
	v.focusIdx = 1

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := mustMsg(t, cmd)
	if _, ok := msg.(loginFailedMsg); !ok {
		t.Fatalf("expected loginFailedMsg, got %T", msg)
	}

	v.Update(msg)
	if v.err != "Username taken or login failed" {
		t.Fatalf("unexpected error text %q", v.err)
	}
	if v.password.Value() != "" || v.busy {
		t.Fatalf("expected password cleared and form usable again")
	}
}

func TestLoginView_EmptyUsername(t *testing.T) {
	t.Parallel()

	v := NewLoginView(newMemStore())
	v.password.SetValue("pw")
	v.focusIdx = 2

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("expected no store call for an empty username")
	}
	if v.err != "Username cannot be empty" {
		t.Fatalf("unexpected error text %q", v.err)
	}
}

func TestBoardView_GroupsTasks(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed(1, "Pay rent", models.StatusNotStarted, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0)
	store.seed(1, "Write report", models.StatusInProgress, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 40)
	store.seed(1, "Old chore", models.StatusCompleted, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 100)
	store.seed(2, "Not mine", models.StatusNotStarted, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0)

	v := NewBoardView(store, 1, fixedNow)
	v.Update(mustMsg(t, v.Init()))

	g := v.Groups()
	if len(g.NotStarted) != 1 || len(g.InProgress) != 1 || len(g.Completed) != 1 {
		t.Fatalf("unexpected groups: %+v", g)
	}

	out := v.View()
	for _, want := range []string{"Not Started", "In Progress", "Completed", "Pay rent", "40%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected board to contain %q", want)
		}
	}
	if strings.Contains(out, "Not mine") {
		t.Fatalf("board shows another user's task")
	}
}

func TestBoardView_UnknownStatusWarning(t *testing.T) {
	t.Parallel()

	v := NewBoardView(newMemStore(), 1, fixedNow)
	v.Update(boardLoadedMsg{tasks: []models.Task{
		{ID: 1, Title: "ok", Status: models.StatusNotStarted},
		{ID: 9, Title: "odd", Status: "Blocked"},
	}})

	if v.Groups().Len() != 1 {
		t.Fatalf("expected one grouped task, got %d", v.Groups().Len())
	}
	if !strings.Contains(v.warning, "#9") {
		t.Fatalf("expected a warning naming task 9, got %q", v.warning)
	}
}

func loadedManage(t *testing.T, store *memStore) *ManageView {
	t.Helper()

	v := NewManageView(store, 1, fixedNow)
	v.Update(mustMsg(t, v.Init()))
	return v
}

func TestManageView_SaveRejectsEmptyTitle(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	v := loadedManage(t, store)

	v.Update(keyRune('n'))
	if !v.Editing() {
		t.Fatalf("expected the edit form to open")
	}

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatalf("expected no save command")
	}
	if v.err != "Title cannot be empty" {
		t.Fatalf("unexpected error %q", v.err)
	}
	if len(store.tasks) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestManageView_CreateTask(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	v := loadedManage(t, store)

	v.Update(keyRune('n'))
	if got := v.editDue.Value(); got != "2023-12-31" {
		t.Fatalf("expected due date to default to today, got %q", got)
	}
	v.editTitle.SetValue("Pay rent")
	v.editDue.SetValue("2024-01-01")
	v.priorityIdx = 2

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	msg, ok := mustMsg(t, cmd).(taskSavedMsg)
	if !ok {
		t.Fatalf("expected taskSavedMsg")
	}
	if msg.info != "Added 'Pay rent'" {
		t.Fatalf("unexpected info %q", msg.info)
	}

	task := store.tasks[1]
	if task.Title != "Pay rent" || task.Priority != models.PriorityHigh || task.Status != models.StatusNotStarted {
		t.Fatalf("unexpected stored task: %+v", task)
	}
	if task.Description != nil {
		t.Fatalf("expected an empty description to be stored as absent")
	}

	v.Update(msg)
	v.Update(mustMsg(t, v.Reload()))
	if len(v.Tasks()) != 1 {
		t.Fatalf("expected reloaded list to contain the task")
	}
}

func TestManageView_EditTask(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	id := store.seed(1, "Pay rent", models.StatusNotStarted, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0)
	v := loadedManage(t, store)

	_, cmd := v.Update(keyRune('e'))
	v.Update(mustMsg(t, cmd))
	if !v.editing || v.editingNew || v.editingID != id {
		t.Fatalf("expected to edit task %d", id)
	}
	if v.editTitle.Value() != "Pay rent" || v.editDue.Value() != "2024-01-01" {
		t.Fatalf("form not filled from the task")
	}

	v.editProgress.SetValue("150")
	if _, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlS}); cmd != nil {
		t.Fatalf("expected out-of-range progress to be rejected")
	}

	v.editProgress.SetValue("25")
	v.statusIdx = 1
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	mustMsg(t, cmd)

	got := store.tasks[id]
	if got.Progress != 25 || got.Status != models.StatusInProgress {
		t.Fatalf("update not stored: %+v", got)
	}
}

func TestManageView_ToggleComplete(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	id := store.seed(1, "Write report", models.StatusInProgress, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 40)
	v := loadedManage(t, store)

	_, cmd := v.Update(keyRune('x'))
	msg := mustMsg(t, cmd).(taskSavedMsg)
	if msg.info != "Marked 'Write report' complete" {
		t.Fatalf("unexpected info %q", msg.info)
	}
	if !store.tasks[id].Completed() || store.tasks[id].Progress != 100 {
		t.Fatalf("expected task completed at 100%%")
	}
	if store.fallback != models.StatusInProgress {
		t.Fatalf("expected In Progress fallback for partial work, got %q", store.fallback)
	}
}

func TestManageView_DeleteNeedsConfirmation(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	id := store.seed(1, "Pay rent", models.StatusNotStarted, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0)
	v := loadedManage(t, store)

	v.Update(keyRune('d'))
	if !v.confirmingDelete {
		t.Fatalf("expected a confirmation prompt")
	}
	v.Update(keyRune('n'))
	if _, ok := store.tasks[id]; !ok {
		t.Fatalf("task deleted without confirmation")
	}

	v.Update(keyRune('d'))
	_, cmd := v.Update(keyRune('y'))
	mustMsg(t, cmd)
	if _, ok := store.tasks[id]; ok {
		t.Fatalf("expected task to be deleted")
	}
}

func TestManageView_Search(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.seed(1, "Pay rent", models.StatusNotStarted, due, 0)
	store.seed(1, "Buy milk", models.StatusNotStarted, due, 0)
	v := loadedManage(t, store)

	v.Update(keyRune('/'))
	for _, r := range "RENT" {
		v.Update(keyRune(r))
	}
	if len(v.Tasks()) != 1 || v.Tasks()[0].Title != "Pay rent" {
		t.Fatalf("expected filter to keep Pay rent, got %+v", v.Tasks())
	}

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if len(v.Tasks()) != 2 {
		t.Fatalf("expected esc to clear the filter")
	}
}

func TestTaskLine(t *testing.T) {
	t.Parallel()

	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	line := taskLine(models.Task{
		Title: "Pay rent", DueDate: &due, Priority: models.PriorityHigh,
		Status: models.StatusCompleted, Progress: 100,
	})
	want := "[✓] Pay rent (Due: 2024-01-01, P: High, S: Completed, Progress: 100%)"
	if line != want {
		t.Fatalf("taskLine = %q, want %q", line, want)
	}
}
