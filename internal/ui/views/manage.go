package views

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tnm/internal/agenda"
	"github.com/tgienger/tnm/internal/models"
	"github.com/tgienger/tnm/internal/ui/keys"
	"github.com/tgienger/tnm/internal/ui/styles"
)

// edit form fields, in tab order
const (
	fieldTitle = iota
	fieldDesc
	fieldDue
	fieldPriority
	fieldStatus
	fieldProgress
	fieldSave
	fieldCount
)

// ManageView lists tasks with a title filter and edits them
type ManageView struct {
	store   Store
	ownerID int64
	styles  *styles.Styles
	keys    keys.KeyMap
	now     func() time.Time

	width  int
	height int

	all      []models.Task
	tasks    []models.Task // all, filtered by the search box
	cursor   int
	scrollY  int
	loaded   bool
	searchOn bool
	search   textinput.Model

	// Task creation/editing
	editing      bool
	editingNew   bool
	editingID    int64
	editFocusIdx int
	editTitle    textinput.Model
	editDesc     textarea.Model
	editDue      textinput.Model
	editProgress textinput.Model
	priorityIdx  int
	statusIdx    int

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string

	info string
	err  string
}

func NewManageView(store Store, ownerID int64, now func() time.Time) *ManageView {
	if now == nil {
		now = time.Now
	}

	search := textinput.New()
	search.Placeholder = "Filter tasks by title..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Enter task title"
	editTitle.CharLimit = models.MaxTitleLen

	editDesc := textarea.New()
	editDesc.Placeholder = "Enter task description"
	editDesc.CharLimit = 2000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editDue := textinput.New()
	editDue.Placeholder = dateLayout
	editDue.CharLimit = len(dateLayout)

	editProgress := textinput.New()
	editProgress.Placeholder = "0-100"
	editProgress.CharLimit = 3

	return &ManageView{
		store:        store,
		ownerID:      ownerID,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		now:          now,
		search:       search,
		editTitle:    editTitle,
		editDesc:     editDesc,
		editDue:      editDue,
		editProgress: editProgress,
	}
}

type manageLoadedMsg struct {
	tasks []models.Task
}

// taskSavedMsg reports a finished mutation
type taskSavedMsg struct {
	info string
}

func (v *ManageView) Init() tea.Cmd {
	return v.loadTasks
}

// Reload fetches the tasks again
func (v *ManageView) Reload() tea.Cmd {
	return v.loadTasks
}

func (v *ManageView) loadTasks() tea.Msg {
	tasks, err := v.store.ListTasks(context.Background(), v.ownerID)
	if err != nil {
		return errMsg{err: err}
	}
	return manageLoadedMsg{tasks: tasks}
}

// Tasks returns the tasks matching the current filter
func (v *ManageView) Tasks() []models.Task {
	return v.tasks
}

// Editing reports whether the form or a confirmation owns the keyboard
func (v *ManageView) Editing() bool {
	return v.editing || v.confirmingDelete || v.searchOn
}

func (v *ManageView) applyFilter() {
	v.tasks = agenda.Filter(v.all, v.search.Value())
	if v.cursor >= len(v.tasks) {
		v.cursor = max(0, len(v.tasks)-1)
	}
}

func (v *ManageView) selected() (models.Task, bool) {
	if len(v.tasks) == 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *ManageView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.editDesc.SetWidth(clamp(styles.ContentWidth(v.width)-10, 20, 50))
		return v, nil

	case manageLoadedMsg:
		v.all = msg.tasks
		v.loaded = true
		v.applyFilter()
		return v, nil

	case taskOpenedMsg:
		v.startEditTask(msg.task)
		return v, textinput.Blink

	case taskSavedMsg:
		v.info = msg.info
		v.err = ""
		return v, tea.Batch(v.loadTasks, func() tea.Msg { return TasksChanged{} })

	case errMsg:
		v.err = describeError(msg.err)
		v.info = ""
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.editing {
			return v.updateEditing(msg)
		}
		if v.searchOn {
			return v.updateSearch(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *ManageView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
		v.searchOn = false
		v.search.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	v.applyFilter()
	return v, cmd
}

func (v *ManageView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Tab):
		return v, func() tea.Msg { return ShowBoard{} }

	case key.Matches(msg, v.keys.Back):
		if v.search.Value() != "" {
			v.search.Reset()
			v.applyFilter()
		}
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.searchOn = true
		v.search.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Reload):
		return v, v.loadTasks

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit), key.Matches(msg, v.keys.Enter):
		task, ok := v.selected()
		if !ok {
			v.err = "Select a task to update"
			return v, nil
		}
		return v, v.openTask(task.ID)

	case key.Matches(msg, v.keys.Delete):
		task, ok := v.selected()
		if !ok {
			v.err = "Select a task to delete"
			return v, nil
		}
		v.confirmingDelete = true
		v.deleteTargetID = task.ID
		v.deleteTargetName = task.Title
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		task, ok := v.selected()
		if !ok {
			v.err = "Select a task to mark"
			return v, nil
		}
		return v, v.toggleComplete(task)
	}

	return v, nil
}

// taskOpenedMsg carries a freshly read task into the edit form
type taskOpenedMsg struct {
	task models.Task
}

// openTask reads the task from the store so the form never edits a stale copy
func (v *ManageView) openTask(id int64) tea.Cmd {
	store := v.store
	return func() tea.Msg {
		task, err := store.GetTask(context.Background(), id)
		if err != nil {
			return errMsg{err: err}
		}
		return taskOpenedMsg{task: task}
	}
}

func (v *ManageView) toggleComplete(task models.Task) tea.Cmd {
	// reopened tasks go back to In Progress when work was recorded
	fallback := models.StatusNotStarted
	if task.Progress > 0 && task.Progress < 100 {
		fallback = models.StatusInProgress
	}
	store := v.store
	return func() tea.Msg {
		t, err := store.ToggleComplete(context.Background(), task.ID, fallback)
		if err != nil {
			return errMsg{err: err}
		}
		if t.Completed() {
			return taskSavedMsg{info: fmt.Sprintf("Marked '%s' complete", t.Title)}
		}
		return taskSavedMsg{info: fmt.Sprintf("Marked '%s' incomplete", t.Title)}
	}
}

func (v *ManageView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id, name := v.deleteTargetID, v.deleteTargetName
		store := v.store
		return v, func() tea.Msg {
			if err := store.DeleteTask(context.Background(), id); err != nil {
				return errMsg{err: err}
			}
			return taskSavedMsg{info: fmt.Sprintf("Deleted '%s'", name)}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *ManageView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.ShiftTab):
		v.editFocusIdx = (v.editFocusIdx + fieldCount - 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.editFocusIdx {
		case fieldSave:
			return v, v.saveTask()
		case fieldDesc:
			// newlines belong to the description
		default:
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		}

	case key.Matches(msg, v.keys.Left), key.Matches(msg, v.keys.Right):
		step := 1
		if key.Matches(msg, v.keys.Left) {
			step = -1
		}
		switch v.editFocusIdx {
		case fieldPriority:
			v.priorityIdx = (v.priorityIdx + step + len(models.Priorities)) % len(models.Priorities)
			return v, nil
		case fieldStatus:
			v.statusIdx = (v.statusIdx + step + len(models.Statuses)) % len(models.Statuses)
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case fieldDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case fieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	case fieldProgress:
		v.editProgress, cmd = v.editProgress.Update(msg)
	}
	return v, cmd
}

func (v *ManageView) startNewTask() {
	v.editing = true
	v.editingNew = true
	v.editingID = 0
	v.editFocusIdx = fieldTitle
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editDue.SetValue(agenda.Today(v.now()).Format(dateLayout))
	v.editProgress.SetValue("0")
	v.priorityIdx = 0
	v.statusIdx = 0
	v.err = ""
	v.updateEditFocus()
}

func (v *ManageView) startEditTask(task models.Task) {
	v.editing = true
	v.editingNew = false
	v.editingID = task.ID
	v.editFocusIdx = fieldTitle
	v.editTitle.SetValue(task.Title)
	v.editDesc.SetValue("")
	if task.Description != nil {
		v.editDesc.SetValue(*task.Description)
	}
	v.editDue.SetValue("")
	if task.DueDate != nil {
		v.editDue.SetValue(task.DueDate.Format(dateLayout))
	}
	v.editProgress.SetValue(strconv.Itoa(task.Progress))
	v.priorityIdx = indexOf(models.Priorities, task.Priority)
	v.statusIdx = indexOf(models.Statuses, task.Status)
	v.err = ""
	v.updateEditFocus()
}

func indexOf[T comparable](items []T, item T) int {
	for i, it := range items {
		if it == item {
			return i
		}
	}
	return 0
}

func (v *ManageView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editDue.Blur()
	v.editProgress.Blur()

	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle.Focus()
	case fieldDesc:
		v.editDesc.Focus()
	case fieldDue:
		v.editDue.Focus()
	case fieldProgress:
		v.editProgress.Focus()
	}
}

// formInput validates the form and converts it to a store input
func (v *ManageView) formInput() (models.TaskInput, error) {
	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		return models.TaskInput{}, models.ErrInvalidTitle
	}

	due, err := time.Parse(dateLayout, strings.TrimSpace(v.editDue.Value()))
	if err != nil {
		return models.TaskInput{}, errInvalidDueDate
	}

	progress, err := strconv.Atoi(strings.TrimSpace(v.editProgress.Value()))
	if err != nil || progress < 0 || progress > 100 {
		return models.TaskInput{}, models.ErrInvalidProgress
	}

	return models.TaskInput{
		Title:       title,
		Description: models.StringPtr(strings.TrimSpace(v.editDesc.Value())),
		DueDate:     due,
		Priority:    models.Priorities[v.priorityIdx],
		Status:      models.Statuses[v.statusIdx],
		Progress:    progress,
	}, nil
}

var errInvalidDueDate = errors.New("due date must be YYYY-MM-DD")

func (v *ManageView) saveTask() tea.Cmd {
	in, err := v.formInput()
	if err != nil {
		v.err = describeError(err)
		return nil
	}

	v.editing = false
	store, ownerID, id, isNew := v.store, v.ownerID, v.editingID, v.editingNew
	return func() tea.Msg {
		ctx := context.Background()
		if isNew {
			if _, err := store.CreateTask(ctx, ownerID, in); err != nil {
				return errMsg{err: err}
			}
			return taskSavedMsg{info: fmt.Sprintf("Added '%s'", in.Title)}
		}
		if err := store.UpdateTask(ctx, id, in); err != nil {
			return errMsg{err: err}
		}
		return taskSavedMsg{info: fmt.Sprintf("Updated '%s'", in.Title)}
	}
}

func describeError(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidTitle):
		return "Title cannot be empty"
	case errors.Is(err, models.ErrTaskNotFound):
		return "Task no longer exists"
	case errors.Is(err, models.ErrInvalidProgress):
		return "Progress must be a number between 0 and 100"
	case errors.Is(err, errInvalidDueDate):
		return "Due date must be YYYY-MM-DD"
	}
	return "Error: " + err.Error()
}

func (v *ManageView) ensureVisible() {
	visibleItems := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

func (v *ManageView) visibleItems() int {
	if v.height == 0 {
		return max(len(v.tasks), 1)
	}
	return max(v.height-10, 1)
}

func (v *ManageView) View() string {
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.editing {
		return v.renderEditForm()
	}

	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	searchStyle := s.Input
	if v.searchOn {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Width(clamp(contentWidth-8, 20, 60)).Render(v.search.View())

	var b strings.Builder
	b.WriteString(searchBox)
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")

	switch {
	case v.err != "":
		b.WriteString(s.Error.Render(v.err) + "\n")
	case v.info != "":
		b.WriteString(s.Success.Render(v.info) + "\n")
	}

	b.WriteString(renderHelp(s,
		"n", "new",
		"e", "edit",
		"x", "toggle complete",
		"d", "del",
		"/", "search",
		"tab", "task list",
		"q", "quit",
	))
	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *ManageView) renderTaskList() string {
	s := v.styles
	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}
	if len(v.tasks) == 0 {
		if len(v.all) > 0 {
			return s.TitleMuted.Render("No tasks match the filter.")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	today := agenda.Today(v.now())
	width := max(styles.ContentWidth(v.width)-4, 20)
	end := min(v.scrollY+v.visibleItems(), len(v.tasks))

	var items []string
	for i := v.scrollY; i < end; i++ {
		task := v.tasks[i]
		style := s.ListItem
		if i == v.cursor {
			style = s.ListSelected
		}
		switch agenda.Classify(task, today) {
		case agenda.Overdue:
			style = style.Foreground(styles.Current.Error)
		case agenda.DueTomorrow:
			style = style.Foreground(styles.Current.Warning)
		}
		items = append(items, style.Width(width).Render(truncate(taskLine(task), width-4)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// taskLine is the one-line summary used in the manage list
func taskLine(t models.Task) string {
	mark := " "
	if t.Completed() {
		mark = "✓"
	}
	return fmt.Sprintf("[%s] %s (Due: %s, P: %s, S: %s, Progress: %d%%)",
		mark, t.Title, formatDue(t.DueDate), t.Priority, t.Status, t.Progress)
}

func (v *ManageView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if !v.editingNew {
		formTitle = "Edit Task"
	}

	fieldStyles := make([]lipgloss.Style, fieldCount)
	for i := range fieldStyles {
		fieldStyles[i] = s.Input
	}
	fieldStyles[fieldSave] = s.Button
	if v.editFocusIdx == fieldSave {
		fieldStyles[fieldSave] = s.ButtonFocused
	} else {
		fieldStyles[v.editFocusIdx] = s.InputFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	errLine := ""
	if v.err != "" {
		errLine = s.Error.Render(v.err)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(formTitle),
		"",
		"Task Title:",
		fieldStyles[fieldTitle].Width(inputWidth).Render(v.editTitle.View()),
		"Task Description:",
		fieldStyles[fieldDesc].Render(v.editDesc.View()),
		"Due Date:",
		fieldStyles[fieldDue].Width(16).Render(v.editDue.View()),
		"Priority:",
		fieldStyles[fieldPriority].Render("◀ "+string(models.Priorities[v.priorityIdx])+" ▶"),
		"Status:",
		fieldStyles[fieldStatus].Render("◀ "+string(models.Statuses[v.statusIdx])+" ▶"),
		"Progress (%):",
		fieldStyles[fieldProgress].Width(10).Render(v.editProgress.View()),
		"",
		fieldStyles[fieldSave].Render(" Save "),
		errLine,
		s.TitleMuted.Render("Tab: next • ←→: change option • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ManageView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Error.Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("\"%s\" will be removed permanently.", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
