package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tgienger/tnm/internal/agenda"
	"github.com/tgienger/tnm/internal/models"
	"github.com/tgienger/tnm/internal/ui/keys"
	"github.com/tgienger/tnm/internal/ui/styles"
)

var boardHeaders = []string{"ID", "Title", "Description", "Due Date", "Priority", "Status", "Progress"}

// BoardView shows a user's tasks in one table per status, highlighting
// overdue and due-tomorrow rows
type BoardView struct {
	store   Store
	ownerID int64
	styles  *styles.Styles
	keys    keys.KeyMap
	now     func() time.Time

	width   int
	height  int
	scrollY int

	groups  agenda.Groups
	loaded  bool
	warning string // tasks left out of the groups
	err     string
}

func NewBoardView(store Store, ownerID int64, now func() time.Time) *BoardView {
	if now == nil {
		now = time.Now
	}
	return &BoardView{
		store:   store,
		ownerID: ownerID,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		now:     now,
	}
}

type boardLoadedMsg struct {
	tasks []models.Task
}

func (v *BoardView) Init() tea.Cmd {
	return v.loadTasks
}

// Reload fetches the tasks again
func (v *BoardView) Reload() tea.Cmd {
	return v.loadTasks
}

func (v *BoardView) loadTasks() tea.Msg {
	tasks, err := v.store.ListTasks(context.Background(), v.ownerID)
	if err != nil {
		return errMsg{err: err}
	}
	return boardLoadedMsg{tasks: tasks}
}

// Groups returns the tasks currently shown
func (v *BoardView) Groups() agenda.Groups {
	return v.groups
}

func (v *BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case boardLoadedMsg:
		groups, err := agenda.Group(msg.tasks)
		v.groups = groups
		v.loaded = true
		v.err = ""
		v.warning = ""
		if err != nil {
			v.warning = err.Error()
		}
		return v, nil

	case errMsg:
		v.err = msg.err.Error()
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Tab):
			return v, func() tea.Msg { return ShowManage{} }
		case key.Matches(msg, v.keys.Reload):
			return v, v.loadTasks
		case key.Matches(msg, v.keys.Up):
			if v.scrollY > 0 {
				v.scrollY--
			}
			return v, nil
		case key.Matches(msg, v.keys.Down):
			v.scrollY++
			return v, nil
		}
	}
	return v, nil
}

func (v *BoardView) View() string {
	s := v.styles
	if !v.loaded && v.err == "" {
		return s.TitleMuted.Render("Loading...")
	}

	today := agenda.Today(v.now())
	width := styles.ContentWidth(v.width)

	var sections []string
	for _, status := range models.Statuses {
		sections = append(sections,
			s.StatusLabel.Render(string(status)),
			v.renderTable(v.groups.Bucket(status), today, width),
		)
	}
	body := strings.Split(lipgloss.JoinVertical(lipgloss.Left, sections...), "\n")

	// scroll the body, keeping room for the status and help lines
	visible := len(body)
	if v.height > 0 {
		visible = max(v.height-6, 3)
	}
	v.scrollY = clamp(v.scrollY, 0, max(len(body)-visible, 0))
	end := min(v.scrollY+visible, len(body))

	var b strings.Builder
	b.WriteString(strings.Join(body[v.scrollY:end], "\n"))
	b.WriteString("\n")
	if v.err != "" {
		b.WriteString(s.Error.Render("Error: "+v.err) + "\n")
	}
	if v.warning != "" {
		b.WriteString(s.Error.Render(v.warning) + "\n")
	}
	b.WriteString(renderHelp(s,
		"↑↓", "scroll",
		"r", "reload",
		"tab", "manage tasks",
		"ctrl+l", "logout",
		"q", "quit",
	))

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *BoardView) renderTable(tasks []models.Task, today time.Time, width int) string {
	s := v.styles
	if len(tasks) == 0 {
		return s.TitleMuted.Render("  No tasks")
	}

	descWidth := clamp(width-70, 10, 40)
	rows := make([][]string, len(tasks))
	classes := make([]agenda.Class, len(tasks))
	for i, t := range tasks {
		classes[i] = agenda.Classify(t, today)
		rows[i] = []string{
			strconv.FormatInt(t.ID, 10),
			truncate(t.Title, 30),
			truncate(formatDescription(t.Description), descWidth),
			formatDue(t.DueDate),
			string(t.Priority),
			string(t.Status),
			fmt.Sprintf("%d%%", t.Progress),
		}
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.TableBorder).
		Headers(boardHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if row < 0 || row >= len(classes) {
				return s.TableCell
			}
			return s.Highlight(classes[row], s.TableCell)
		})
	return tbl.Render()
}
