package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/tgienger/tnm/internal/notify"
	"github.com/tgienger/tnm/internal/ui/keys"
	"github.com/tgienger/tnm/internal/ui/styles"
	"github.com/tgienger/tnm/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewLogin View = iota
	ViewBoard
	ViewManage
)

// Options tune the app; the zero value is usable
type Options struct {
	// NotifyInterval is the due-tomorrow poll period, one hour when zero
	NotifyInterval time.Duration
	// Notifier receives reminders in addition to the in-app banner
	Notifier notify.Notifier
	// Now overrides the clock, for tests
	Now func() time.Time
}

// session is the state of one logged-in user
type session struct {
	id       uuid.UUID
	userID   int64
	username string
	cancel   context.CancelFunc
	notices  notify.ChanNotifier
	ctx      context.Context
}

type App struct {
	store       views.Store
	log         *slog.Logger
	opts        Options
	styles      *styles.Styles
	keys        keys.KeyMap
	currentView View
	login       *views.LoginView
	board       *views.BoardView
	manage      *views.ManageView
	session     *session
	banner      string
	width       int
	height      int
}

// noticeMsg is a reminder delivered by the watcher of a session
type noticeMsg struct {
	session uuid.UUID
	notice  notify.Notice
}

// Creates a new application
func NewApp(store views.Store, log *slog.Logger, opts Options) *App {
	if opts.NotifyInterval <= 0 {
		opts.NotifyInterval = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &App{
		store:       store,
		log:         log,
		opts:        opts,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		currentView: ViewLogin,
		login:       views.NewLoginView(store),
	}
}

func (a *App) Init() tea.Cmd {
	return a.login.Init()
}

// CurrentView returns the active view
func (a *App) CurrentView() View {
	return a.currentView
}

// UserID returns the logged-in user, 0 when logged out
func (a *App) UserID() int64 {
	if a.session == nil {
		return 0
	}
	return a.session.userID
}

// Banner returns the latest status line shown above the views
func (a *App) Banner() string {
	return a.banner
}

// Close stops the reminder watcher of the current session
func (a *App) Close() {
	a.endSession()
}

func (a *App) startSession(msg views.LoggedIn) tea.Cmd {
	a.endSession()

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:       uuid.New(),
		userID:   msg.UserID,
		username: msg.Username,
		cancel:   cancel,
		notices:  make(notify.ChanNotifier, 16),
		ctx:      ctx,
	}
	a.session = s

	log := a.log.With("session", s.id.String(), "user_id", s.userID)
	log.Info("session started", "registered", msg.Registered)

	var notifier notify.Notifier = s.notices
	if a.opts.Notifier != nil {
		notifier = notify.Multi{s.notices, a.opts.Notifier}
	}
	watcher := notify.NewWatcher(log, a.store, notifier, a.opts.NotifyInterval).WithClock(a.opts.Now)
	go watcher.Run(ctx, s.userID)

	a.board = views.NewBoardView(a.store, s.userID, a.opts.Now)
	a.manage = views.NewManageView(a.store, s.userID, a.opts.Now)
	a.currentView = ViewBoard
	a.banner = ""
	if msg.Registered {
		a.banner = "User registered successfully"
	}

	return tea.Batch(
		a.board.Init(),
		a.manage.Init(),
		a.listen(s),
		a.resize(),
	)
}

func (a *App) endSession() {
	if a.session == nil {
		return
	}
	a.session.cancel()
	a.log.Info("session ended", "session", a.session.id.String())
	a.session = nil
}

func (a *App) logout() tea.Cmd {
	a.endSession()
	a.board = nil
	a.manage = nil
	a.banner = ""
	a.currentView = ViewLogin
	a.login.Reset()
	return tea.Batch(a.login.Init(), a.resize())
}

// listen waits for the next reminder of s; it returns nothing once s ends
func (a *App) listen(s *session) tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-s.notices:
			return noticeMsg{session: s.id, notice: n}
		case <-s.ctx.Done():
			return nil
		}
	}
}

func (a *App) resize() tea.Cmd {
	w, h := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// views get two lines less for the navigation bar and banner
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-2, 0)}
		a.login.Update(msg)
		if a.board != nil {
			a.board.Update(inner)
			a.manage.Update(inner)
		}
		return a, nil

	case views.LoggedIn:
		return a, a.startSession(msg)

	case noticeMsg:
		if a.session == nil || msg.session != a.session.id {
			return a, nil
		}
		a.banner = msg.notice.Message()
		return a, a.listen(a.session)

	case views.ShowBoard:
		if a.board != nil {
			a.currentView = ViewBoard
		}
		return a, nil

	case views.ShowManage:
		if a.manage != nil {
			a.currentView = ViewManage
		}
		return a, nil

	case views.TasksChanged:
		if a.board != nil {
			return a, a.board.Reload()
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.session != nil && key.Matches(msg, a.keys.Logout) {
			return a, a.logout()
		}
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewLogin:
		_, cmd = a.login.Update(msg)
	case ViewBoard:
		_, cmd = a.board.Update(msg)
		// loads issued by the manage view must still reach it
		if !isKey(msg) {
			var mcmd tea.Cmd
			_, mcmd = a.manage.Update(msg)
			cmd = tea.Batch(cmd, mcmd)
		}
	case ViewManage:
		_, cmd = a.manage.Update(msg)
		if !isKey(msg) {
			var bcmd tea.Cmd
			_, bcmd = a.board.Update(msg)
			cmd = tea.Batch(cmd, bcmd)
		}
	}

	return a, cmd
}

func isKey(msg tea.Msg) bool {
	_, ok := msg.(tea.KeyMsg)
	return ok
}

func (a *App) View() string {
	if a.currentView == ViewLogin {
		return a.login.View()
	}

	var body string
	switch a.currentView {
	case ViewBoard:
		body = a.board.View()
	case ViewManage:
		body = a.manage.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, a.renderNav(), body)
}

func (a *App) renderNav() string {
	s := a.styles
	tab := func(label string, v View) string {
		if a.currentView == v {
			return s.TabActive.Render(label)
		}
		return s.Tab.Render(label)
	}

	parts := []string{
		tab("Task List", ViewBoard),
		tab("Manage Tasks", ViewManage),
		s.TitleMuted.Render("  " + a.session.username),
	}
	nav := strings.Join(parts, " ")
	if a.banner != "" {
		nav = lipgloss.JoinVertical(lipgloss.Left, nav, s.Notice.Render(a.banner))
	} else {
		nav += "\n"
	}
	return nav
}
