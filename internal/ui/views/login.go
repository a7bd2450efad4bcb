package views

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/tnm/internal/models"
	"github.com/tgienger/tnm/internal/ui/keys"
	"github.com/tgienger/tnm/internal/ui/styles"
)

// LoginView asks for credentials. Unknown usernames are registered on the spot.
type LoginView struct {
	store    Store
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	username textinput.Model
	password textinput.Model
	focusIdx int // 0=username, 1=password, 2=login button
	busy     bool
	err      string
}

func NewLoginView(store Store) *LoginView {
	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = models.MaxUsernameLen

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	v := &LoginView{
		store:    store,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		username: username,
		password: password,
	}
	v.updateFocus()
	return v
}

type loginFailedMsg struct{ err error }

// Reset clears the form, used after logout
func (v *LoginView) Reset() {
	v.username.Reset()
	v.password.Reset()
	v.focusIdx = 0
	v.busy = false
	v.err = ""
	v.updateFocus()
}

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case loginFailedMsg:
		v.busy = false
		v.err = loginError(msg.err)
		v.password.Reset()
		v.focusIdx = 1
		v.updateFocus()
		return v, nil

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit
		case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.Down):
			v.focusIdx = (v.focusIdx + 1) % 3
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.ShiftTab), key.Matches(msg, v.keys.Up):
			v.focusIdx = (v.focusIdx + 2) % 3
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if v.focusIdx == 0 {
				v.focusIdx = 1
				v.updateFocus()
				return v, nil
			}
			return v, v.submit()
		}
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.username, cmd = v.username.Update(msg)
	case 1:
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func (v *LoginView) submit() tea.Cmd {
	username := strings.TrimSpace(v.username.Value())
	password := v.password.Value()
	if username == "" {
		v.err = "Username cannot be empty"
		return nil
	}

	v.busy = true
	v.err = ""
	store := v.store
	return func() tea.Msg {
		id, registered, err := store.Login(context.Background(), username, password)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		return LoggedIn{UserID: id, Username: username, Registered: registered}
	}
}

func loginError(err error) string {
	switch {
	case errors.Is(err, models.ErrLoginFailed):
		return "Username taken or login failed"
	case errors.Is(err, models.ErrInvalidUsername):
		return "Username must be 1-50 characters"
	}
	return "Login failed: " + err.Error()
}

func (v *LoginView) updateFocus() {
	v.username.Blur()
	v.password.Blur()
	switch v.focusIdx {
	case 0:
		v.username.Focus()
	case 1:
		v.password.Focus()
	}
}

func (v *LoginView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-10, 20, 40)

	userStyle, passStyle, btnStyle := s.Input, s.Input, s.Button
	switch v.focusIdx {
	case 0:
		userStyle = s.InputFocused
	case 1:
		passStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	status := ""
	if v.busy {
		status = s.TitleMuted.Render("Signing in...")
	} else if v.err != "" {
		status = s.Error.Render(v.err)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Task Note Manager"),
		s.TitleMuted.Render("Log in, or pick a new username to register"),
		"",
		"Username:",
		userStyle.Width(inputWidth).Render(v.username.View()),
		"",
		"Password:",
		passStyle.Width(inputWidth).Render(v.password.View()),
		"",
		btnStyle.Render(" Login "),
		"",
		status,
		s.TitleMuted.Render("Tab: next • ↵: login • Ctrl+C: quit"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Frame.Render(form),
	)
	return styles.CenterView(centered, v.width, v.height)
}
