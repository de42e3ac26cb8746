package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/shopterm/internal/session"
	"github.com/naveenspark/shopterm/pkg/client"
	"github.com/naveenspark/shopterm/pkg/domain"
)

type authMode int

const (
	modeLogin authMode = iota
	modeRegister
)

type authField int

const (
	fieldName authField = iota
	fieldEmail
	fieldPassword
	fieldRole
	numAuthFields
)

// RegisterAPI is the slice of the gateway client the auth screen needs
// beyond the session store.
type RegisterAPI interface {
	Register(ctx context.Context, req client.RegisterRequest) (*domain.User, error)
}

type loginDoneMsg struct {
	sess *domain.Session
	err  error
}

type registerDoneMsg struct {
	user *domain.User
	err  error
}

type authModel struct {
	sessions *session.Store
	api      RegisterAPI

	mode       authMode
	fields     [numAuthFields]string
	roleIdx    int
	focus      authField
	focused    bool
	submitting bool
	errText    string

	width  int
	height int
}

func newAuthModel(sessions *session.Store, api RegisterAPI) authModel {
	return authModel{
		sessions: sessions,
		api:      api,
		focus:    fieldEmail,
		focused:  true,
	}
}

func (m authModel) Init() tea.Cmd {
	return nil
}

// visibleFields lists the form fields the current mode shows, in order.
func (m authModel) visibleFields() []authField {
	if m.mode == modeRegister {
		return []authField{fieldName, fieldEmail, fieldPassword, fieldRole}
	}
	return []authField{fieldEmail, fieldPassword}
}

func (m authModel) nextField(delta int) authField {
	fields := m.visibleFields()
	cur := 0
	for i, f := range fields {
		if f == m.focus {
			cur = i
		}
	}
	return fields[(cur+delta+len(fields))%len(fields)]
}

func (m authModel) Update(msg tea.Msg) (authModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.fields[fieldPassword] = ""
		m.errText = ""
		name := msg.sess.User.Name
		return m, func() tea.Msg {
			return sessionChangedMsg{note: "welcome back, " + name}
		}

	case registerDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		// Registration does not sign in; switch to the login form with
		// the email pre-filled.
		m.mode = modeLogin
		m.focus = fieldPassword
		m.fields[fieldPassword] = ""
		m.errText = ""
		return m, func() tea.Msg {
			return statusMsg{text: "account created, sign in to continue"}
		}

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m authModel) updateKeys(msg tea.KeyMsg) (authModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}

	key := msg.String()

	if !m.focused {
		switch key {
		case "enter", "i":
			m.focused = true
		case "tab":
			m = m.toggleMode()
		}
		return m, nil
	}

	switch key {
	case "esc":
		m.focused = false
		return m, nil
	case "ctrl+t":
		return m.toggleMode(), nil
	case "tab", "down":
		m.focus = m.nextField(1)
		return m, nil
	case "shift+tab", "up":
		m.focus = m.nextField(-1)
		return m, nil
	case "enter":
		if m.focus == fieldPassword && m.mode == modeLogin {
			return m.submit()
		}
		if m.focus == fieldRole && m.mode == modeRegister {
			return m.submit()
		}
		m.focus = m.nextField(1)
		return m, nil
	case "left", "h":
		if m.focus == fieldRole {
			m.roleIdx = (m.roleIdx - 1 + len(domain.RegisterRoles)) % len(domain.RegisterRoles)
			return m, nil
		}
	case "right", "l":
		if m.focus == fieldRole {
			m.roleIdx = (m.roleIdx + 1) % len(domain.RegisterRoles)
			return m, nil
		}
	}

	if m.focus != fieldRole {
		m.errText = ""
		m.fields[m.focus] = editRune(m.fields[m.focus], key)
	}
	return m, nil
}

func (m authModel) toggleMode() authModel {
	if m.mode == modeLogin {
		m.mode = modeRegister
		m.focus = fieldName
	} else {
		m.mode = modeLogin
		m.focus = fieldEmail
	}
	m.errText = ""
	return m
}

func (m authModel) submit() (authModel, tea.Cmd) {
	email := strings.TrimSpace(m.fields[fieldEmail])
	password := m.fields[fieldPassword]
	if email == "" || password == "" {
		m.errText = "email and password are required"
		return m, nil
	}

	m.submitting = true
	m.errText = ""

	if m.mode == modeLogin {
		sessions := m.sessions
		return m, func() tea.Msg {
			sess, err := sessions.Login(context.Background(), email, password)
			return loginDoneMsg{sess: sess, err: err}
		}
	}

	name := strings.TrimSpace(m.fields[fieldName])
	if name == "" {
		m.submitting = false
		m.errText = "name is required"
		return m, nil
	}
	role := domain.RegisterRoles[m.roleIdx]
	api := m.api
	return m, func() tea.Msg {
		user, err := api.Register(context.Background(), client.RegisterRequest{
			Name:     name,
			Email:    email,
			Password: password,
			Role:     role,
		})
		return registerDoneMsg{user: user, err: err}
	}
}

func (m authModel) helpKeys() string {
	if !m.focused {
		return helpEntry("enter", "edit") + "  " + helpEntry("tab", "switch form") + "  " + helpEntry("1-4", "tabs") + "  " + helpEntry("q", "quit")
	}
	base := helpEntry("tab", "next") + "  " + helpEntry("enter", "submit") + "  " + helpEntry("ctrl+t", "switch form") + "  " + helpEntry("esc", "nav")
	if m.mode == modeRegister && m.focus == fieldRole {
		base = helpEntry("h/l", "role") + "  " + base
	}
	return base
}

func (m authModel) View() string {
	var b strings.Builder

	title := "Sign in"
	hint := "ctrl+t to create an account"
	if m.mode == modeRegister {
		title = "Create account"
		hint = "ctrl+t to sign in instead"
	}
	fmt.Fprintf(&b, "\n  %s  %s\n\n", selectedStyle.Render(title), metaStyle.Render(hint))

	renderField := func(f authField, label, value string, secret bool) {
		shown := value
		if secret {
			shown = strings.Repeat("*", len([]rune(value)))
		}
		cursor := ""
		if m.focused && m.focus == f {
			cursor = accentStyle.Render("█")
			fmt.Fprintf(&b, "  %s %s%s\n", inputPromptStyle.Render(fmt.Sprintf("%-10s", label)), normalStyle.Render(shown), cursor)
			return
		}
		if shown == "" {
			shown = inputPlaceholderStyle.Render("...")
			fmt.Fprintf(&b, "  %s %s\n", metaStyle.Render(fmt.Sprintf("%-10s", label)), shown)
			return
		}
		fmt.Fprintf(&b, "  %s %s\n", metaStyle.Render(fmt.Sprintf("%-10s", label)), dimStyle.Render(shown))
	}

	if m.mode == modeRegister {
		renderField(fieldName, "name", m.fields[fieldName], false)
	}
	renderField(fieldEmail, "email", m.fields[fieldEmail], false)
	renderField(fieldPassword, "password", m.fields[fieldPassword], true)

	if m.mode == modeRegister {
		var roles []string
		for i, r := range domain.RegisterRoles {
			label := string(r)
			if i == m.roleIdx {
				if m.focused && m.focus == fieldRole {
					roles = append(roles, accentStyle.Render("["+label+"]"))
				} else {
					roles = append(roles, selectedStyle.Render("["+label+"]"))
				}
			} else {
				roles = append(roles, metaStyle.Render(" "+label+" "))
			}
		}
		fmt.Fprintf(&b, "  %s %s\n", metaStyle.Render(fmt.Sprintf("%-10s", "role")), strings.Join(roles, " "))
	}

	if m.submitting {
		fmt.Fprintf(&b, "\n  %s\n", dimStyle.Render("submitting..."))
	}
	if m.errText != "" {
		fmt.Fprintf(&b, "\n  %s\n", errStyle.Render(m.errText))
	}

	return b.String()
}
