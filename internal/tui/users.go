package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/shopterm/internal/store"
)

type usersLoadedMsg struct {
	err error
}

type usersModel struct {
	caches *store.Store

	cursor  int
	loading bool

	width  int
	height int
}

func newUsersModel(caches *store.Store) usersModel {
	return usersModel{caches: caches}
}

func (m usersModel) Init() tea.Cmd {
	return nil
}

func (m usersModel) refresh() tea.Cmd {
	caches := m.caches
	return func() tea.Msg {
		return usersLoadedMsg{err: caches.RefreshUsers(context.Background())}
	}
}

func (m usersModel) Update(msg tea.Msg) (usersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case usersLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m, func() tea.Msg {
				return statusMsg{text: "user directory refresh failed: " + msg.err.Error(), isErr: true}
			}
		}
		return m, nil

	case tea.KeyMsg:
		users := m.caches.Users()
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(users)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "r":
			m.loading = true
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m usersModel) View() string {
	users := m.caches.Users()

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", sectionHeaderStyle.Render(fmt.Sprintf("Users — %d", len(users))))

	if m.loading {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render("refreshing..."))
		return b.String()
	}
	if len(users) == 0 {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render("directory is empty"))
		return b.String()
	}

	for i, u := range users {
		active := okStyle.Render("active")
		if !u.IsActive {
			active = errStyle.Render("inactive")
		}
		line := fmt.Sprintf("  %-24s %-32s %s %s  %s",
			truncStr(u.Name, 24),
			metaStyle.Render(truncStr(u.Email, 32)),
			RoleStyle(u.Role).Render(fmt.Sprintf("%-8s", string(u.Role))),
			active,
			metaStyle.Render("joined "+formatTime(u.CreatedAt)))
		if i == m.cursor {
			line = selectedRowBg.Render("> " + line[2:])
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}
