package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/shopterm/internal/authz"
	"github.com/naveenspark/shopterm/internal/checkout"
	"github.com/naveenspark/shopterm/internal/session"
	"github.com/naveenspark/shopterm/internal/store"
	"github.com/naveenspark/shopterm/pkg/client"
)

type view int

const (
	viewAuth view = iota
	viewCatalog
	viewOrders
	viewUsers
	viewNewProduct
)

// messageTimeout is how long the status bar shows a message before it
// auto-dismisses.
const messageTimeout = 3500 * time.Millisecond

// expiryPollInterval is how often the app checks the session expiry.
const expiryPollInterval = time.Second

type expiryTickMsg time.Time

func expiryTickCmd() tea.Cmd {
	return tea.Tick(expiryPollInterval, func(t time.Time) tea.Msg {
		return expiryTickMsg(t)
	})
}

// sessionChangedMsg announces a login, logout or forced expiry. The
// caches re-sync in response; note lands in the status bar.
type sessionChangedMsg struct {
	note  string
	isErr bool
}

// cachesSyncedMsg carries the result of a cache re-sync after a session
// change.
type cachesSyncedMsg struct {
	err error
}

// statusMsg puts a message in the status bar.
type statusMsg struct {
	text  string
	isErr bool
}

// dismissMsg clears the status bar if no newer message replaced it.
type dismissMsg struct {
	seq int
}

// App is the root Bubbletea model.
type App struct {
	sessions *session.Store
	caches   *store.Store
	orders   ordersModel
	catalog  catalogModel
	users    usersModel
	auth     authModel
	form     productFormModel

	view view

	message string
	msgErr  bool
	msgSeq  int

	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the TUI application. The session may already be
// restored; the initial view follows from it.
func NewApp(c *client.Client, sessions *session.Store, caches *store.Store, co *checkout.Checkout) App {
	a := App{
		sessions: sessions,
		caches:   caches,
		auth:     newAuthModel(sessions, c),
		catalog:  newCatalogModel(caches, co),
		orders:   newOrdersModel(sessions, caches, co),
		users:    newUsersModel(caches),
		form:     newProductFormModel(co),
	}
	a.view = routeView(authz.DefaultRoute(sessions.Current()))
	return a
}

func routeView(r authz.Route) view {
	switch r.Name {
	case "catalog":
		return viewCatalog
	case "orders":
		return viewOrders
	case "users":
		return viewUsers
	default:
		return viewAuth
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		shimmerTickCmd(),
		expiryTickCmd(),
		a.catalog.loadProducts(),
		a.syncCaches(),
	)
}

// syncCaches re-loads the private caches for the current session.
func (a App) syncCaches() tea.Cmd {
	sessions, caches := a.sessions, a.caches
	return func() tea.Msg {
		return cachesSyncedMsg{err: caches.OnSessionChange(context.Background(), sessions.Current())}
	}
}

func (a App) showStatus(text string, isErr bool) (App, tea.Cmd) {
	a.message = text
	a.msgErr = isErr
	a.msgSeq++
	seq := a.msgSeq
	return a, tea.Tick(messageTimeout, func(time.Time) tea.Msg {
		return dismissMsg{seq: seq}
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + status(1) + help(1) = 5 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.auth, _ = a.auth.Update(bodyMsg)
		a.catalog, _ = a.catalog.Update(bodyMsg)
		a.orders, _ = a.orders.Update(bodyMsg)
		a.users, _ = a.users.Update(bodyMsg)
		a.form, _ = a.form.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case expiryTickMsg:
		if reason, expired := a.sessions.EnforceExpiry(); expired {
			var cmd tea.Cmd
			a, cmd = a.showStatus(reason, true)
			a.view = routeView(authz.DefaultRoute(nil))
			return a, tea.Batch(cmd, a.syncCaches(), expiryTickCmd())
		}
		return a, expiryTickCmd()

	case sessionChangedMsg:
		var cmd tea.Cmd
		a, cmd = a.showStatus(msg.note, msg.isErr)
		a.view = routeView(authz.DefaultRoute(a.sessions.Current()))
		return a, tea.Batch(cmd, a.syncCaches())

	case cachesSyncedMsg:
		if msg.err != nil {
			return a.showStatus("some data failed to load: "+msg.err.Error(), true)
		}
		return a, nil

	case statusMsg:
		return a.showStatus(msg.text, msg.isErr)

	case dismissMsg:
		if msg.seq == a.msgSeq {
			a.message = ""
		}
		return a, nil

	case tea.KeyMsg:
		if !a.isEditing() {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1", "2", "3", "4":
				return a.switchTab(msg.String())
			case "n":
				if a.view == viewCatalog && authz.CanCreateProduct(a.sessions.Current()) {
					a.view = viewNewProduct
					a.form = newProductFormModel(a.form.checkout)
					return a, nil
				}
			case "L":
				if a.sessions.Current() != nil {
					note := a.sessions.Logout("")
					return a, func() tea.Msg {
						return sessionChangedMsg{note: note}
					}
				}
			case "esc":
				if a.view == viewNewProduct {
					a.view = viewCatalog
					return a, nil
				}
			}
		} else if msg.String() == "esc" && a.view == viewNewProduct {
			a.view = viewCatalog
			return a, nil
		}
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewAuth:
		a.auth, cmd = a.auth.Update(msg)
	case viewCatalog:
		a.catalog, cmd = a.catalog.Update(msg)
	case viewOrders:
		a.orders, cmd = a.orders.Update(msg)
	case viewUsers:
		a.users, cmd = a.users.Update(msg)
	case viewNewProduct:
		a.form, cmd = a.form.Update(msg)
	}
	return a, cmd
}

// switchTab routes a number key through the route table; a denied tab
// redirects to the default route rather than erroring.
func (a App) switchTab(key string) (tea.Model, tea.Cmd) {
	idx := int(key[0] - '1')
	if idx < 0 || idx >= len(authz.Routes) {
		return a, nil
	}
	route := authz.Routes[idx]
	if !authz.CanAccessRoute(a.sessions.Current(), route) {
		route = authz.DefaultRoute(a.sessions.Current())
	}
	target := routeView(route)
	if target == a.view {
		return a, nil
	}
	a.view = target
	switch target {
	case viewCatalog:
		return a, a.catalog.loadProducts()
	case viewOrders, viewUsers:
		return a, nil
	}
	return a, nil
}

func (a App) isEditing() bool {
	switch a.view {
	case viewAuth:
		return a.auth.focused
	case viewNewProduct:
		return true
	case viewCatalog:
		return a.catalog.buying
	}
	return false
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)

	// Identity line below logo
	identity := ""
	if sess := a.sessions.Current(); sess.Valid() {
		identity = metaStyle.Render(sess.User.Name+" ") +
			RoleStyle(sess.User.Role).Render(string(sess.User.Role))
	} else {
		identity = metaStyle.Render("not signed in")
	}

	logoWidth := lipgloss.Width(logo)
	logoPad := (a.width - logoWidth) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	idWidth := lipgloss.Width(identity)
	idPad := (a.width - idWidth) / 2
	if idPad < 0 {
		idPad = 0
	}
	header += "\n" + strings.Repeat(" ", idPad) + identity

	// Tab bar from the route table: inaccessible tabs render dimmed.
	tabNames := map[string]string{
		"auth":    "Account",
		"catalog": "Catalog",
		"orders":  "Orders",
		"users":   "Users",
	}
	colWidth := a.width / len(authz.Routes)
	var tabBar strings.Builder
	for i, route := range authz.Routes {
		key := fmt.Sprintf("%d", i+1)
		name := tabNames[route.Name]
		var label string
		switch {
		case routeView(route) == a.view || (a.view == viewNewProduct && route.Name == "catalog"):
			label = accentStyle.Render(key) + " " + selectedStyle.Underline(true).Render(name)
		case !authz.CanAccessRoute(a.sessions.Current(), route):
			label = inputPlaceholderStyle.Render(key + " " + name)
		default:
			label = metaStyle.Render(key) + " " + dimStyle.Render(name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}

	// Body + help bar
	var body, help string
	switch a.view {
	case viewAuth:
		body = a.auth.View()
		help = " " + a.auth.helpKeys()
	case viewCatalog:
		body = a.catalog.View()
		help = " " + a.catalog.helpKeys(authz.CanCreateProduct(a.sessions.Current()), authz.CanPurchase(a.sessions.Current()))
	case viewOrders:
		body = a.orders.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + helpEntry("j/k", "nav") + "  " + helpEntry("c", "cancel") + "  " + helpEntry("y", "copy id") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("q", "quit")
	case viewUsers:
		body = a.users.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + helpEntry("j/k", "nav") + "  " + helpEntry("r", "refresh") + "  " + helpEntry("q", "quit")
	case viewNewProduct:
		body = a.form.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("ctrl+s", "submit") + "  " + helpEntry("esc", "cancel")
	}

	// Status bar
	status := ""
	switch {
	case a.message != "" && a.msgErr:
		status = " " + errStyle.Render(a.message)
	case a.message != "":
		status = " " + okStyle.Render(a.message)
	}

	chrome := 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar.String(), body, status, help)
}
