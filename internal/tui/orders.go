package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/shopterm/internal/checkout"
	"github.com/naveenspark/shopterm/internal/session"
	"github.com/naveenspark/shopterm/internal/store"
	"github.com/naveenspark/shopterm/pkg/domain"
)

type ordersLoadedMsg struct {
	err error
}

type orderCancelledMsg struct {
	order *domain.Order
	err   error
}

type ordersModel struct {
	sessions *session.Store
	caches   *store.Store
	checkout *checkout.Checkout

	cursor  int
	loading bool

	width  int
	height int
}

func newOrdersModel(sessions *session.Store, caches *store.Store, co *checkout.Checkout) ordersModel {
	return ordersModel{sessions: sessions, caches: caches, checkout: co}
}

func (m ordersModel) Init() tea.Cmd {
	return nil
}

func (m ordersModel) refresh() tea.Cmd {
	caches := m.caches
	return func() tea.Msg {
		return ordersLoadedMsg{err: caches.RefreshOrders(context.Background())}
	}
}

func (m ordersModel) cancel(orderID string) tea.Cmd {
	co := m.checkout
	return func() tea.Msg {
		order, err := co.CancelOrder(context.Background(), orderID)
		return orderCancelledMsg{order: order, err: err}
	}
}

func (m ordersModel) selected() (domain.Order, bool) {
	orders := m.caches.Orders()
	if m.cursor < 0 || m.cursor >= len(orders) {
		return domain.Order{}, false
	}
	return orders[m.cursor], true
}

func (m ordersModel) Update(msg tea.Msg) (ordersModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ordersLoadedMsg:
		m.loading = false
		if n := len(m.caches.Orders()); m.cursor >= n && n > 0 {
			m.cursor = n - 1
		}
		if msg.err != nil {
			return m, func() tea.Msg {
				return statusMsg{text: "orders refresh failed: " + msg.err.Error(), isErr: true}
			}
		}
		return m, nil

	case orderCancelledMsg:
		if msg.err != nil {
			if msg.order != nil {
				return m, func() tea.Msg {
					return statusMsg{text: "order cancelled, but refresh failed: " + msg.err.Error(), isErr: true}
				}
			}
			err := msg.err
			return m, func() tea.Msg {
				return statusMsg{text: err.Error(), isErr: true}
			}
		}
		id := shortID(msg.order.ID)
		return m, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("order %s cancelled", id)}
		}

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m ordersModel) updateKeys(msg tea.KeyMsg) (ordersModel, tea.Cmd) {
	orders := m.caches.Orders()
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(orders)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		m.loading = true
		return m, m.refresh()
	case "c":
		o, ok := m.selected()
		if !ok {
			return m, nil
		}
		if o.Status.Terminal() {
			return m, func() tea.Msg {
				return statusMsg{text: "only CREATED orders can be cancelled", isErr: true}
			}
		}
		return m, m.cancel(o.ID)
	case "y":
		o, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := clipboard.WriteAll(o.ID); err == nil {
			return m, func() tea.Msg {
				return statusMsg{text: "order id copied"}
			}
		}
	}
	return m, nil
}

func (m ordersModel) View() string {
	orders := m.caches.Orders()

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", sectionHeaderStyle.Render(fmt.Sprintf("Orders — %d", len(orders))))

	if m.loading {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render("refreshing..."))
		return b.String()
	}
	if len(orders) == 0 {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render("no orders yet"))
		return b.String()
	}

	admin := false
	if sess := m.sessions.Current(); sess.Valid() {
		admin = sess.User.Role == domain.RoleAdmin
	}

	for i, o := range orders {
		status := StatusStyle(o.Status).Render(fmt.Sprintf("%-9s", string(o.Status)))
		line := fmt.Sprintf("  %-9s %s  x%-3d %10s  %s",
			shortID(o.ID), status, o.Quantity, formatPrice(o.TotalAmount), metaStyle.Render(formatTime(o.CreatedAt)))
		if admin && o.UserID != "" {
			line += "  " + metaStyle.Render("by "+shortID(o.UserID))
		}
		if o.Status == domain.OrderFailed && o.FailureReason != "" {
			line += "  " + errStyle.Render(truncStr(o.FailureReason, 32))
		}
		if i == m.cursor {
			line = selectedRowBg.Render("> " + line[2:])
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}
