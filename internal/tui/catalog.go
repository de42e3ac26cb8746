package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/shopterm/internal/checkout"
	"github.com/naveenspark/shopterm/internal/store"
	"github.com/naveenspark/shopterm/pkg/domain"
)

type productsLoadedMsg struct {
	err error
}

type orderPlacedMsg struct {
	res *checkout.Result
	err error
}

type catalogModel struct {
	caches   *store.Store
	checkout *checkout.Checkout

	cursor  int
	buying  bool
	qty     string
	loading bool

	width  int
	height int
}

func newCatalogModel(caches *store.Store, co *checkout.Checkout) catalogModel {
	return catalogModel{caches: caches, checkout: co}
}

func (m catalogModel) Init() tea.Cmd {
	return m.loadProducts()
}

func (m catalogModel) loadProducts() tea.Cmd {
	caches := m.caches
	return func() tea.Msg {
		return productsLoadedMsg{err: caches.RefreshProducts(context.Background())}
	}
}

func (m catalogModel) placeOrder(productID string, qty int) tea.Cmd {
	co := m.checkout
	return func() tea.Msg {
		res, err := co.PlaceOrder(context.Background(), productID, qty)
		return orderPlacedMsg{res: res, err: err}
	}
}

func (m catalogModel) selected() (domain.Product, bool) {
	products := m.caches.Products()
	if m.cursor < 0 || m.cursor >= len(products) {
		return domain.Product{}, false
	}
	return products[m.cursor], true
}

func (m catalogModel) Update(msg tea.Msg) (catalogModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case productsLoadedMsg:
		m.loading = false
		if n := len(m.caches.Products()); m.cursor >= n && n > 0 {
			m.cursor = n - 1
		}
		if msg.err != nil {
			return m, func() tea.Msg {
				return statusMsg{text: "catalog refresh failed: " + msg.err.Error(), isErr: true}
			}
		}
		return m, nil

	case orderPlacedMsg:
		if msg.err != nil {
			// The order may still have gone through when only the
			// refresh failed.
			if msg.res != nil {
				return m, func() tea.Msg {
					return statusMsg{text: "order placed, but refresh failed: " + msg.err.Error(), isErr: true}
				}
			}
			err := msg.err
			return m, func() tea.Msg {
				return statusMsg{text: err.Error(), isErr: true}
			}
		}
		note := fmt.Sprintf("order %s placed", shortID(msg.res.Order.ID))
		if msg.res.Replay {
			note = fmt.Sprintf("order %s already placed (replay)", shortID(msg.res.Order.ID))
		}
		return m, func() tea.Msg {
			return statusMsg{text: note}
		}

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m catalogModel) updateKeys(msg tea.KeyMsg) (catalogModel, tea.Cmd) {
	key := msg.String()

	// Quantity prompt captures keys while open.
	if m.buying {
		switch key {
		case "esc":
			m.buying = false
			m.qty = ""
		case "enter":
			p, ok := m.selected()
			if !ok {
				m.buying = false
				return m, nil
			}
			qty, err := strconv.Atoi(strings.TrimSpace(m.qty))
			if err != nil || qty < 1 {
				m.buying = false
				m.qty = ""
				return m, func() tea.Msg {
					return statusMsg{text: "quantity must be a positive number", isErr: true}
				}
			}
			m.buying = false
			m.qty = ""
			return m, m.placeOrder(p.ID, qty)
		default:
			if len(key) == 1 && key[0] >= '0' && key[0] <= '9' && len(m.qty) < 4 {
				m.qty += key
			} else if key == "backspace" && len(m.qty) > 0 {
				m.qty = m.qty[:len(m.qty)-1]
			}
		}
		return m, nil
	}

	products := m.caches.Products()
	switch key {
	case "j", "down":
		if m.cursor < len(products)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		m.loading = true
		return m, m.loadProducts()
	case "b", "enter":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		if p.Stock <= 0 {
			return m, func() tea.Msg {
				return statusMsg{text: "out of stock", isErr: true}
			}
		}
		m.buying = true
		m.qty = ""
	case "c":
		if p, ok := m.selected(); ok {
			if err := clipboard.WriteAll(p.ID); err == nil {
				return m, func() tea.Msg {
					return statusMsg{text: "product id copied"}
				}
			}
		}
	}
	return m, nil
}

func (m catalogModel) helpKeys(canCreate, canPurchase bool) string {
	if m.buying {
		return helpEntry("enter", "confirm") + "  " + helpEntry("esc", "cancel")
	}
	parts := []string{helpEntry("1-4", "tabs"), helpEntry("j/k", "nav")}
	if canPurchase {
		parts = append(parts, helpEntry("b", "buy"))
	}
	if canCreate {
		parts = append(parts, helpEntry("n", "list product"))
	}
	parts = append(parts, helpEntry("c", "copy id"), helpEntry("r", "refresh"), helpEntry("L", "logout"), helpEntry("q", "quit"))
	return strings.Join(parts, "  ")
}

func (m catalogModel) View() string {
	products := m.caches.Products()

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", sectionHeaderStyle.Render(fmt.Sprintf("Catalog — %d products", len(products))))

	if m.loading {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render("refreshing..."))
		return b.String()
	}
	if len(products) == 0 {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render("the shelves are empty"))
		return b.String()
	}

	nameWidth := 32
	for i, p := range products {
		line := fmt.Sprintf("  %-*s  %10s  %s",
			nameWidth, truncStr(p.Name, nameWidth),
			formatPrice(p.Price),
			renderStock(p.Stock))
		if i == m.cursor {
			line = selectedRowBg.Render("> " + line[2:])
		} else {
			line = normalStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if m.buying {
		p, _ := m.selected()
		cursor := accentStyle.Render("█")
		fmt.Fprintf(&b, "\n  %s %s%s\n",
			inputPromptStyle.Render("quantity for "+truncStr(p.Name, 24)+" >"),
			normalStyle.Render(m.qty), cursor)
	}

	return b.String()
}

// renderStock colors the stock column: normal, low (<5), or out.
func renderStock(stock int) string {
	switch {
	case stock <= 0:
		return stockOutStyle.Render("out of stock")
	case stock < 5:
		return stockLowStyle.Render(fmt.Sprintf("%d left", stock))
	default:
		return dimStyle.Render(fmt.Sprintf("%d in stock", stock))
	}
}
