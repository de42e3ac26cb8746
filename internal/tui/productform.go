package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/shopterm/internal/checkout"
	"github.com/naveenspark/shopterm/pkg/domain"
)

type formField int

const (
	formName formField = iota
	formPrice
	formStock
	numFormFields
)

type productCreatedMsg struct {
	product *domain.Product
	err     error
}

type productFormModel struct {
	checkout *checkout.Checkout

	fields     [numFormFields]string
	focus      formField
	submitting bool
	errText    string

	width  int
	height int
}

func newProductFormModel(co *checkout.Checkout) productFormModel {
	return productFormModel{checkout: co}
}

func (m productFormModel) Init() tea.Cmd {
	return nil
}

func (m productFormModel) Update(msg tea.Msg) (productFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case productCreatedMsg:
		m.submitting = false
		if msg.err != nil {
			if msg.product != nil {
				// Created, only the refresh failed.
				return m, func() tea.Msg {
					return statusMsg{text: "product listed, but refresh failed: " + msg.err.Error(), isErr: true}
				}
			}
			m.errText = msg.err.Error()
			return m, nil
		}
		m.fields = [numFormFields]string{}
		m.focus = formName
		name := msg.product.Name
		return m, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("%s listed in the catalog", name)}
		}

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m productFormModel) updateKeys(msg tea.KeyMsg) (productFormModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}

	switch key := msg.String(); key {
	case "ctrl+s":
		return m.submit()
	case "tab", "down":
		m.focus = (m.focus + 1) % numFormFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numFormFields) % numFormFields
	case "enter":
		if m.focus == formStock {
			return m.submit()
		}
		m.focus = (m.focus + 1) % numFormFields
	default:
		m.errText = ""
		m.fields[m.focus] = editRune(m.fields[m.focus], key)
	}
	return m, nil
}

func (m productFormModel) submit() (productFormModel, tea.Cmd) {
	name := strings.TrimSpace(m.fields[formName])
	if name == "" {
		m.errText = "name is required"
		return m, nil
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(m.fields[formPrice]), 64)
	if err != nil || price <= 0 {
		m.errText = "price must be a positive number"
		return m, nil
	}
	stock := 0
	if raw := strings.TrimSpace(m.fields[formStock]); raw != "" {
		stock, err = strconv.Atoi(raw)
		if err != nil || stock < 0 {
			m.errText = "stock must be a non-negative whole number"
			return m, nil
		}
	}

	m.submitting = true
	m.errText = ""
	co := m.checkout
	return m, func() tea.Msg {
		product, err := co.CreateProduct(context.Background(), name, price, stock)
		return productCreatedMsg{product: product, err: err}
	}
}

func (m productFormModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", selectedStyle.Render("List a product"))

	labels := [numFormFields]string{"name", "price", "stock"}
	for f := formName; f < numFormFields; f++ {
		value := m.fields[f]
		if m.focus == f {
			cursor := accentStyle.Render("█")
			fmt.Fprintf(&b, "  %s %s%s\n", inputPromptStyle.Render(fmt.Sprintf("%-7s", labels[f])), normalStyle.Render(value), cursor)
			continue
		}
		if value == "" {
			fmt.Fprintf(&b, "  %s %s\n", metaStyle.Render(fmt.Sprintf("%-7s", labels[f])), inputPlaceholderStyle.Render("..."))
			continue
		}
		fmt.Fprintf(&b, "  %s %s\n", metaStyle.Render(fmt.Sprintf("%-7s", labels[f])), dimStyle.Render(value))
	}

	if m.submitting {
		fmt.Fprintf(&b, "\n  %s\n", dimStyle.Render("listing..."))
	}
	if m.errText != "" {
		fmt.Fprintf(&b, "\n  %s\n", errStyle.Render(m.errText))
	}

	return b.String()
}
