// Command shopterm is the storefront terminal client.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/shopterm/internal/checkout"
	"github.com/naveenspark/shopterm/internal/session"
	"github.com/naveenspark/shopterm/internal/store"
	"github.com/naveenspark/shopterm/internal/tui"
	"github.com/naveenspark/shopterm/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// apiURL returns the gateway base URL, honouring the SHOPTERM_API_URL
// override.
func apiURL() string {
	if u := os.Getenv("SHOPTERM_API_URL"); u != "" {
		return u
	}
	return "http://localhost:9000/api"
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("shopterm " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "logout":
			return runLogout()
		}
	}

	path, err := session.DefaultPath()
	if err != nil {
		return fmt.Errorf("resolve session path: %w", err)
	}

	c := client.New(apiURL(), "")
	sessions := session.NewStore(c, c, path)
	sessions.Restore()

	caches := store.New(c)
	co := checkout.New(c, sessions, caches)

	app := tui.NewApp(c, sessions, caches, co)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runLogout() error {
	path, err := session.DefaultPath()
	if err != nil {
		return err
	}
	sessions := session.NewStore(nil, nil, path)
	if sessions.Restore() == nil {
		fmt.Println("Already logged out.")
		return nil
	}
	fmt.Println(sessions.Logout(""))
	return nil
}

func printHelp() {
	fmt.Print(`shopterm — storefront in your terminal

Usage:
  shopterm            launch the TUI
  shopterm logout     clear the saved session
  shopterm version    show version

Environment:
  SHOPTERM_API_URL       gateway base URL (default http://localhost:9000/api)
  SHOPTERM_SESSION_FILE  session record path (default ~/.shopterm/session.json)
`)
}
