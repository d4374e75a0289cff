package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hqv/mailsweep/internal/app"
	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the configuration file")
	dbPath := flag.String("db", defaultDBPath(), "path to the SQLite database")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mailsweep: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mailsweep: creating data directory: %v\n", err)
		os.Exit(1)
	}

	s, err := store.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mailsweep: opening store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	// All-motion mouse reporting: the engine needs every position
	// sample, not just clicks.
	program := tea.NewProgram(
		app.New(s, cfg),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mailsweep: %v\n", err)
		os.Exit(1)
	}
}

// defaultDBPath returns the default location of the item cache,
// next to the configuration under ~/.config/mailsweep.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "mailsweep.db")
	}
	return filepath.Join(home, ".config", "mailsweep", "mailsweep.db")
}
