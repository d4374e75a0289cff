package app

import (
	"context"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hqv/mailsweep/internal/credential"
	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/source"
	"github.com/hqv/mailsweep/internal/source/mail"
)

// sourcesRegisteredMsg is sent when all configured accounts have been
// registered with the poller and the triage service.
type sourcesRegisteredMsg struct {
	count    int
	adapters map[string]source.Source
}

// registerSources queries the store for configured accounts and
// registers each enabled IMAP account with the poller and the triage
// service. Passwords are loaded from the system keyring.
func (m *Model) registerSources() tea.Cmd {
	s := m.store
	p := m.poller
	svc := m.service

	return func() tea.Msg {
		ctx := context.Background()

		sources, err := s.GetSources(ctx)
		if err != nil {
			log.Printf("failed to load accounts: %v", err)
			return sourcesRegisteredMsg{count: 0}
		}

		adapters := make(map[string]source.Source)
		registered := 0
		for _, src := range sources {
			if !src.Enabled {
				continue
			}
			if src.Type != string(model.SourceTypeIMAP) {
				continue
			}

			adapter := createIMAPAdapter(src)
			if adapter == nil {
				continue
			}
			p.RegisterSource(adapter, src)
			svc.RegisterSource(src.ID, adapter)
			adapters[src.ID] = adapter
			registered++
		}

		return sourcesRegisteredMsg{count: registered, adapters: adapters}
	}
}

// createIMAPAdapter builds an IMAP adapter from an account
// configuration, loading the password from the system keyring.
func createIMAPAdapter(src model.SourceConfig) *mail.Adapter {
	password, err := credential.Get(credential.PasswordKey(src.ID))
	if err != nil {
		log.Printf(
			"skipping account %q (%s): credential not found: %v",
			src.Name, src.ID, err,
		)
		return nil
	}

	cfg := src.Config
	if cfg == nil {
		log.Printf("skipping account %q (%s): no connection settings", src.Name, src.ID)
		return nil
	}

	return mail.NewAdapter(
		cfg["imap_host"], cfg["imap_port"],
		cfg["username"], password,
		cfg["mailbox"],
		cfg["tls"] != "false",
		src.ID,
	)
}
