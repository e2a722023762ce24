package tui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
)

// Run starts the terminal quiz and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal quiz: %w", err)
	}
	return nil
}
