package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/weekplan/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Refresher is implemented by screens that render editor state. Refresh
// runs when the screen becomes active again after the one above it is
// popped, since changes made meanwhile were delivered to that screen.
type Refresher interface {
	Refresh() tea.Cmd
}
