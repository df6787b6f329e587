// Package alerts lists validation alerts and applies their fixes.
package alerts

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/weekplan/internal/editor"
	"github.com/abhisek/weekplan/internal/screen"
	"github.com/abhisek/weekplan/internal/screens/action"
	"github.com/abhisek/weekplan/internal/ui/components"
	"github.com/abhisek/weekplan/internal/ui/layout"
	"github.com/abhisek/weekplan/internal/ui/theme"
	"github.com/abhisek/weekplan/internal/validation"
)

// AlertsScreen shows the current alerts, errors first.
type AlertsScreen struct {
	ed     *editor.Editor
	alerts []validation.Alert
	menu   components.Menu
}

var _ screen.Screen = (*AlertsScreen)(nil)
var _ screen.KeyHintProvider = (*AlertsScreen)(nil)
var _ screen.Refresher = (*AlertsScreen)(nil)

// New creates the screen from the editor's current state.
func New(ed *editor.Editor) *AlertsScreen {
	s := &AlertsScreen{ed: ed}
	s.load(ed.GetState().Alerts)
	return s
}

func (s *AlertsScreen) load(alerts []validation.Alert) {
	selected := s.menu.Selected
	s.alerts = alerts
	items := make([]components.MenuItem, len(alerts))
	for i, a := range alerts {
		items[i] = components.MenuItem{
			Label: fmt.Sprintf("[%s] %s", a.Severity, a.Message),
			Color: theme.SeverityColor(string(a.Severity)),
		}
		if a.Fixable() {
			id := a.ID
			items[i].Detail = "enter: " + a.FixLabel
			items[i].Action = func() tea.Cmd {
				return action.PopThen(action.Dispatch(s.ed, editor.ApplyFix{AlertID: id}))
			}
		}
	}
	s.menu = components.NewMenu(items)
	if selected < len(items) {
		s.menu.Selected = selected
	}
}

func (s *AlertsScreen) Init() tea.Cmd {
	return nil
}

func (s *AlertsScreen) Title() string {
	return fmt.Sprintf("Alertas (%d)", len(s.alerts))
}

func (s *AlertsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Apply fix"},
		{Key: "Esc", Description: "Back"},
	}
}

// Refresh reloads alerts from the editor.
func (s *AlertsScreen) Refresh() tea.Cmd {
	s.load(s.ed.GetState().Alerts)
	return nil
}

func (s *AlertsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case action.ChangedMsg:
		s.load(msg.State.Alerts)
		return s, nil
	case tea.KeyPressMsg:
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *AlertsScreen) View(width, height int) string {
	if len(s.alerts) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Success).
			Render("\n\n  Sin alertas. El plan cumple todas las reglas.")
	}
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(s.menu.View())
	return b.String()
}
