package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/editor"
	"github.com/abhisek/weekplan/internal/persist"
	"github.com/abhisek/weekplan/internal/router"
	"github.com/abhisek/weekplan/internal/screen"
	"github.com/abhisek/weekplan/internal/screens/action"
	"github.com/abhisek/weekplan/internal/screens/history"
	"github.com/abhisek/weekplan/internal/screens/planner"
	"github.com/abhisek/weekplan/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	sync   persist.SyncState
	width  int
	height int
}

// newAppModel creates a new AppModel with the planner screen.
func newAppModel(ed *editor.Editor, cat catalog.Catalog, revisions history.RevisionLister) AppModel {
	return AppModel{
		router: router.New(planner.New(ed, cat, revisions)),
		sync:   ed.GetState().Sync,
	}
}

func (m AppModel) Init() tea.Cmd {
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			// Screens above the planner take text input.
			if m.router.Depth() == 1 {
				return m, tea.Quit
			}
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	// Editor changes reach every screen, including those under the top.
	case action.ChangedMsg:
		return m, m.router.Broadcast(msg)
	case action.SyncMsg:
		m.sync = msg.Sync
		return m, m.router.Broadcast(msg)
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current terminal size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	status := layout.RenderSyncStatus(string(m.sync.Status), m.sync.Dirty())
	header := layout.RenderHeader(title, status, m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	if m.router.Depth() == 1 && !layout.IsCompactWidth(m.width) {
		footerHints = append(footerHints, layout.KeyHint{Key: "q", Description: "Quit"})
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program on ed. Editor and sync changes are
// forwarded to the program as messages. revisions may be nil.
func Run(ed *editor.Editor, cat catalog.Catalog, revisions history.RevisionLister) error {
	p := tea.NewProgram(newAppModel(ed, cat, revisions))

	stopChanges := ed.OnChange(func(st editor.State) {
		p.Send(action.ChangedMsg{State: st})
	})
	defer stopChanges()
	stopSync := ed.OnSyncChange(func(s persist.SyncState) {
		p.Send(action.SyncMsg{Sync: s})
	})
	defer stopSync()

	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
