package history

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/weekplan/internal/command"
	"github.com/abhisek/weekplan/internal/editor"
	"github.com/abhisek/weekplan/internal/screen"
	"github.com/abhisek/weekplan/internal/screens/action"
	"github.com/abhisek/weekplan/internal/store"
	"github.com/abhisek/weekplan/internal/ui/layout"
	"github.com/abhisek/weekplan/internal/ui/theme"
)

// revisionLimit bounds the saved revisions listed under the history.
const revisionLimit = 10

// RevisionLister lists saved versions of the plan, newest first.
type RevisionLister func(ctx context.Context, limit int) ([]store.Revision, error)

type revisionsLoadedMsg struct {
	Revisions []store.Revision
	Err       error
}

// HistoryScreen displays the undo history, newest first, and the saved
// revisions when a store is available. Enter travels to an entry by
// undoing or redoing up to it.
type HistoryScreen struct {
	ed        *editor.Editor
	revisions RevisionLister
	items     []command.HistoryItem // newest first
	saved     []store.Revision
	selected  int
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)
var _ screen.Refresher = (*HistoryScreen)(nil)

// New creates a new HistoryScreen. revisions may be nil.
func New(ed *editor.Editor, revisions RevisionLister) *HistoryScreen {
	s := &HistoryScreen{ed: ed, revisions: revisions}
	s.load(ed.GetState().History)
	return s
}

func (s *HistoryScreen) load(items []command.HistoryItem) {
	s.items = slices.Clone(items)
	slices.Reverse(s.items)
	if s.selected >= len(s.items) {
		s.selected = max(0, len(s.items)-1)
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	if s.revisions == nil {
		s.loaded = true
		return nil
	}
	list := s.revisions
	return func() tea.Msg {
		revs, err := list(context.Background(), revisionLimit)
		return revisionsLoadedMsg{Revisions: revs, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "Historial"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Go to"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

// Refresh reloads the history from the editor.
func (s *HistoryScreen) Refresh() tea.Cmd {
	s.load(s.ed.GetState().History)
	return nil
}

// travel returns the intent and the number of steps needed to make the
// selected entry the last applied one.
func (s *HistoryScreen) travel() (editor.Intent, int) {
	if len(s.items) == 0 {
		return nil, 0
	}
	applied := 0
	for _, it := range s.items {
		if it.Applied {
			applied++
		}
	}
	// items are newest first, so the selected entry is the
	// (len-selected)-th oldest.
	target := len(s.items) - s.selected
	switch {
	case target < applied:
		return editor.Undo{}, applied - target
	case target > applied:
		return editor.Redo{}, target - applied
	}
	return nil, 0
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case revisionsLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.saved = msg.Revisions
		}
		s.loaded = true
		return s, nil

	case action.ChangedMsg:
		s.load(msg.State.History)
		return s, nil

	case action.ResultMsg:
		s.Refresh()
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.items)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			in, n := s.travel()
			if n == 0 {
				return s, nil
			}
			return s, action.Repeat(s.ed, in, n)
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")

	if len(s.items) == 0 {
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("Sin cambios todavía."))
		b.WriteString("\n")
	}

	for i, it := range s.items {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s  %s", prefix, it.Timestamp.Format("15:04:05"), it.Description)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if !it.Applied {
			style = theme.Cancelled
		}
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if s.revisions == nil {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render("  Versiones guardadas"))
	b.WriteString("\n")
	switch {
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("  Error: " + s.errMsg))
	case !s.loaded:
		b.WriteString(theme.Hint.Render("  Cargando..."))
	case len(s.saved) == 0:
		b.WriteString(theme.Hint.Render("  Ninguna todavía"))
	default:
		for _, r := range s.saved {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).
				Render(fmt.Sprintf("  v%d  %s", r.Version, r.SavedAt.Local().Format("Jan 02 15:04:05"))))
			b.WriteString("\n")
		}
	}
	return b.String()
}
