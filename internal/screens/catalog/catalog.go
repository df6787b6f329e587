// Package catalog is the exercise picker pushed by the planner.
package catalog

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/screen"
	"github.com/abhisek/weekplan/internal/screens/action"
	"github.com/abhisek/weekplan/internal/ui/components"
	"github.com/abhisek/weekplan/internal/ui/layout"
	"github.com/abhisek/weekplan/internal/ui/theme"
)

const maxResults = 12

// SelectFunc returns the command to run with the chosen exercise ref.
type SelectFunc func(ref string) tea.Cmd

// PickerScreen searches the catalog as the user types.
type PickerScreen struct {
	cat      catalog.Catalog
	input    components.TextInput
	results  []catalog.ExerciseSummary
	selected int
	onSelect SelectFunc
	errMsg   string
}

var _ screen.Screen = (*PickerScreen)(nil)
var _ screen.KeyHintProvider = (*PickerScreen)(nil)

// New creates a picker over cat.
func New(cat catalog.Catalog, onSelect SelectFunc) *PickerScreen {
	s := &PickerScreen{
		cat:      cat,
		input:    components.NewTextInput("buscar ejercicio", false, 40),
		onSelect: onSelect,
	}
	s.search()
	return s
}

func (s *PickerScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *PickerScreen) Title() string {
	return "Catálogo"
}

func (s *PickerScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Add"},
		{Key: "Esc", Description: "Back"},
	}
}

// Results returns the current matches.
func (s *PickerScreen) Results() []catalog.ExerciseSummary {
	return s.results
}

func (s *PickerScreen) search() {
	res, err := s.cat.Search(context.Background(), s.input.Value(), catalog.Filters{Limit: maxResults})
	if err != nil {
		s.errMsg = err.Error()
		return
	}
	s.errMsg = ""
	s.results = res
	if s.selected >= len(res) {
		s.selected = max(0, len(res)-1)
	}
}

func (s *PickerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "up":
		if s.selected > 0 {
			s.selected--
		}
		return s, nil
	case "down":
		if s.selected < len(s.results)-1 {
			s.selected++
		}
		return s, nil
	case "enter":
		if len(s.results) == 0 {
			return s, nil
		}
		return s, action.PopThen(s.onSelect(s.results[s.selected].Ref))
	}

	before := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if s.input.Value() != before {
		s.selected = 0
		s.search()
	}
	return s, cmd
}

func (s *PickerScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n  " + s.input.View() + "\n\n")

	if s.errMsg != "" {
		b.WriteString(theme.Notice.Render("  "+s.errMsg) + "\n")
		return b.String()
	}
	if len(s.results) == 0 {
		b.WriteString(theme.Hint.Render("  Sin resultados") + "\n")
		return b.String()
	}

	for i, ex := range s.results {
		line := fmt.Sprintf("%-28s %-12s %-12s %dx%d %gkg",
			ex.Name, ex.Muscle, ex.Equipment, ex.Defaults.Series, ex.Defaults.Reps, ex.Defaults.Weight)
		style := theme.Unselected
		prefix := "    "
		if i == s.selected {
			style = theme.Selected
			prefix = "  ▸ "
		}
		b.WriteString(style.Render(prefix+line) + "\n")
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}
