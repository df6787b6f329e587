// Package form is a small multi-field input screen used to edit exercise
// slots and sessions.
package form

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/weekplan/internal/screen"
	"github.com/abhisek/weekplan/internal/screens/action"
	"github.com/abhisek/weekplan/internal/ui/components"
	"github.com/abhisek/weekplan/internal/ui/layout"
	"github.com/abhisek/weekplan/internal/ui/theme"
)

// Field is one labelled input.
type Field struct {
	Label   string
	Value   string
	Numeric bool
}

// SubmitFunc receives the field values in order. It returns the command to
// run once the form has closed, or an error shown under the fields.
type SubmitFunc func(values []string) (tea.Cmd, error)

// Screen edits a fixed list of fields.
type Screen struct {
	title   string
	labels  []string
	numeric []bool
	inputs  []components.TextInput
	focus   int
	submit  SubmitFunc
	errMsg  string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a form with the fields prefilled.
func New(title string, fields []Field, submit SubmitFunc) *Screen {
	s := &Screen{title: title, submit: submit}
	for i, f := range fields {
		in := components.NewTextInput(f.Label, f.Numeric, 32)
		in.SetValue(f.Value)
		if i > 0 {
			in.Blur()
		}
		s.labels = append(s.labels, f.Label)
		s.numeric = append(s.numeric, f.Numeric)
		s.inputs = append(s.inputs, in)
	}
	return s
}

func (s *Screen) Init() tea.Cmd {
	if len(s.inputs) == 0 {
		return nil
	}
	return s.inputs[0].Init()
}

func (s *Screen) Title() string {
	return s.title
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Save"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// Values returns the current field values.
func (s *Screen) Values() []string {
	out := make([]string, len(s.inputs))
	for i, in := range s.inputs {
		out[i] = in.Value()
	}
	return out
}

// Err returns the last submit error, if any.
func (s *Screen) Err() string {
	return s.errMsg
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok && len(s.inputs) > 0 {
		switch kmsg.String() {
		case "tab", "down":
			return s, s.setFocus(s.focus + 1)
		case "shift+tab", "up":
			return s, s.setFocus(s.focus - 1)
		case "enter":
			if i, ok := s.invalidNumber(); ok {
				s.errMsg = fmt.Sprintf("%s: número inválido", s.labels[i])
				focus := s.setFocus(i)
				s.inputs[i].Submit(false)
				return s, focus
			}
			cmd, err := s.submit(s.Values())
			if err != nil {
				s.errMsg = err.Error()
				s.inputs[s.focus].Submit(false)
				return s, nil
			}
			return s, action.PopThen(cmd)
		}
		var cmd tea.Cmd
		s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
		s.errMsg = ""
		return s, cmd
	}
	return s, nil
}

// invalidNumber returns the first numeric field that does not parse.
func (s *Screen) invalidNumber() (int, bool) {
	for i, in := range s.inputs {
		if !s.numeric[i] {
			continue
		}
		if _, err := in.FloatValue(); err != nil {
			return i, true
		}
	}
	return 0, false
}

func (s *Screen) setFocus(i int) tea.Cmd {
	n := len(s.inputs)
	i = (i%n + n) % n
	s.inputs[s.focus].Blur()
	s.focus = i
	return s.inputs[i].Focus()
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	for i, in := range s.inputs {
		label := lipgloss.NewStyle().Width(14).Foreground(theme.TextDim).Render(s.labels[i])
		if i == s.focus {
			label = theme.Selected.Width(14).Render(s.labels[i])
		}
		b.WriteString(label + " " + in.View() + "\n\n")
	}
	if s.errMsg != "" {
		b.WriteString(theme.Notice.Render(s.errMsg) + "\n")
	}
	return theme.Card.Render(b.String())
}
