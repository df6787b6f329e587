package catalog

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/weekplan/internal/catalog"
)

func newPicker(t *testing.T, onSelect SelectFunc) *PickerScreen {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return New(cat, onSelect)
}

func TestPickerListsCatalog(t *testing.T) {
	s := newPicker(t, func(string) tea.Cmd { return nil })
	if got := len(s.Results()); got != maxResults {
		t.Errorf("results = %d, want %d", got, maxResults)
	}
}

func TestPickerFilters(t *testing.T) {
	s := newPicker(t, func(string) tea.Cmd { return nil })
	s.input.SetValue("remo")
	s.search()

	if len(s.Results()) == 0 {
		t.Fatal("expected matches for remo")
	}
	for _, ex := range s.Results() {
		if !strings.Contains(strings.ToLower(ex.Name+ex.Ref), "remo") {
			t.Errorf("unexpected match %q", ex.Ref)
		}
	}

	s.input.SetValue("zzzz")
	s.search()
	if len(s.Results()) != 0 {
		t.Errorf("expected no matches, got %d", len(s.Results()))
	}
	if !strings.Contains(s.View(100, 20), "Sin resultados") {
		t.Error("expected the empty state")
	}
}

func TestPickerSelect(t *testing.T) {
	var picked string
	s := newPicker(t, func(ref string) tea.Cmd {
		picked = ref
		return func() tea.Msg { return nil }
	})
	want := s.Results()[1].Ref

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	if cmd == nil {
		t.Fatal("expected a command on enter")
	}
	if picked != want {
		t.Errorf("picked = %q, want %q", picked, want)
	}
}

func TestPickerEnterWithoutResults(t *testing.T) {
	called := false
	s := newPicker(t, func(string) tea.Cmd { called = true; return nil })
	s.input.SetValue("zzzz")
	s.search()

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil || called {
		t.Error("enter with no results must do nothing")
	}
}
