package alerts

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/editor"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/screens/action"
)

func newEditor(t *testing.T, empty bool) *editor.Editor {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	p := plan.New("p1", 1)
	s := plan.NewSession(plan.SessionTemplate{Slot: "manana", Hora: "07:00", Duracion: 60})
	s.ID = "s-mon"
	p.Weeks[0].Days[0].Sessions["manana"] = s
	if !empty {
		for i := range 4 {
			s.Insert(i, &plan.ExerciseSlot{ID: plan.NewID(), ExerciseRef: "sentadilla", Series: 5, Reps: 5, Weight: 100})
		}
	}
	return editor.New(p, editor.Options{Catalog: cat})
}

func TestListsAlerts(t *testing.T) {
	s := New(newEditor(t, true))
	if len(s.alerts) == 0 {
		t.Fatal("expected an alert for the empty session")
	}
	if !strings.HasPrefix(s.Title(), "Alertas (") {
		t.Errorf("title = %q", s.Title())
	}
	if !strings.Contains(s.View(120, 20), "no tiene ejercicios") {
		t.Error("expected the alert message in the view")
	}
}

func TestEnterAppliesFix(t *testing.T) {
	ed := newEditor(t, true)
	s := New(ed)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command for a fixable alert")
	}
	// The fix runs after the pop; run it directly here.
	if _, err := ed.Dispatch(context.Background(), editor.ApplyFix{AlertID: s.alerts[0].ID}); err != nil {
		t.Fatalf("apply fix: %v", err)
	}
	s.Update(action.ChangedMsg{State: ed.GetState()})
	if len(s.alerts) != 0 {
		t.Errorf("alerts = %d, want 0", len(s.alerts))
	}
	if !strings.Contains(s.View(120, 20), "Sin alertas") {
		t.Error("expected the empty state")
	}
}

func TestRefreshReloads(t *testing.T) {
	ed := newEditor(t, false)
	s := New(ed)
	before := len(s.alerts)

	if _, err := ed.Dispatch(context.Background(), editor.AddSession{Week: 0, Day: 3, Slot: "tarde", Hora: "18:00", Duracion: 60}); err != nil {
		t.Fatal(err)
	}
	s.Refresh()
	if len(s.alerts) != before+1 {
		t.Errorf("alerts = %d, want %d", len(s.alerts), before+1)
	}
}
