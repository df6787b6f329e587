// Package slotgrid turns editing gestures on the week grid into commands.
// Builders validate against the plan they are given and return a NoOp with
// a typed error when the gesture cannot apply; they never mutate the plan.
package slotgrid

import (
	"fmt"

	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/command"
	"github.com/abhisek/weekplan/internal/plan"
)

// fallback prescription used when no catalog is configured.
var fallback = catalog.Defaults{Series: 3, Reps: 10}

// Grid builds commands. The zero value works without a catalog.
type Grid struct {
	catalog catalog.Catalog
	newID   func() string
}

// New creates a Grid that resolves exercise refs against c.
func New(c catalog.Catalog) *Grid {
	return &Grid{catalog: c}
}

func (g *Grid) id() string {
	if g.newID != nil {
		return g.newID()
	}
	return plan.NewID()
}

func noop(err *InvalidMoveError) (command.Command, error) {
	return command.NoOp{Reason: err.Reason}, err
}

// MoveExercise moves a slot to toIndex of another (or the same) session.
// Within one session toIndex ranges over 0..n-1; across sessions over
// 0..len(target).
func (g *Grid) MoveExercise(p *plan.Plan, slotID, fromSessionID, toSessionID string, toIndex int) (command.Command, error) {
	const op = "move exercise"
	src, _, ok := p.FindSession(fromSessionID)
	if !ok {
		return noop(invalid(op, "source session %s not found", fromSessionID))
	}
	dst, _, ok := p.FindSession(toSessionID)
	if !ok {
		return noop(invalid(op, "target session %s not found", toSessionID))
	}
	from := src.IndexOf(slotID)
	if from < 0 {
		return noop(invalid(op, "slot %s is not in session %s", slotID, fromSessionID))
	}
	limit := len(dst.Exercises)
	if src == dst {
		limit = len(dst.Exercises) - 1
	}
	if toIndex < 0 || toIndex > limit {
		return noop(invalid(op, "index %d out of bounds 0..%d", toIndex, limit))
	}
	if src == dst && from == toIndex {
		return command.NoOp{Reason: "already in place"}, nil
	}
	return &moveExercise{slotID: slotID, from: fromSessionID, to: toSessionID, toIndex: toIndex}, nil
}

// NewSlot returns an exercise slot for ref prefilled with the catalog
// defaults. Unknown refs are rejected when a catalog is configured.
func (g *Grid) NewSlot(ref string) (*plan.ExerciseSlot, error) {
	const op = "add exercise"
	if ref == "" {
		return nil, invalid(op, "exercise ref is required")
	}
	d := fallback
	if g.catalog != nil {
		e, ok := g.catalog.Get(ref)
		if !ok {
			return nil, invalid(op, "unknown exercise %q", ref)
		}
		d = e.Defaults
	}
	return &plan.ExerciseSlot{
		ID:          g.id(),
		ExerciseRef: ref,
		Series:      d.Series,
		Reps:        d.Reps,
		Weight:      d.Weight,
		Rest:        d.Rest,
	}, nil
}

// InsertSlot adds a copy of slot to a session at atIndex; a negative index
// appends.
func (g *Grid) InsertSlot(p *plan.Plan, sessionID string, slot *plan.ExerciseSlot, atIndex int) (command.Command, error) {
	const op = "add exercise"
	s, _, ok := p.FindSession(sessionID)
	if !ok {
		return noop(invalid(op, "session %s not found", sessionID))
	}
	if atIndex > len(s.Exercises) {
		return noop(invalid(op, "index %d out of bounds 0..%d", atIndex, len(s.Exercises)))
	}
	if _, _, dup := p.FindSlot(slot.ID); dup {
		return noop(invalid(op, "slot %s already exists", slot.ID))
	}
	return &insertExercise{sessionID: sessionID, slot: *slot, atIndex: atIndex}, nil
}

// AddExercise adds a new slot for the catalog exercise ref.
func (g *Grid) AddExercise(p *plan.Plan, sessionID, ref string, atIndex int) (command.Command, error) {
	slot, err := g.NewSlot(ref)
	if err != nil {
		return command.NoOp{Reason: err.Error()}, err
	}
	return g.InsertSlot(p, sessionID, slot, atIndex)
}

// RemoveExercise deletes a slot. Catalog data is never touched.
func (g *Grid) RemoveExercise(p *plan.Plan, slotID string) (command.Command, error) {
	if _, _, ok := p.FindSlot(slotID); !ok {
		return noop(invalid("remove exercise", "slot %s not found", slotID))
	}
	return &removeExercise{slotID: slotID}, nil
}

// EditSlot changes the fields set in patch.
func (g *Grid) EditSlot(p *plan.Plan, slotID string, patch SlotPatch) (command.Command, error) {
	const op = "edit exercise"
	if _, _, ok := p.FindSlot(slotID); !ok {
		return noop(invalid(op, "slot %s not found", slotID))
	}
	if err := patch.validate(); err != nil {
		return noop(&InvalidMoveError{Op: op, Reason: "invalid patch", Err: err})
	}
	if patch.Empty() {
		return command.NoOp{Reason: "nothing to change"}, nil
	}
	return &editSlot{slotID: slotID, patch: patch}, nil
}

// SetSessionStatus moves a session through its lifecycle.
func (g *Grid) SetSessionStatus(p *plan.Plan, sessionID string, to plan.Status) (command.Command, error) {
	const op = "set session status"
	s, _, ok := p.FindSession(sessionID)
	if !ok {
		return noop(invalid(op, "session %s not found", sessionID))
	}
	if !to.Valid() {
		return noop(invalid(op, "unknown status %q", to))
	}
	if s.Estado == to {
		return command.NoOp{Reason: "status unchanged"}, nil
	}
	if !CanTransition(s.Estado, to) {
		return command.NoOp{Reason: "invalid transition"}, &InvalidTransitionError{SessionID: sessionID, From: s.Estado, To: to}
	}
	return &setStatus{sessionID: sessionID, to: to}, nil
}

// EditSession changes start time, duration or notes of a session. The
// session must still end within the day.
func (g *Grid) EditSession(p *plan.Plan, sessionID string, patch SessionPatch) (command.Command, error) {
	const op = "edit session"
	s, _, ok := p.FindSession(sessionID)
	if !ok {
		return noop(invalid(op, "session %s not found", sessionID))
	}
	if len(patch.Fields()) == 0 {
		return command.NoOp{Reason: "nothing to change"}, nil
	}
	hora, dur := s.Hora, s.Duracion
	if patch.Hora != nil {
		hora = *patch.Hora
	}
	if patch.Duracion != nil {
		dur = *patch.Duracion
	}
	if err := checkTiming(hora, dur); err != nil {
		return noop(&InvalidMoveError{Op: op, Reason: "invalid timing", Err: err})
	}
	return &editSession{sessionID: sessionID, patch: patch}, nil
}

// AddSession creates an empty pending session in a free day slot.
func (g *Grid) AddSession(p *plan.Plan, loc plan.Location, hora string, duracion int) (command.Command, error) {
	const op = "add session"
	d := p.Day(loc.Week, loc.Day)
	if d == nil {
		return noop(invalid(op, "day %s not found", loc))
	}
	if loc.Slot == "" {
		return noop(invalid(op, "slot name is required"))
	}
	if _, taken := d.Sessions[loc.Slot]; taken {
		return noop(invalid(op, "slot %s is taken", loc))
	}
	if err := checkTiming(hora, duracion); err != nil {
		return noop(&InvalidMoveError{Op: op, Reason: "invalid timing", Err: err})
	}
	s := plan.NewSession(plan.SessionTemplate{Slot: loc.Slot, Hora: hora, Duracion: duracion})
	s.ID = g.id()
	return &addSession{loc: loc, session: s}, nil
}

// RemoveSession deletes a session together with its exercises.
func (g *Grid) RemoveSession(p *plan.Plan, sessionID string) (command.Command, error) {
	if _, _, ok := p.FindSession(sessionID); !ok {
		return noop(invalid("remove session", "session %s not found", sessionID))
	}
	return &removeSession{sessionID: sessionID}, nil
}

func checkTiming(hora string, duracion int) error {
	start, err := plan.ParseHora(hora)
	if err != nil {
		return err
	}
	if duracion <= 0 {
		return fmt.Errorf("duracion must be positive, got %d", duracion)
	}
	if start+duracion > plan.MinutesPerDay {
		return fmt.Errorf("session starting %s for %d minutes ends after midnight", hora, duracion)
	}
	return nil
}
