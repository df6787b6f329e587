// Package batch applies one set of exercises across many sessions as a
// single undoable command.
package batch

import (
	"fmt"

	"github.com/abhisek/weekplan/internal/command"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/slotgrid"
)

// Target addresses a session either by id or by grid position.
type Target struct {
	SessionID string `json:"sessionId,omitempty"`
	Week      int    `json:"week"`
	Day       int    `json:"day"`
	Slot      string `json:"slot,omitempty"`
}

func (t Target) String() string {
	if t.SessionID != "" {
		return t.SessionID
	}
	return plan.Location{Week: t.Week, Day: t.Day, Slot: t.Slot}.String()
}

// Prescription is an exercise to distribute. Set patch fields override the
// catalog defaults.
type Prescription struct {
	Ref string `json:"ref"`
	slotgrid.SlotPatch
}

// Assignment records where one prescription landed.
type Assignment struct {
	Target    Target `json:"target"`
	SessionID string `json:"sessionId"`
	SlotID    string `json:"slotId"`
	Ref       string `json:"ref"`
}

// Result is the outcome of a distribution. Command is a single composite;
// executing it and undoing it once reverts the whole batch.
type Result struct {
	Command     command.Command `json:"-"`
	Assignments []Assignment    `json:"assignments"`
	Unassigned  []Prescription  `json:"unassigned"`
	Skipped     []Target        `json:"skipped"`
}

// Options tune a distribution.
type Options struct {
	// OnlyEmpty skips target sessions that already hold exercises.
	OnlyEmpty   bool
	Description string
}

// Editor builds batch commands.
type Editor struct {
	grid *slotgrid.Grid
}

// New creates an Editor using grid to build the underlying commands.
func New(grid *slotgrid.Grid) *Editor {
	return &Editor{grid: grid}
}

// Distribute assigns exercises round-robin over targets in order. With
// more targets than exercises the list cycles; exercises beyond the number
// of targets are reported as unassigned. Any unresolved target fails the
// whole batch with *slotgrid.InvalidMoveError.
func (e *Editor) Distribute(p *plan.Plan, targets []Target, exercises []Prescription, opts Options) (*Result, error) {
	desc := opts.Description
	if desc == "" {
		desc = fmt.Sprintf("distribute %d exercises over %d sessions", len(exercises), len(targets))
	}
	res := &Result{}

	sessions, err := e.resolve(p, targets)
	if err != nil {
		res.Command = command.NoOp{Reason: err.Error()}
		return res, err
	}

	var open []int
	for i, s := range sessions {
		if opts.OnlyEmpty && len(s.Exercises) > 0 {
			res.Skipped = append(res.Skipped, targets[i])
			continue
		}
		open = append(open, i)
	}

	comp := command.NewComposite(desc)
	if len(exercises) > len(open) {
		res.Unassigned = append(res.Unassigned, exercises[len(open):]...)
	}
	if len(exercises) == 0 {
		res.Command = comp
		return res, nil
	}

	scratch := p.Clone()
	for n, ti := range open {
		ex := exercises[n%len(exercises)]
		sessionID := sessions[ti].ID

		slot, err := e.grid.NewSlot(ex.Ref)
		if err != nil {
			res.Command = command.NoOp{Reason: err.Error()}
			return res, err
		}
		add, err := e.grid.InsertSlot(scratch, sessionID, slot, -1)
		if err != nil {
			res.Command = command.NoOp{Reason: err.Error()}
			return res, err
		}
		if err := add.Do(scratch); err != nil {
			return nil, fmt.Errorf("distribute %s: %w", ex.Ref, err)
		}
		comp.Add(add)

		if !ex.SlotPatch.Empty() {
			edit, err := e.grid.EditSlot(scratch, slot.ID, ex.SlotPatch)
			if err != nil {
				res.Command = command.NoOp{Reason: err.Error()}
				return res, err
			}
			if err := edit.Do(scratch); err != nil {
				return nil, fmt.Errorf("distribute %s: %w", ex.Ref, err)
			}
			comp.Add(edit)
		}

		res.Assignments = append(res.Assignments, Assignment{
			Target:    targets[ti],
			SessionID: sessionID,
			SlotID:    slot.ID,
			Ref:       ex.Ref,
		})
	}
	res.Command = comp
	return res, nil
}

func (e *Editor) resolve(p *plan.Plan, targets []Target) ([]*plan.Session, error) {
	seen := make(map[string]bool, len(targets))
	out := make([]*plan.Session, 0, len(targets))
	for _, t := range targets {
		var s *plan.Session
		if t.SessionID != "" {
			s, _, _ = p.FindSession(t.SessionID)
		} else {
			s = p.SessionAt(plan.Location{Week: t.Week, Day: t.Day, Slot: t.Slot})
		}
		if s == nil {
			return nil, &slotgrid.InvalidMoveError{Op: "distribute", Reason: "target " + t.String() + " not found"}
		}
		if seen[s.ID] {
			return nil, &slotgrid.InvalidMoveError{Op: "distribute", Reason: "target " + t.String() + " listed twice"}
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out, nil
}
