package slotgrid

import (
	"github.com/abhisek/weekplan/internal/command"
	"github.com/abhisek/weekplan/internal/plan"
)

type position struct {
	sessionID string
	index     int
}

// Gesture collects the moves of one drag gesture into a single command.
// Each move is validated against a scratch copy with the earlier moves
// already applied.
type Gesture struct {
	grid        *Grid
	scratch     *plan.Plan
	description string
	taken       map[position]string
	cmds        []command.Command
}

// NewGesture starts a gesture on a copy of p.
func (g *Grid) NewGesture(p *plan.Plan, description string) *Gesture {
	return &Gesture{
		grid:        g,
		scratch:     p.Clone(),
		description: description,
		taken:       make(map[position]string),
	}
}

// Move adds one move to the gesture. A second move landing on a position
// already claimed by this gesture fails with *ConflictError.
func (gs *Gesture) Move(slotID, fromSessionID, toSessionID string, toIndex int) error {
	pos := position{sessionID: toSessionID, index: toIndex}
	if holder, ok := gs.taken[pos]; ok {
		return &ConflictError{SessionID: toSessionID, Index: toIndex, SlotID: holder}
	}
	cmd, err := gs.grid.MoveExercise(gs.scratch, slotID, fromSessionID, toSessionID, toIndex)
	if err != nil {
		return err
	}
	if command.IsNoOp(cmd) {
		return nil
	}
	if err := cmd.Do(gs.scratch); err != nil {
		return &InvalidMoveError{Op: "move exercise", Reason: "cannot apply", Err: err}
	}
	gs.taken[pos] = slotID
	gs.cmds = append(gs.cmds, cmd)
	return nil
}

// Len returns the number of accepted moves.
func (gs *Gesture) Len() int { return len(gs.cmds) }

// Command returns the accepted moves as one composite.
func (gs *Gesture) Command() command.Command {
	desc := gs.description
	if desc == "" {
		desc = "move exercises"
	}
	return command.NewComposite(desc, gs.cmds...)
}
