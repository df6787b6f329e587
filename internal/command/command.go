// Package command defines invertible mutations of a plan and the linear
// undo/redo history that applies them.
package command

import (
	"fmt"
	"strings"

	"github.com/abhisek/weekplan/internal/plan"
)

// Command is an atomic, invertible mutation of a plan. Undo(Do(p)) must
// leave the touched subtree structurally equal to its state before Do.
// Do must leave the plan untouched when it returns an error.
type Command interface {
	Do(p *plan.Plan) error
	Undo(p *plan.Plan) error
	Describe() string
}

// Mergeable is implemented by commands that may be coalesced with adjacent
// commands carrying the same key (e.g. repeated edits of one field).
type Mergeable interface {
	Command
	MergeKey() string
}

// NoOp is returned in place of a command that cannot be built. Executing it
// changes nothing and records nothing.
type NoOp struct {
	Reason string
}

func (NoOp) Do(*plan.Plan) error   { return nil }
func (NoOp) Undo(*plan.Plan) error { return nil }

func (n NoOp) Describe() string {
	if n.Reason == "" {
		return "no-op"
	}
	return "no-op: " + n.Reason
}

// IsNoOp reports whether c does nothing.
func IsNoOp(c Command) bool {
	switch v := c.(type) {
	case nil:
		return true
	case NoOp, *NoOp:
		return true
	case *Composite:
		return len(v.Commands) == 0
	}
	return false
}

// Composite applies several commands as one. A failing child rolls back the
// children already applied.
type Composite struct {
	Description string
	Commands    []Command
}

// NewComposite builds a composite, dropping no-op children.
func NewComposite(description string, cmds ...Command) *Composite {
	c := &Composite{Description: description}
	for _, cmd := range cmds {
		c.Add(cmd)
	}
	return c
}

// Add appends cmd unless it is a no-op.
func (c *Composite) Add(cmd Command) {
	if IsNoOp(cmd) {
		return
	}
	c.Commands = append(c.Commands, cmd)
}

func (c *Composite) Do(p *plan.Plan) error {
	for i, cmd := range c.Commands {
		if err := cmd.Do(p); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.Commands[j].Undo(p)
			}
			return fmt.Errorf("%s: step %d (%s): %w", c.Describe(), i+1, cmd.Describe(), err)
		}
	}
	return nil
}

func (c *Composite) Undo(p *plan.Plan) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(p); err != nil {
			for j := i + 1; j < len(c.Commands); j++ {
				_ = c.Commands[j].Do(p)
			}
			return fmt.Errorf("undo %s: step %d (%s): %w", c.Describe(), i+1, c.Commands[i].Describe(), err)
		}
	}
	return nil
}

func (c *Composite) Describe() string {
	if c.Description != "" {
		return c.Description
	}
	parts := make([]string, 0, len(c.Commands))
	for _, cmd := range c.Commands {
		parts = append(parts, cmd.Describe())
	}
	return strings.Join(parts, "; ")
}
