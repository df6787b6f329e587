package slotgrid

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/weekplan/internal/plan"
)

// moveExercise relocates a slot within or across sessions.
type moveExercise struct {
	slotID  string
	from    string
	to      string
	toIndex int

	fromIndex int
	prevFrom  map[string]int
	prevTo    map[string]int
}

func (c *moveExercise) Do(p *plan.Plan) error {
	src, _, ok := p.FindSession(c.from)
	if !ok {
		return fmt.Errorf("source session %s not found", c.from)
	}
	dst, _, ok := p.FindSession(c.to)
	if !ok {
		return fmt.Errorf("target session %s not found", c.to)
	}
	i := src.IndexOf(c.slotID)
	if i < 0 {
		return fmt.Errorf("slot %s not in session %s", c.slotID, c.from)
	}
	c.fromIndex = i
	c.prevFrom = src.Orders()
	c.prevTo = dst.Orders()

	e := src.RemoveAt(i)
	dst.Insert(c.toIndex, e)
	return nil
}

func (c *moveExercise) Undo(p *plan.Plan) error {
	src, _, ok := p.FindSession(c.from)
	if !ok {
		return fmt.Errorf("source session %s not found", c.from)
	}
	dst, _, ok := p.FindSession(c.to)
	if !ok {
		return fmt.Errorf("target session %s not found", c.to)
	}
	i := dst.IndexOf(c.slotID)
	if i < 0 {
		return fmt.Errorf("slot %s not in session %s", c.slotID, c.to)
	}
	e := dst.RemoveAt(i)
	src.Insert(c.fromIndex, e)
	src.RestoreOrders(c.prevFrom)
	dst.RestoreOrders(c.prevTo)
	return nil
}

func (c *moveExercise) Describe() string {
	if c.from == c.to {
		return fmt.Sprintf("reorder exercise to position %d", c.toIndex+1)
	}
	return fmt.Sprintf("move exercise to position %d of another session", c.toIndex+1)
}

// insertExercise adds a copy of slot to a session.
type insertExercise struct {
	sessionID string
	slot      plan.ExerciseSlot
	atIndex   int // < 0 appends

	prev map[string]int
}

func (c *insertExercise) Do(p *plan.Plan) error {
	s, _, ok := p.FindSession(c.sessionID)
	if !ok {
		return fmt.Errorf("session %s not found", c.sessionID)
	}
	if _, _, dup := p.FindSlot(c.slot.ID); dup {
		return fmt.Errorf("slot %s already exists", c.slot.ID)
	}
	c.prev = s.Orders()
	e := c.slot
	i := c.atIndex
	if i < 0 || i > len(s.Exercises) {
		i = len(s.Exercises)
	}
	s.Insert(i, &e)
	return nil
}

func (c *insertExercise) Undo(p *plan.Plan) error {
	s, _, ok := p.FindSession(c.sessionID)
	if !ok {
		return fmt.Errorf("session %s not found", c.sessionID)
	}
	i := s.IndexOf(c.slot.ID)
	if i < 0 {
		return fmt.Errorf("slot %s not in session %s", c.slot.ID, c.sessionID)
	}
	s.RemoveAt(i)
	s.RestoreOrders(c.prev)
	return nil
}

func (c *insertExercise) Describe() string {
	return "add " + c.slot.ExerciseRef
}

// removeExercise deletes a slot, keeping a copy to restore.
type removeExercise struct {
	slotID string

	sessionID string
	index     int
	removed   plan.ExerciseSlot
	prev      map[string]int
}

func (c *removeExercise) Do(p *plan.Plan) error {
	s, i, ok := p.FindSlot(c.slotID)
	if !ok {
		return fmt.Errorf("slot %s not found", c.slotID)
	}
	c.sessionID = s.ID
	c.index = i
	c.prev = s.Orders()
	c.removed = *s.RemoveAt(i)
	return nil
}

func (c *removeExercise) Undo(p *plan.Plan) error {
	s, _, ok := p.FindSession(c.sessionID)
	if !ok {
		return fmt.Errorf("session %s not found", c.sessionID)
	}
	e := c.removed
	s.Insert(c.index, &e)
	s.RestoreOrders(c.prev)
	return nil
}

func (c *removeExercise) Describe() string {
	if c.removed.ExerciseRef != "" {
		return "remove " + c.removed.ExerciseRef
	}
	return "remove exercise"
}

// SlotPatch lists the exercise slot fields to change. Nil fields are left
// alone.
type SlotPatch struct {
	Series *int     `json:"series,omitempty"`
	Reps   *int     `json:"repeticiones,omitempty"`
	Weight *float64 `json:"peso,omitempty"`
	Rest   *int     `json:"descanso,omitempty"`
	Done   *bool    `json:"completado,omitempty"`
	Notes  *string  `json:"notas,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (sp SlotPatch) Empty() bool {
	return len(sp.Fields()) == 0
}

// Fields returns the names of the set fields, sorted.
func (sp SlotPatch) Fields() []string {
	var f []string
	if sp.Series != nil {
		f = append(f, "series")
	}
	if sp.Reps != nil {
		f = append(f, "repeticiones")
	}
	if sp.Weight != nil {
		f = append(f, "peso")
	}
	if sp.Rest != nil {
		f = append(f, "descanso")
	}
	if sp.Done != nil {
		f = append(f, "completado")
	}
	if sp.Notes != nil {
		f = append(f, "notas")
	}
	slices.Sort(f)
	return f
}

func (sp SlotPatch) validate() error {
	switch {
	case sp.Series != nil && *sp.Series < 0:
		return fmt.Errorf("series must not be negative")
	case sp.Reps != nil && *sp.Reps < 0:
		return fmt.Errorf("repeticiones must not be negative")
	case sp.Weight != nil && *sp.Weight < 0:
		return fmt.Errorf("peso must not be negative")
	case sp.Rest != nil && *sp.Rest < 0:
		return fmt.Errorf("descanso must not be negative")
	}
	return nil
}

// apply writes the set fields into e and returns a patch holding the
// previous values of the same fields.
func (sp SlotPatch) apply(e *plan.ExerciseSlot) SlotPatch {
	var prev SlotPatch
	if sp.Series != nil {
		prev.Series = ptr(e.Series)
		e.Series = *sp.Series
	}
	if sp.Reps != nil {
		prev.Reps = ptr(e.Reps)
		e.Reps = *sp.Reps
	}
	if sp.Weight != nil {
		prev.Weight = ptr(e.Weight)
		e.Weight = *sp.Weight
	}
	if sp.Rest != nil {
		prev.Rest = ptr(e.Rest)
		e.Rest = *sp.Rest
	}
	if sp.Done != nil {
		prev.Done = ptr(e.Done)
		e.Done = *sp.Done
	}
	if sp.Notes != nil {
		prev.Notes = ptr(e.Notes)
		e.Notes = *sp.Notes
	}
	return prev
}

func ptr[T any](v T) *T { return &v }

// Int, Float, Bool and String build patch fields.
func Int(v int) *int           { return &v }
func Float(v float64) *float64 { return &v }
func Bool(v bool) *bool        { return &v }
func String(v string) *string  { return &v }

// editSlot changes the patched fields of one slot. Adjacent edits of the
// same fields coalesce.
type editSlot struct {
	slotID string
	patch  SlotPatch
	prev   SlotPatch
}

func (c *editSlot) Do(p *plan.Plan) error {
	s, i, ok := p.FindSlot(c.slotID)
	if !ok {
		return fmt.Errorf("slot %s not found", c.slotID)
	}
	c.prev = c.patch.apply(s.Exercises[i])
	return nil
}

func (c *editSlot) Undo(p *plan.Plan) error {
	s, i, ok := p.FindSlot(c.slotID)
	if !ok {
		return fmt.Errorf("slot %s not found", c.slotID)
	}
	c.prev.apply(s.Exercises[i])
	return nil
}

func (c *editSlot) Describe() string {
	return "edit " + strings.Join(c.patch.Fields(), ", ")
}

func (c *editSlot) MergeKey() string {
	return "edit:" + c.slotID + ":" + strings.Join(c.patch.Fields(), ",")
}
