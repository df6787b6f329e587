package slotgrid

import (
	"fmt"
	"strings"

	"github.com/abhisek/weekplan/internal/plan"
)

// transitions is the session lifecycle. A completed session can be reopened
// and a cancelled one rescheduled.
var transitions = map[plan.Status][]plan.Status{
	plan.StatusPending:    {plan.StatusInProgress, plan.StatusDone, plan.StatusCancelled},
	plan.StatusInProgress: {plan.StatusPending, plan.StatusDone, plan.StatusCancelled},
	plan.StatusDone:       {plan.StatusInProgress},
	plan.StatusCancelled:  {plan.StatusPending},
}

// CanTransition reports whether a session may go from one status to another.
func CanTransition(from, to plan.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type setStatus struct {
	sessionID string
	to        plan.Status
	from      plan.Status
}

func (c *setStatus) Do(p *plan.Plan) error {
	s, _, ok := p.FindSession(c.sessionID)
	if !ok {
		return fmt.Errorf("session %s not found", c.sessionID)
	}
	c.from = s.Estado
	s.Estado = c.to
	return nil
}

func (c *setStatus) Undo(p *plan.Plan) error {
	s, _, ok := p.FindSession(c.sessionID)
	if !ok {
		return fmt.Errorf("session %s not found", c.sessionID)
	}
	s.Estado = c.from
	return nil
}

func (c *setStatus) Describe() string {
	return "mark session " + string(c.to)
}

// SessionPatch lists the session fields to change.
type SessionPatch struct {
	Hora     *string `json:"hora,omitempty"`
	Duracion *int    `json:"duracion,omitempty"`
	Notes    *string `json:"notas,omitempty"`
}

// Fields returns the names of the set fields, sorted.
func (sp SessionPatch) Fields() []string {
	var f []string
	if sp.Duracion != nil {
		f = append(f, "duracion")
	}
	if sp.Hora != nil {
		f = append(f, "hora")
	}
	if sp.Notes != nil {
		f = append(f, "notas")
	}
	return f
}

func (sp SessionPatch) apply(s *plan.Session) SessionPatch {
	var prev SessionPatch
	if sp.Hora != nil {
		prev.Hora = ptr(s.Hora)
		s.Hora = *sp.Hora
	}
	if sp.Duracion != nil {
		prev.Duracion = ptr(s.Duracion)
		s.Duracion = *sp.Duracion
	}
	if sp.Notes != nil {
		prev.Notes = ptr(s.Notes)
		s.Notes = *sp.Notes
	}
	return prev
}

type editSession struct {
	sessionID string
	patch     SessionPatch
	prev      SessionPatch
}

func (c *editSession) Do(p *plan.Plan) error {
	s, _, ok := p.FindSession(c.sessionID)
	if !ok {
		return fmt.Errorf("session %s not found", c.sessionID)
	}
	c.prev = c.patch.apply(s)
	return nil
}

func (c *editSession) Undo(p *plan.Plan) error {
	s, _, ok := p.FindSession(c.sessionID)
	if !ok {
		return fmt.Errorf("session %s not found", c.sessionID)
	}
	c.prev.apply(s)
	return nil
}

func (c *editSession) Describe() string {
	return "edit session " + strings.Join(c.patch.Fields(), ", ")
}

func (c *editSession) MergeKey() string {
	return "session:" + c.sessionID + ":" + strings.Join(c.patch.Fields(), ",")
}

type addSession struct {
	loc     plan.Location
	session *plan.Session
}

func (c *addSession) Do(p *plan.Plan) error {
	d := p.Day(c.loc.Week, c.loc.Day)
	if d == nil {
		return fmt.Errorf("day %s not found", c.loc)
	}
	if _, taken := d.Sessions[c.loc.Slot]; taken {
		return fmt.Errorf("slot %s is taken", c.loc)
	}
	d.Sessions[c.loc.Slot] = c.session.Clone()
	return nil
}

func (c *addSession) Undo(p *plan.Plan) error {
	d := p.Day(c.loc.Week, c.loc.Day)
	if d == nil {
		return fmt.Errorf("day %s not found", c.loc)
	}
	delete(d.Sessions, c.loc.Slot)
	return nil
}

func (c *addSession) Describe() string {
	return fmt.Sprintf("add session %s at %s", c.loc.Slot, c.session.Hora)
}

type removeSession struct {
	sessionID string

	loc     plan.Location
	removed *plan.Session
}

func (c *removeSession) Do(p *plan.Plan) error {
	s, loc, ok := p.FindSession(c.sessionID)
	if !ok {
		return fmt.Errorf("session %s not found", c.sessionID)
	}
	c.loc = loc
	c.removed = s.Clone()
	delete(p.Day(loc.Week, loc.Day).Sessions, loc.Slot)
	return nil
}

func (c *removeSession) Undo(p *plan.Plan) error {
	d := p.Day(c.loc.Week, c.loc.Day)
	if d == nil {
		return fmt.Errorf("day %s not found", c.loc)
	}
	d.Sessions[c.loc.Slot] = c.removed.Clone()
	return nil
}

func (c *removeSession) Describe() string {
	return "remove session " + c.loc.Slot
}
