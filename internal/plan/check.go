package plan

import (
	"errors"
	"fmt"
)

// Check verifies the structural invariants of a plan: seven indexed days
// per week, slot keys matching sessions, unique ids and dense exercise
// order. It is run on every plan entering the editor from outside.
func (p *Plan) Check() error {
	if p.ID == "" {
		return errors.New("plan id is required")
	}
	ids := make(map[string]string)
	claim := func(id, what string) error {
		if id == "" {
			return fmt.Errorf("%s has an empty id", what)
		}
		if prev, dup := ids[id]; dup {
			return fmt.Errorf("duplicate id %q (%s and %s)", id, prev, what)
		}
		ids[id] = what
		return nil
	}

	for wi, w := range p.Weeks {
		if w == nil {
			return fmt.Errorf("week %d is missing", wi)
		}
		if w.Index != wi {
			return fmt.Errorf("week %d has index %d", wi, w.Index)
		}
		for di, d := range w.Days {
			if d == nil {
				return fmt.Errorf("week %d day %d is missing", wi, di)
			}
			if d.Index != di {
				return fmt.Errorf("week %d day %d has index %d", wi, di, d.Index)
			}
			if d.Sessions == nil {
				d.Sessions = make(map[string]*Session)
			}
			for key, s := range d.Sessions {
				if s.Slot != key {
					return fmt.Errorf("session %q stored under slot %q but names slot %q", s.ID, key, s.Slot)
				}
				if err := claim(s.ID, "session "+key); err != nil {
					return err
				}
				if _, err := ParseHora(s.Hora); err != nil {
					return fmt.Errorf("session %q: %w", s.ID, err)
				}
				if !s.Estado.Valid() {
					return fmt.Errorf("session %q has unknown estado %q", s.ID, s.Estado)
				}
				if s.Exercises == nil {
					s.Exercises = []*ExerciseSlot{}
				}
				for i, e := range s.Exercises {
					if err := claim(e.ID, "exercise slot in "+s.ID); err != nil {
						return err
					}
					if e.Order != i {
						return fmt.Errorf("session %q: slot %q has orden %d at position %d", s.ID, e.ID, e.Order, i)
					}
				}
			}
		}
	}
	return nil
}
