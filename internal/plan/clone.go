package plan

// Clone returns a deep copy of the plan. Commands mutate the live plan, so
// anything leaving the editor (persistence snapshots, UI state) is a clone.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := &Plan{
		ID:       p.ID,
		ClientID: p.ClientID,
		Name:     p.Name,
		Version:  p.Version,
		Weeks:    make([]*Week, len(p.Weeks)),
	}
	for i, w := range p.Weeks {
		out.Weeks[i] = w.Clone()
	}
	return out
}

// Clone returns a deep copy of the week.
func (w *Week) Clone() *Week {
	out := &Week{Index: w.Index}
	for i, d := range w.Days {
		if d != nil {
			out.Days[i] = d.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the day.
func (d *Day) Clone() *Day {
	out := &Day{Index: d.Index, Sessions: make(map[string]*Session, len(d.Sessions))}
	for k, s := range d.Sessions {
		out.Sessions[k] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	out := *s
	out.Exercises = make([]*ExerciseSlot, len(s.Exercises))
	for i, e := range s.Exercises {
		c := *e
		out.Exercises[i] = &c
	}
	return &out
}
