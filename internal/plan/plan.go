// Package plan holds the in-memory representation of a multi-week training
// plan: weeks of seven days, named session slots per day and ordered
// exercise slots per session.
package plan

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/google/uuid"
)

// DaysPerWeek is the fixed number of days in every week of a plan.
const DaysPerWeek = 7

// ErrNotFound is returned by plan stores when a plan does not exist.
var ErrNotFound = errors.New("plan not found")

// Status is the lifecycle state of a training session.
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusInProgress Status = "en-progreso"
	StatusDone       Status = "completado"
	StatusCancelled  Status = "cancelado"
)

// Valid reports whether s is a known session status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Plan is the root of the editable week grid.
type Plan struct {
	ID       string  `json:"id"`
	ClientID string  `json:"clientId,omitempty"`
	Name     string  `json:"name,omitempty"`
	Weeks    []*Week `json:"weeks"`

	// Version increases on every committed change. The persistence layer
	// compares it against the last saved version.
	Version int64 `json:"version"`
}

// Week is exactly seven days, indexed 0 (Monday) to 6 (Sunday).
type Week struct {
	Index int                `json:"index"`
	Days  [DaysPerWeek]*Day `json:"days"`
}

// Day holds named session slots ("manana", "tarde", ...). Sessions are
// keyed by slot name so reordering never invalidates references.
type Day struct {
	Index    int                 `json:"index"`
	Sessions map[string]*Session `json:"sessions"`
}

// Session is one training session in a day slot.
type Session struct {
	ID        string          `json:"id"`
	Slot      string          `json:"slot"`
	Hora      string          `json:"hora"`
	Duracion  int             `json:"duracion"` // minutes
	Estado    Status          `json:"estado"`
	Exercises []*ExerciseSlot `json:"ejercicios"`
	Notes     string          `json:"notas,omitempty"`
}

// ExerciseSlot is an exercise prescription inside a session. Order is dense
// within its session (0..n-1).
type ExerciseSlot struct {
	ID          string  `json:"id"`
	ExerciseRef string  `json:"ejercicioRef"`
	Series      int     `json:"series"`
	Reps        int     `json:"repeticiones"`
	Weight      float64 `json:"peso"`     // kg
	Rest        int     `json:"descanso"` // seconds
	Order       int     `json:"orden"`
	Done        bool    `json:"completado"`
	Notes       string  `json:"notas,omitempty"`
}

// Load returns the aggregate load of the slot (series x reps x weight).
func (e *ExerciseSlot) Load() float64 {
	return float64(e.Series) * float64(e.Reps) * e.Weight
}

// Location addresses a session inside the grid.
type Location struct {
	Week int
	Day  int
	Slot string
}

func (l Location) String() string {
	return fmt.Sprintf("w%d/d%d/%s", l.Week, l.Day, l.Slot)
}

// NewID returns a fresh identifier for sessions and exercise slots.
func NewID() string {
	return uuid.NewString()
}

// New creates an empty plan with the given number of weeks.
func New(id string, weeks int) *Plan {
	p := &Plan{ID: id}
	for w := range weeks {
		p.Weeks = append(p.Weeks, NewWeek(w))
	}
	return p
}

// NewWeek creates a week with seven empty days.
func NewWeek(index int) *Week {
	w := &Week{Index: index}
	for d := range DaysPerWeek {
		w.Days[d] = &Day{Index: d, Sessions: make(map[string]*Session)}
	}
	return w
}

// Day returns the day at (week, day), or nil if out of range.
func (p *Plan) Day(week, day int) *Day {
	if week < 0 || week >= len(p.Weeks) || day < 0 || day >= DaysPerWeek {
		return nil
	}
	return p.Weeks[week].Days[day]
}

// SessionAt returns the session in the given slot, or nil.
func (p *Plan) SessionAt(loc Location) *Session {
	d := p.Day(loc.Week, loc.Day)
	if d == nil {
		return nil
	}
	return d.Sessions[loc.Slot]
}

// FindSession returns the session with the given id and its location.
func (p *Plan) FindSession(id string) (*Session, Location, bool) {
	for loc, s := range p.Sessions() {
		if s.ID == id {
			return s, loc, true
		}
	}
	return nil, Location{}, false
}

// FindSlot returns the session containing the exercise slot and the slot's
// position in it.
func (p *Plan) FindSlot(slotID string) (*Session, int, bool) {
	for _, s := range p.Sessions() {
		if i := s.IndexOf(slotID); i >= 0 {
			return s, i, true
		}
	}
	return nil, -1, false
}

// Sessions iterates every session in deterministic order: by week, day,
// then start time and slot name.
func (p *Plan) Sessions() iter.Seq2[Location, *Session] {
	return func(yield func(Location, *Session) bool) {
		for _, w := range p.Weeks {
			for _, d := range w.Days {
				for _, s := range d.Ordered() {
					loc := Location{Week: w.Index, Day: d.Index, Slot: s.Slot}
					if !yield(loc, s) {
						return
					}
				}
			}
		}
	}
}

// Ordered returns the day's sessions sorted by start time, then slot name.
func (d *Day) Ordered() []*Session {
	out := make([]*Session, 0, len(d.Sessions))
	for _, s := range d.Sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		mi, _ := ParseHora(out[i].Hora)
		mj, _ := ParseHora(out[j].Hora)
		if mi != mj {
			return mi < mj
		}
		return out[i].Slot < out[j].Slot
	})
	return out
}

// ExerciseCount returns the number of exercise slots in the day.
func (d *Day) ExerciseCount() int {
	n := 0
	for _, s := range d.Sessions {
		n += len(s.Exercises)
	}
	return n
}

// IndexOf returns the position of the exercise slot in the session, or -1.
func (s *Session) IndexOf(slotID string) int {
	for i, e := range s.Exercises {
		if e.ID == slotID {
			return i
		}
	}
	return -1
}

// Active reports whether the session counts towards the week's load.
func (s *Session) Active() bool {
	return s.Estado != StatusCancelled
}

// Insert places e at index i and renumbers. i is clamped to [0, len].
func (s *Session) Insert(i int, e *ExerciseSlot) {
	if i < 0 {
		i = 0
	}
	if i > len(s.Exercises) {
		i = len(s.Exercises)
	}
	s.Exercises = append(s.Exercises, nil)
	copy(s.Exercises[i+1:], s.Exercises[i:])
	s.Exercises[i] = e
	s.Renumber()
}

// RemoveAt removes and returns the slot at index i and renumbers.
func (s *Session) RemoveAt(i int) *ExerciseSlot {
	e := s.Exercises[i]
	s.Exercises = append(s.Exercises[:i], s.Exercises[i+1:]...)
	s.Renumber()
	return e
}

// Renumber makes Order dense and equal to list position.
func (s *Session) Renumber() {
	for i, e := range s.Exercises {
		e.Order = i
	}
}

// Orders captures the current Order value of every slot by id.
func (s *Session) Orders() map[string]int {
	out := make(map[string]int, len(s.Exercises))
	for _, e := range s.Exercises {
		out[e.ID] = e.Order
	}
	return out
}

// RestoreOrders writes back Order values captured with Orders.
func (s *Session) RestoreOrders(orders map[string]int) {
	for _, e := range s.Exercises {
		if o, ok := orders[e.ID]; ok {
			e.Order = o
		}
	}
}
