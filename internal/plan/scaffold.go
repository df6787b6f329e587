package plan

// SessionTemplate describes a session slot created when scaffolding a plan.
type SessionTemplate struct {
	Slot     string
	Hora     string
	Duracion int
}

// DefaultTemplate is the slot used by `weekplan new` when none is given.
var DefaultTemplate = SessionTemplate{Slot: "manana", Hora: "07:00", Duracion: 60}

// NewSession returns an empty pending session for the template.
func NewSession(t SessionTemplate) *Session {
	return &Session{
		ID:        NewID(),
		Slot:      t.Slot,
		Hora:      t.Hora,
		Duracion:  t.Duracion,
		Estado:    StatusPending,
		Exercises: []*ExerciseSlot{},
	}
}

// Scaffold creates a plan with one session per training day of every week.
// Day indexes outside 0-6 are ignored.
func Scaffold(id string, weeks int, trainingDays []int, t SessionTemplate) *Plan {
	p := New(id, weeks)
	for _, w := range p.Weeks {
		for _, d := range trainingDays {
			if d < 0 || d >= DaysPerWeek {
				continue
			}
			w.Days[d].Sessions[t.Slot] = NewSession(t)
		}
	}
	return p
}
