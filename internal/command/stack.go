package command

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/weekplan/internal/clock"
	"github.com/abhisek/weekplan/internal/plan"
)

// DefaultMaxHistory bounds the number of history entries kept.
const DefaultMaxHistory = 100

// Entry is one undoable step in the history. A coalesced entry holds every
// merged command in a single Composite.
type Entry struct {
	ID          string
	Description string
	Timestamp   time.Time
	Mergeable   bool

	cmd       Command
	mergeKey  string
	coalesced *Composite
}

// HistoryItem is a read-only view of an entry for the UI.
type HistoryItem struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Applied     bool      `json:"applied"`
}

// Stack owns the plan and its linear undo/redo history. It is the only
// component that mutates the plan. Stack is not safe for concurrent use;
// the editor serialises access.
type Stack struct {
	model      *plan.Plan
	history    []*Entry
	pointer    int // history[:pointer] is applied
	maxHistory int
	window     time.Duration
	clock      clock.Clock
}

// Option configures a Stack.
type Option func(*Stack)

// WithMaxHistory bounds the history length. Values < 1 are ignored.
func WithMaxHistory(n int) Option {
	return func(s *Stack) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithCoalesceWindow sets the initial coalescing window.
func WithCoalesceWindow(d time.Duration) Option {
	return func(s *Stack) { s.window = d }
}

// WithClock sets the clock used to timestamp entries.
func WithClock(c clock.Clock) Option {
	return func(s *Stack) { s.clock = c }
}

// NewStack takes ownership of p.
func NewStack(p *plan.Plan, opts ...Option) *Stack {
	s := &Stack{
		model:      p,
		maxHistory: DefaultMaxHistory,
		clock:      clock.Real{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Coalesce sets the window within which adjacent mergeable commands with the
// same merge key collapse into one history entry. Zero disables coalescing.
func (s *Stack) Coalesce(window time.Duration) {
	s.window = window
}

// Plan returns the live plan. Callers must treat it as read-only.
func (s *Stack) Plan() *plan.Plan {
	return s.model
}

// Snapshot returns a deep copy of the current plan.
func (s *Stack) Snapshot() *plan.Plan {
	return s.model.Clone()
}

// Version returns the current plan version.
func (s *Stack) Version() int64 {
	return s.model.Version
}

// CanUndo reports whether an applied entry exists.
func (s *Stack) CanUndo() bool { return s.pointer > 0 }

// CanRedo reports whether an undone entry exists.
func (s *Stack) CanRedo() bool { return s.pointer < len(s.history) }

// Execute applies cmd, records it and returns the new version. No-op commands
// are neither applied nor recorded. If cmd fails the plan and the history are
// unchanged.
func (s *Stack) Execute(cmd Command) (int64, error) {
	if IsNoOp(cmd) {
		return s.model.Version, nil
	}
	if err := cmd.Do(s.model); err != nil {
		return s.model.Version, err
	}

	now := s.clock.Now()
	hadRedo := s.CanRedo()
	s.history = s.history[:s.pointer]

	if !hadRedo && s.tryMerge(cmd, now) {
		s.model.Version++
		return s.model.Version, nil
	}

	e := &Entry{
		ID:          uuid.NewString(),
		Description: cmd.Describe(),
		Timestamp:   now,
		cmd:         cmd,
	}
	if m, ok := cmd.(Mergeable); ok {
		e.Mergeable = true
		e.mergeKey = m.MergeKey()
	}
	s.history = append(s.history, e)
	s.pointer++

	if over := len(s.history) - s.maxHistory; over > 0 {
		s.history = append([]*Entry(nil), s.history[over:]...)
		s.pointer -= over
	}

	s.model.Version++
	return s.model.Version, nil
}

// tryMerge folds cmd into the tip entry when both are mergeable with the
// same key and cmd arrives within the window of the tip's last command.
func (s *Stack) tryMerge(cmd Command, now time.Time) bool {
	if s.window <= 0 || s.pointer == 0 {
		return false
	}
	m, ok := cmd.(Mergeable)
	if !ok {
		return false
	}
	tip := s.history[s.pointer-1]
	if !tip.Mergeable || tip.mergeKey != m.MergeKey() || now.Sub(tip.Timestamp) > s.window {
		return false
	}
	if tip.coalesced == nil {
		tip.coalesced = NewComposite(tip.Description, tip.cmd)
		tip.cmd = tip.coalesced
	}
	tip.coalesced.Add(cmd)
	tip.Timestamp = now
	return true
}

// Undo reverts the last applied entry. At the start of the history it is a
// no-op and returns the unchanged version.
func (s *Stack) Undo() (int64, error) {
	if !s.CanUndo() {
		return s.model.Version, nil
	}
	e := s.history[s.pointer-1]
	if err := e.cmd.Undo(s.model); err != nil {
		return s.model.Version, err
	}
	s.pointer--
	s.model.Version++
	return s.model.Version, nil
}

// Redo reapplies the next undone entry. At the end of the history it is a
// no-op and returns the unchanged version.
func (s *Stack) Redo() (int64, error) {
	if !s.CanRedo() {
		return s.model.Version, nil
	}
	e := s.history[s.pointer]
	if err := e.cmd.Do(s.model); err != nil {
		return s.model.Version, err
	}
	s.pointer++
	s.model.Version++
	return s.model.Version, nil
}

// Reset replaces the plan and clears the history.
func (s *Stack) Reset(p *plan.Plan) {
	s.model = p
	s.history = nil
	s.pointer = 0
}

// History lists entries oldest first.
func (s *Stack) History() []HistoryItem {
	out := make([]HistoryItem, len(s.history))
	for i, e := range s.history {
		out[i] = HistoryItem{
			ID:          e.ID,
			Description: e.Description,
			Timestamp:   e.Timestamp,
			Applied:     i < s.pointer,
		}
	}
	return out
}
