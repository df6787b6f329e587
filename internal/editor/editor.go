// Package editor is the UI-facing surface of the plan editor. It owns the
// command history of one plan, runs validation after every version and
// hands snapshots to the persistence coordinator.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/weekplan/internal/batch"
	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/clock"
	"github.com/abhisek/weekplan/internal/command"
	"github.com/abhisek/weekplan/internal/persist"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/slotgrid"
	"github.com/abhisek/weekplan/internal/validation"
)

// maxNotices bounds the notice list; the oldest are dropped first.
const maxNotices = 20

var (
	// ErrAlertNotFound is returned by ApplyFix for an id that is not among
	// the current alerts.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrNotFixable is returned by ApplyFix for an alert without a fix.
	ErrNotFixable = errors.New("alert has no fix")
	// ErrNoPersistence is returned by RetrySync when no coordinator is set.
	ErrNoPersistence = errors.New("persistence is not configured")
)

// Notice is a dismissible message about an action that was rejected.
type Notice struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Intent  string    `json:"intent"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// State is everything a view needs to render the editor.
type State struct {
	Model   *plan.Plan            `json:"model"`
	Sync    persist.SyncState     `json:"sync"`
	Alerts  []validation.Alert    `json:"alerts"`
	Notices []Notice              `json:"notices"`
	CanUndo bool                  `json:"canUndo"`
	CanRedo bool                  `json:"canRedo"`
	History []command.HistoryItem `json:"history"`
}

// Outcome describes what a dispatched intent did.
type Outcome struct {
	Version int64         `json:"version"`
	Changed bool          `json:"changed"`
	Notice  *Notice       `json:"notice,omitempty"`
	Batch   *batch.Result `json:"batch,omitempty"`
}

// Options configure an Editor. Zero values fall back to defaults.
type Options struct {
	Catalog        catalog.Catalog
	Validation     validation.Config
	MaxHistory     int
	CoalesceWindow time.Duration
	Sync           *persist.Coordinator
	Clock          clock.Clock
	Logger         *slog.Logger
}

// Editor serialises every change to one plan.
type Editor struct {
	grid  *slotgrid.Grid
	batch *batch.Editor
	rules *validation.Engine
	sync  *persist.Coordinator
	clock clock.Clock
	log   *slog.Logger

	mu        sync.Mutex
	stack     *command.Stack
	alerts    []validation.Alert
	notices   []Notice
	listeners map[int]func(State)
	nextID    int
}

// New creates an editor that takes ownership of p.
func New(p *plan.Plan, opts Options) *Editor {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Validation == (validation.Config{}) {
		opts.Validation = validation.DefaultConfig()
	}
	grid := slotgrid.New(opts.Catalog)
	e := &Editor{
		grid:  grid,
		batch: batch.New(grid),
		rules: validation.New(opts.Validation),
		sync:  opts.Sync,
		clock: opts.Clock,
		log:   opts.Logger,
		stack: command.NewStack(p,
			command.WithMaxHistory(opts.MaxHistory),
			command.WithCoalesceWindow(opts.CoalesceWindow),
			command.WithClock(opts.Clock),
		),
		listeners: make(map[int]func(State)),
	}
	e.alerts = e.rules.Evaluate(p)
	return e
}

// GetState returns a copy of the editor state.
func (e *Editor) GetState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Editor) stateLocked() State {
	st := State{
		Model:   e.stack.Snapshot(),
		Alerts:  append([]validation.Alert{}, e.alerts...),
		Notices: append([]Notice{}, e.notices...),
		CanUndo: e.stack.CanUndo(),
		CanRedo: e.stack.CanRedo(),
		History: e.stack.History(),
	}
	if e.sync != nil {
		st.Sync = e.sync.State()
	} else {
		st.Sync = persist.SyncState{Status: persist.StatusSaved}
	}
	return st
}

// Version returns the current plan version.
func (e *Editor) Version() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stack.Version()
}

// OnChange registers fn to be called once for every new plan version and
// returns a function that removes it. fn runs outside the editor lock.
func (e *Editor) OnChange(fn func(State)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// OnSyncChange forwards sync state changes to fn. Without persistence it
// does nothing.
func (e *Editor) OnSyncChange(fn func(persist.SyncState)) func() {
	if e.sync == nil {
		return func() {}
	}
	return e.sync.OnStateChange(fn)
}

// Dispatch applies one intent. Rejected intents return the error and leave
// a notice in the state; the plan is not changed.
func (e *Editor) Dispatch(ctx context.Context, in Intent) (Outcome, error) {
	switch in := in.(type) {
	case nil:
		return Outcome{Version: e.Version()}, errors.New("nil intent")
	case RetrySync:
		return e.retrySync(ctx)
	case DismissNotice:
		return e.dismiss(in.NoticeID), nil
	}

	e.mu.Lock()
	out, notify, err := e.dispatchLocked(in)
	e.mu.Unlock()
	notify()
	return out, err
}

// dispatchLocked returns the outcome and a func delivering change
// notifications, to be called once the lock is released.
func (e *Editor) dispatchLocked(in Intent) (Outcome, func(), error) {
	p := e.stack.Plan()
	before := e.stack.Version()
	var (
		cmd command.Command
		err error
		res *batch.Result
	)

	switch in := in.(type) {
	case Undo:
		_, err = e.stack.Undo()
	case Redo:
		_, err = e.stack.Redo()
	case MoveExercise:
		cmd, err = e.grid.MoveExercise(p, in.SlotID, in.FromSessionID, in.ToSessionID, in.ToIndex)
	case MoveGesture:
		cmd, err = e.gesture(p, in)
	case AddExercise:
		cmd, err = e.grid.AddExercise(p, in.SessionID, in.Ref, in.AtIndex)
	case RemoveExercise:
		cmd, err = e.grid.RemoveExercise(p, in.SlotID)
	case EditSlot:
		cmd, err = e.grid.EditSlot(p, in.SlotID, in.Patch)
	case BatchDistribute:
		res, err = e.batch.Distribute(p, in.Targets, in.Exercises, batch.Options{OnlyEmpty: in.OnlyEmpty})
		if res != nil {
			cmd = res.Command
		}
	case SetSessionStatus:
		cmd, err = e.grid.SetSessionStatus(p, in.SessionID, in.Status)
	case EditSession:
		cmd, err = e.grid.EditSession(p, in.SessionID, in.Patch)
	case AddSession:
		loc := plan.Location{Week: in.Week, Day: in.Day, Slot: in.Slot}
		cmd, err = e.grid.AddSession(p, loc, in.Hora, in.Duracion)
	case RemoveSession:
		cmd, err = e.grid.RemoveSession(p, in.SessionID)
	case ApplyFix:
		cmd, err = e.fix(in.AlertID)
	default:
		err = fmt.Errorf("unsupported intent %T", in)
	}

	if err == nil && cmd != nil {
		_, err = e.stack.Execute(cmd)
	}
	if err != nil {
		n := e.noticeLocked(in, err)
		e.log.Info("intent rejected", "intent", in.Kind(), "error", err)
		return Outcome{Version: before, Notice: &n}, func() {}, err
	}

	after := e.stack.Version()
	out := Outcome{Version: after, Changed: after != before, Batch: res}
	if !out.Changed {
		return out, func() {}, nil
	}
	e.log.Debug("plan changed", "intent", in.Kind(), "version", after)
	return out, e.commitLocked(), nil
}

func (e *Editor) gesture(p *plan.Plan, in MoveGesture) (command.Command, error) {
	g := e.grid.NewGesture(p, in.Description)
	for _, m := range in.Moves {
		if err := g.Move(m.SlotID, m.FromSessionID, m.ToSessionID, m.ToIndex); err != nil {
			return command.NoOp{Reason: "gesture rejected"}, err
		}
	}
	return g.Command(), nil
}

func (e *Editor) fix(alertID string) (command.Command, error) {
	a, ok := validation.Find(e.alerts, alertID)
	if !ok {
		return nil, fmt.Errorf("apply fix %s: %w", alertID, ErrAlertNotFound)
	}
	if !a.Fixable() {
		return nil, fmt.Errorf("apply fix %s (%s): %w", alertID, a.Rule, ErrNotFixable)
	}
	return a.Fix, nil
}

// commitLocked re-evaluates the plan after a version change, hands a
// snapshot to persistence and captures the change listeners.
func (e *Editor) commitLocked() func() {
	e.alerts = e.rules.Evaluate(e.stack.Plan())
	if e.sync != nil {
		e.sync.Notify(e.stack.Snapshot())
	}
	return e.emitLocked()
}

// emitLocked captures the state and listeners; the returned func delivers
// them after the lock is released.
func (e *Editor) emitLocked() func() {
	if len(e.listeners) == 0 {
		return func() {}
	}
	st := e.stateLocked()
	fns := make([]func(State), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(st)
		}
	}
}

func (e *Editor) noticeLocked(in Intent, err error) Notice {
	n := Notice{
		ID:      uuid.NewString(),
		Kind:    noticeKind(err),
		Intent:  in.Kind(),
		Message: err.Error(),
		At:      e.clock.Now(),
	}
	e.notices = append(e.notices, n)
	if over := len(e.notices) - maxNotices; over > 0 {
		e.notices = append([]Notice(nil), e.notices[over:]...)
	}
	return n
}

func noticeKind(err error) string {
	var (
		move       *slotgrid.InvalidMoveError
		conflict   *slotgrid.ConflictError
		transition *slotgrid.InvalidTransitionError
		save       *persist.SaveError
	)
	switch {
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &transition):
		return "invalid-transition"
	case errors.As(err, &move):
		return "invalid-move"
	case errors.As(err, &save):
		return "sync"
	case errors.Is(err, ErrAlertNotFound), errors.Is(err, ErrNotFixable):
		return "fix"
	}
	return "error"
}

func (e *Editor) dismiss(id string) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, n := range e.notices {
		if n.ID == id {
			e.notices = append(e.notices[:i], e.notices[i+1:]...)
			break
		}
	}
	return Outcome{Version: e.stack.Version()}
}

// retrySync runs outside the editor lock so a slow save never blocks
// editing.
func (e *Editor) retrySync(ctx context.Context) (Outcome, error) {
	version := e.Version()
	if e.sync == nil {
		return e.reject(RetrySync{}, version, ErrNoPersistence)
	}
	if err := e.sync.Retry(ctx); err != nil {
		return e.reject(RetrySync{}, version, err)
	}
	return Outcome{Version: version}, nil
}

func (e *Editor) reject(in Intent, version int64, err error) (Outcome, error) {
	e.mu.Lock()
	n := e.noticeLocked(in, err)
	e.mu.Unlock()
	return Outcome{Version: version, Notice: &n}, err
}

// Flush saves the newest version synchronously. It is a no-op without
// persistence.
func (e *Editor) Flush(ctx context.Context) error {
	if e.sync == nil {
		return nil
	}
	return e.sync.Flush(ctx)
}

// Close flushes pending edits and stops the persistence coordinator.
func (e *Editor) Close(ctx context.Context) error {
	if e.sync == nil {
		return nil
	}
	err := e.sync.Flush(ctx)
	e.sync.Close()
	return err
}
