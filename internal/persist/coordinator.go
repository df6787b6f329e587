package persist

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/weekplan/internal/plan"
)

// Coordinator saves the newest snapshot of one plan after edits settle.
//
// Every Notify restarts the debounce timer. When it fires the newest
// snapshot is saved unless its version is already saved. A failed save is
// retried with backoff until a newer snapshot arrives or retries run out,
// after which the state stays in error until Retry or Flush succeed.
// Results of older versions never roll back LastSavedVersion.
type Coordinator struct {
	store  PlanStore
	planID string
	cfg    Config
	log    *slog.Logger

	mu         sync.Mutex
	state      SyncState
	latest     *plan.Plan
	gen        uint64
	debounce   *time.Timer
	retryTimer *time.Timer
	inflight   int
	closed     bool
	listeners  map[int]func(SyncState)
	nextID     int
	wg         sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSavedVersion records that version is already persisted, typically
// the version the plan was loaded at.
func WithSavedVersion(version int64) Option {
	return func(c *Coordinator) {
		c.state.LastSavedVersion = version
		c.state.PendingVersion = version
	}
}

// New creates a coordinator for planID.
func New(store PlanStore, planID string, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		planID:    planID,
		cfg:       cfg,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:     SyncState{Status: StatusSaved},
		listeners: make(map[int]func(SyncState)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current sync state.
func (c *Coordinator) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers fn for every state change and returns a function
// that removes it. fn runs outside the coordinator lock.
func (c *Coordinator) OnStateChange(fn func(SyncState)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Notify queues snapshot as the newest version and restarts the debounce
// timer. The coordinator keeps the snapshot; callers must pass a copy.
func (c *Coordinator) Notify(snapshot *plan.Plan) {
	c.mu.Lock()
	if c.closed || snapshot == nil {
		c.mu.Unlock()
		return
	}
	if c.latest != nil && snapshot.Version <= c.latest.Version {
		c.mu.Unlock()
		return
	}
	c.latest = snapshot
	c.gen++
	c.state.PendingVersion = snapshot.Version
	c.stopRetryLocked()
	if c.debounce != nil {
		c.debounce.Stop()
	}
	gen := c.gen
	c.debounce = time.AfterFunc(c.cfg.Debounce, func() { c.fire(gen) })
	c.mu.Unlock()
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.latest == nil || c.latest.Version <= c.state.LastSavedVersion {
		c.mu.Unlock()
		return
	}
	snap := c.latest
	notify := c.beginLocked(snap, 0)
	c.wg.Add(1)
	c.mu.Unlock()
	notify()

	go func() {
		defer c.wg.Done()
		res, err := c.call(context.Background(), snap)
		c.finish(snap, 0, gen, res, err, true)
	}()
}

// beginLocked marks a save as started and returns the listener call.
func (c *Coordinator) beginLocked(snap *plan.Plan, attempt int) func() {
	c.inflight++
	c.state.Status = StatusSaving
	c.state.Attempt = attempt
	c.log.Debug("saving plan", "plan", c.planID, "version", snap.Version, "attempt", attempt)
	return c.emitLocked()
}

// call runs one save bounded by SaveTimeout. A store that ignores its
// context still times out.
func (c *Coordinator) call(ctx context.Context, snap *plan.Plan) (SaveResult, error) {
	if c.cfg.SaveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.SaveTimeout)
		defer cancel()
	}
	type outcome struct {
		res SaveResult
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := c.store.Save(ctx, c.planID, snap)
		ch <- outcome{res, err}
	}()
	select {
	case o := <-ch:
		return o.res, o.err
	case <-ctx.Done():
		return SaveResult{}, fmt.Errorf("save timed out after %s: %w", c.cfg.SaveTimeout, ctx.Err())
	}
}

// finish records the outcome of a save of snap. auto enables the backoff
// chain on failure.
func (c *Coordinator) finish(snap *plan.Plan, attempt int, gen uint64, res SaveResult, err error, auto bool) error {
	c.mu.Lock()
	c.inflight--

	if err == nil {
		if snap.Version > c.state.LastSavedVersion {
			c.state.LastSavedVersion = snap.Version
			c.state.LastSavedAt = res.SavedAt
			if c.state.LastSavedAt.IsZero() {
				c.state.LastSavedAt = time.Now()
			}
		}
		caughtUp := c.latest == nil || c.state.LastSavedVersion >= c.latest.Version
		switch {
		case c.inflight > 0:
		case caughtUp:
			c.state.Status = StatusSaved
			c.state.Attempt = 0
			c.state.NeedsManualRetry = false
			c.state.LastError = ""
			c.state.Err = nil
		case c.state.Err == nil:
			// A newer snapshot is waiting on its debounce timer.
			c.state.Status = StatusSaved
			c.state.Attempt = 0
		}
		// Otherwise a newer version failed to save; keep its error.
		c.log.Debug("plan saved", "plan", c.planID, "version", snap.Version)
		notify := c.emitLocked()
		c.mu.Unlock()
		notify()
		return nil
	}

	saveErr := &SaveError{PlanID: c.planID, Version: snap.Version, Attempt: attempt, Err: err}
	if snap.Version <= c.state.LastSavedVersion {
		// A newer version already landed; the failure no longer matters.
		if c.inflight == 0 && c.state.Status == StatusSaving {
			c.state.Status = StatusSaved
		}
		notify := c.emitLocked()
		c.mu.Unlock()
		notify()
		return nil
	}

	c.state.Status = StatusError
	c.state.Attempt = attempt
	c.state.LastError = saveErr.Error()
	c.state.Err = saveErr

	switch {
	case c.closed || !auto:
		c.state.NeedsManualRetry = true
	case gen != c.gen:
		// A newer snapshot is queued and will be saved by its own timer.
	case attempt < c.cfg.Retry.MaxRetries:
		wait := c.cfg.Retry.backoff(attempt)
		c.log.Warn("save failed, retrying", "plan", c.planID, "version", snap.Version,
			"attempt", attempt+1, "wait", wait, "err", err)
		c.retryTimer = time.AfterFunc(wait, func() { c.retry(gen, attempt+1) })
	default:
		c.log.Error("save failed, giving up", "plan", c.planID, "version", snap.Version,
			"attempts", attempt+1, "err", err)
		c.state.NeedsManualRetry = true
	}
	notify := c.emitLocked()
	c.mu.Unlock()
	notify()
	return saveErr
}

func (c *Coordinator) retry(gen uint64, attempt int) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.latest == nil || c.latest.Version <= c.state.LastSavedVersion {
		c.mu.Unlock()
		return
	}
	snap := c.latest
	notify := c.beginLocked(snap, attempt)
	c.wg.Add(1)
	c.mu.Unlock()
	notify()

	go func() {
		defer c.wg.Done()
		res, err := c.call(context.Background(), snap)
		c.finish(snap, attempt, gen, res, err, true)
	}()
}

// Retry saves the newest snapshot immediately, cancelling any pending
// timer or backoff. It returns the save error, if any.
func (c *Coordinator) Retry(ctx context.Context) error {
	return c.saveNow(ctx)
}

// Flush synchronously saves the newest unsaved snapshot. It is called
// before exit so the last edits are not lost.
func (c *Coordinator) Flush(ctx context.Context) error {
	return c.saveNow(ctx)
}

func (c *Coordinator) saveNow(ctx context.Context) error {
	c.mu.Lock()
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.stopRetryLocked()
	if c.latest == nil || c.latest.Version <= c.state.LastSavedVersion {
		c.mu.Unlock()
		return nil
	}
	snap := c.latest
	gen := c.gen
	notify := c.beginLocked(snap, 0)
	c.mu.Unlock()
	notify()

	res, err := c.call(ctx, snap)
	return c.finish(snap, 0, gen, res, err, false)
}

// Close stops timers and the retry chain and waits for in-flight saves.
// Unsaved snapshots are not written; call Flush first.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.stopRetryLocked()
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Coordinator) stopRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// emitLocked captures the state and listeners; the returned func delivers
// them after the lock is released.
func (c *Coordinator) emitLocked() func() {
	st := c.state
	fns := make([]func(SyncState), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(st)
		}
	}
}
