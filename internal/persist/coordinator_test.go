package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/weekplan/internal/plan"
)

// fakeStore records saves. Versions listed in gates block until the gate
// is closed; fail makes every save return an error, failOn only the listed
// versions.
type fakeStore struct {
	mu      sync.Mutex
	fail    bool
	failOn  map[int64]bool
	calls   []int64
	saved   []int64
	started map[int64]bool
	gates   map[int64]chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{started: map[int64]bool{}, gates: map[int64]chan struct{}{}, failOn: map[int64]bool{}}
}

func (f *fakeStore) Load(context.Context, string) (*plan.Plan, error) {
	return nil, plan.ErrNotFound
}

func (f *fakeStore) Save(ctx context.Context, _ string, p *plan.Plan) (SaveResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p.Version)
	f.started[p.Version] = true
	gate := f.gates[p.Version]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return SaveResult{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail || f.failOn[p.Version] {
		return SaveResult{}, errors.New("backend unavailable")
	}
	f.saved = append(f.saved, p.Version)
	return SaveResult{Version: p.Version, SavedAt: time.Now()}, nil
}

func (f *fakeStore) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *fakeStore) failVersion(version int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[version] = true
}

func (f *fakeStore) gate(version int64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[version] = ch
	return ch
}

func (f *fakeStore) snapshot() (calls, saved []int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.calls...), append([]int64(nil), f.saved...)
}

func (f *fakeStore) hasStarted(version int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started[version]
}

func testConfig() Config {
	return Config{
		Debounce:    30 * time.Millisecond,
		SaveTimeout: time.Second,
		Retry: RetryConfig{
			MaxRetries:  5,
			InitialWait: 5 * time.Millisecond,
			MaxWait:     20 * time.Millisecond,
			Multiplier:  2,
		},
	}
}

func version(v int64) *plan.Plan {
	p := plan.New("p1", 1)
	p.Version = v
	return p
}

func newCoordinator(t *testing.T, store PlanStore, cfg Config, opts ...Option) *Coordinator {
	t.Helper()
	c := New(store, "p1", cfg, opts...)
	t.Cleanup(c.Close)
	return c
}

func TestDebounceCollapsesBursts(t *testing.T) {
	store := newFakeStore()
	cfg := testConfig()
	cfg.Debounce = 100 * time.Millisecond
	c := newCoordinator(t, store, cfg)

	for v := int64(1); v <= 10; v++ {
		c.Notify(version(v))
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return c.State().LastSavedVersion == 10
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	calls, saved := store.snapshot()
	assert.Equal(t, []int64{10}, calls, "one save with the final state")
	assert.Equal(t, []int64{10}, saved)

	st := c.State()
	assert.Equal(t, StatusSaved, st.Status)
	assert.False(t, st.Dirty())
}

func TestRetriesThenManualRetry(t *testing.T) {
	store := newFakeStore()
	store.setFail(true)
	c := newCoordinator(t, store, testConfig())

	c.Notify(version(3))

	require.Eventually(t, func() bool {
		return c.State().NeedsManualRetry
	}, 2*time.Second, 5*time.Millisecond)

	calls, saved := store.snapshot()
	assert.Len(t, calls, 6, "initial attempt plus five retries")
	assert.Empty(t, saved)

	st := c.State()
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, int64(0), st.LastSavedVersion)
	assert.True(t, st.Dirty())
	var saveErr *SaveError
	require.ErrorAs(t, st.Err, &saveErr)
	assert.Equal(t, int64(3), saveErr.Version)

	time.Sleep(50 * time.Millisecond)
	calls, _ = store.snapshot()
	assert.Len(t, calls, 6, "no retries after exhaustion")

	store.setFail(false)
	require.NoError(t, c.Retry(context.Background()))
	st = c.State()
	assert.Equal(t, StatusSaved, st.Status)
	assert.Equal(t, int64(3), st.LastSavedVersion)
	assert.False(t, st.NeedsManualRetry)
	assert.Empty(t, st.LastError)
}

func TestNewerSnapshotStopsRetryChain(t *testing.T) {
	store := newFakeStore()
	store.setFail(true)
	cfg := testConfig()
	cfg.Retry.InitialWait = 200 * time.Millisecond
	cfg.Retry.MaxWait = time.Second
	c := newCoordinator(t, store, cfg)

	c.Notify(version(1))
	require.Eventually(t, func() bool {
		return c.State().Status == StatusError
	}, time.Second, 5*time.Millisecond)

	store.setFail(false)
	c.Notify(version(2))
	require.Eventually(t, func() bool {
		return c.State().LastSavedVersion == 2
	}, time.Second, 5*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	calls, saved := store.snapshot()
	assert.Equal(t, []int64{1, 2}, calls)
	assert.Equal(t, []int64{2}, saved)
	assert.Equal(t, StatusSaved, c.State().Status)
}

func TestStaleResultIsIgnored(t *testing.T) {
	store := newFakeStore()
	slow := store.gate(1)
	c := newCoordinator(t, store, testConfig())

	c.Notify(version(1))
	require.Eventually(t, func() bool { return store.hasStarted(1) }, time.Second, 5*time.Millisecond)

	c.Notify(version(2))
	require.Eventually(t, func() bool {
		return c.State().LastSavedVersion == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StatusSaving, c.State().Status, "version 1 is still in flight")

	close(slow)
	require.Eventually(t, func() bool {
		return c.State().Status == StatusSaved
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(2), c.State().LastSavedVersion)
}

func TestLateOlderSaveKeepsNewerFailure(t *testing.T) {
	store := newFakeStore()
	slow := store.gate(1)
	store.failVersion(2)
	cfg := testConfig()
	cfg.Debounce = 10 * time.Millisecond
	c := newCoordinator(t, store, cfg)

	c.Notify(version(1))
	require.Eventually(t, func() bool { return store.hasStarted(1) }, time.Second, 5*time.Millisecond)

	c.Notify(version(2))
	err := c.Flush(context.Background())
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, int64(2), saveErr.Version)

	close(slow)
	require.Eventually(t, func() bool {
		return c.State().LastSavedVersion == 1
	}, time.Second, 5*time.Millisecond)

	st := c.State()
	assert.Equal(t, StatusError, st.Status, "version 2 is still unsaved")
	assert.True(t, st.NeedsManualRetry)
	assert.True(t, st.Dirty())
	assert.NotEmpty(t, st.LastError)
	require.ErrorAs(t, st.Err, &saveErr)
	assert.Equal(t, int64(2), saveErr.Version)
}

func TestSaveTimeoutIsAFailure(t *testing.T) {
	store := newFakeStore()
	stuck := store.gate(1)
	t.Cleanup(func() { close(stuck) })

	cfg := testConfig()
	cfg.SaveTimeout = 20 * time.Millisecond
	cfg.Retry.MaxRetries = 0
	c := newCoordinator(t, store, cfg)

	c.Notify(version(1))
	require.Eventually(t, func() bool {
		return c.State().NeedsManualRetry
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, c.State().Err, context.DeadlineExceeded)
}

func TestFlushSavesImmediately(t *testing.T) {
	store := newFakeStore()
	cfg := testConfig()
	cfg.Debounce = time.Hour
	c := newCoordinator(t, store, cfg)

	c.Notify(version(4))
	require.NoError(t, c.Flush(context.Background()))
	_, saved := store.snapshot()
	assert.Equal(t, []int64{4}, saved)

	require.NoError(t, c.Flush(context.Background()), "nothing left to flush")
	_, saved = store.snapshot()
	assert.Len(t, saved, 1)
}

func TestFlushReturnsSaveError(t *testing.T) {
	store := newFakeStore()
	store.setFail(true)
	cfg := testConfig()
	cfg.Debounce = time.Hour
	c := newCoordinator(t, store, cfg)

	c.Notify(version(1))
	err := c.Flush(context.Background())
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.True(t, c.State().NeedsManualRetry)
}

func TestAlreadySavedVersionsAreSkipped(t *testing.T) {
	store := newFakeStore()
	c := newCoordinator(t, store, testConfig(), WithSavedVersion(7))

	c.Notify(version(7))
	time.Sleep(80 * time.Millisecond)
	calls, _ := store.snapshot()
	assert.Empty(t, calls)
	assert.Equal(t, int64(7), c.State().LastSavedVersion)
}

func TestStateListeners(t *testing.T) {
	store := newFakeStore()
	cfg := testConfig()
	cfg.Debounce = time.Hour
	c := newCoordinator(t, store, cfg)

	var (
		mu   sync.Mutex
		seen []Status
	)
	unsubscribe := c.OnStateChange(func(s SyncState) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Status)
	})

	c.Notify(version(1))
	require.NoError(t, c.Flush(context.Background()))
	mu.Lock()
	assert.Equal(t, []Status{StatusSaving, StatusSaved}, seen)
	mu.Unlock()

	unsubscribe()
	c.Notify(version(2))
	require.NoError(t, c.Flush(context.Background()))
	mu.Lock()
	assert.Len(t, seen, 2)
	mu.Unlock()
}

func TestBackoff(t *testing.T) {
	r := RetryConfig{InitialWait: 2 * time.Second, MaxWait: 30 * time.Second, Multiplier: 2}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second}
	for i, w := range want {
		assert.Equal(t, w, r.backoff(i), "attempt %d", i)
	}

	r.Jitter = true
	for range 50 {
		d := r.backoff(0)
		assert.GreaterOrEqual(t, d, 1600*time.Millisecond)
		assert.LessOrEqual(t, d, 2400*time.Millisecond)
	}
}
