package command

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/weekplan/internal/clock"
	"github.com/abhisek/weekplan/internal/plan"
)

// setWeight is a minimal command used to exercise the stack.
type setWeight struct {
	slotID string
	to     float64
	prev   float64
}

func (c *setWeight) Do(p *plan.Plan) error {
	s, i, ok := p.FindSlot(c.slotID)
	if !ok {
		return fmt.Errorf("slot %q not found", c.slotID)
	}
	c.prev = s.Exercises[i].Weight
	s.Exercises[i].Weight = c.to
	return nil
}

func (c *setWeight) Undo(p *plan.Plan) error {
	s, i, ok := p.FindSlot(c.slotID)
	if !ok {
		return fmt.Errorf("slot %q not found", c.slotID)
	}
	s.Exercises[i].Weight = c.prev
	return nil
}

func (c *setWeight) Describe() string { return "set weight of " + c.slotID }

type mergeableWeight struct{ *setWeight }

func (m mergeableWeight) MergeKey() string { return "weight:" + m.slotID }

type failing struct{}

func (failing) Do(*plan.Plan) error   { return errors.New("boom") }
func (failing) Undo(*plan.Plan) error { return nil }
func (failing) Describe() string      { return "failing" }

func testPlan() *plan.Plan {
	p := plan.Scaffold("p1", 1, []int{0}, plan.DefaultTemplate)
	s := p.SessionAt(plan.Location{Week: 0, Day: 0, Slot: "manana"})
	s.Insert(0, &plan.ExerciseSlot{ID: "a", ExerciseRef: "sentadilla", Series: 3, Reps: 5, Weight: 100})
	s.Insert(1, &plan.ExerciseSlot{ID: "b", ExerciseRef: "remo", Series: 3, Reps: 8, Weight: 50})
	return p
}

func weightOf(t *testing.T, p *plan.Plan, id string) float64 {
	t.Helper()
	s, i, ok := p.FindSlot(id)
	require.True(t, ok)
	return s.Exercises[i].Weight
}

func TestExecuteUndoRedo(t *testing.T) {
	st := NewStack(testPlan())

	v, err := st.Execute(&setWeight{slotID: "a", to: 110})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	assert.Equal(t, 110.0, weightOf(t, st.Plan(), "a"))
	assert.True(t, st.CanUndo())
	assert.False(t, st.CanRedo())

	v, err = st.Undo()
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.Equal(t, 100.0, weightOf(t, st.Plan(), "a"))
	assert.True(t, st.CanRedo())

	v, err = st.Redo()
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	assert.Equal(t, 110.0, weightOf(t, st.Plan(), "a"))
}

func TestUndoAllRestoresOriginal(t *testing.T) {
	original := testPlan()
	st := NewStack(original.Clone())

	const n = 20
	for i := range n {
		id := "a"
		if i%2 == 1 {
			id = "b"
		}
		_, err := st.Execute(&setWeight{slotID: id, to: float64(200 + i)})
		require.NoError(t, err)
	}
	after := st.Snapshot()

	for range n {
		_, err := st.Undo()
		require.NoError(t, err)
	}
	assert.Equal(t, original.Weeks, st.Plan().Weeks)
	assert.False(t, st.CanUndo())

	for range n {
		_, err := st.Redo()
		require.NoError(t, err)
	}
	assert.Equal(t, after.Weeks, st.Plan().Weeks)
}

func TestExecuteAfterUndoDiscardsRedo(t *testing.T) {
	st := NewStack(testPlan())
	for _, w := range []float64{101, 102, 103} {
		_, err := st.Execute(&setWeight{slotID: "a", to: w})
		require.NoError(t, err)
	}
	_, _ = st.Undo()
	_, _ = st.Undo()
	require.True(t, st.CanRedo())

	_, err := st.Execute(&setWeight{slotID: "b", to: 10})
	require.NoError(t, err)

	assert.False(t, st.CanRedo())
	assert.Len(t, st.History(), 2)
	v := st.Version()
	got, err := st.Redo()
	require.NoError(t, err)
	assert.Equal(t, v, got, "redo with an empty redo stack must not change the version")
}

func TestBoundariesAreNoOps(t *testing.T) {
	st := NewStack(testPlan())
	before := st.Snapshot()

	v, err := st.Undo()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	v, err = st.Redo()
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
	assert.Equal(t, before, st.Plan())
}

func TestFailingCommandLeavesStateUntouched(t *testing.T) {
	st := NewStack(testPlan())
	_, err := st.Execute(&setWeight{slotID: "a", to: 1})
	require.NoError(t, err)
	before := st.Snapshot()

	v, err := st.Execute(failing{})
	require.Error(t, err)
	assert.Equal(t, int64(1), v)
	assert.Equal(t, before, st.Plan())
	assert.Len(t, st.History(), 1)
}

func TestNoOpIsNotRecorded(t *testing.T) {
	st := NewStack(testPlan())
	v, err := st.Execute(NoOp{Reason: "invalid move"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
	assert.Empty(t, st.History())

	v, err = st.Execute(NewComposite("empty batch"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
	assert.Empty(t, st.History())
}

func TestCoalesceWithinWindow(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	st := NewStack(testPlan(), WithClock(clk), WithCoalesceWindow(500*time.Millisecond))

	for i := range 5 {
		_, err := st.Execute(mergeableWeight{&setWeight{slotID: "a", to: float64(101 + i)}})
		require.NoError(t, err)
		clk.Advance(100 * time.Millisecond)
	}

	require.Len(t, st.History(), 1)
	assert.Equal(t, int64(5), st.Version())
	assert.Equal(t, 105.0, weightOf(t, st.Plan(), "a"))

	_, err := st.Undo()
	require.NoError(t, err)
	assert.Equal(t, 100.0, weightOf(t, st.Plan(), "a"), "one undo restores the pre-window state")
	assert.False(t, st.CanUndo())

	_, err = st.Redo()
	require.NoError(t, err)
	assert.Equal(t, 105.0, weightOf(t, st.Plan(), "a"))
}

func TestCoalesceBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		run     func(st *Stack, clk *clock.Fake)
		entries int
	}{
		{
			name: "gap longer than window",
			run: func(st *Stack, clk *clock.Fake) {
				_, _ = st.Execute(mergeableWeight{&setWeight{slotID: "a", to: 1}})
				clk.Advance(time.Second)
				_, _ = st.Execute(mergeableWeight{&setWeight{slotID: "a", to: 2}})
			},
			entries: 2,
		},
		{
			name: "different merge keys",
			run: func(st *Stack, clk *clock.Fake) {
				_, _ = st.Execute(mergeableWeight{&setWeight{slotID: "a", to: 1}})
				_, _ = st.Execute(mergeableWeight{&setWeight{slotID: "b", to: 2}})
			},
			entries: 2,
		},
		{
			name: "non-mergeable command",
			run: func(st *Stack, clk *clock.Fake) {
				_, _ = st.Execute(&setWeight{slotID: "a", to: 1})
				_, _ = st.Execute(&setWeight{slotID: "a", to: 2})
			},
			entries: 2,
		},
		{
			name: "not across an undo",
			run: func(st *Stack, clk *clock.Fake) {
				_, _ = st.Execute(mergeableWeight{&setWeight{slotID: "a", to: 1}})
				_, _ = st.Execute(mergeableWeight{&setWeight{slotID: "b", to: 1}})
				_, _ = st.Undo()
				_, _ = st.Execute(mergeableWeight{&setWeight{slotID: "a", to: 2}})
			},
			entries: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clock.NewFake(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
			st := NewStack(testPlan(), WithClock(clk), WithCoalesceWindow(500*time.Millisecond))
			tt.run(st, clk)
			assert.Len(t, st.History(), tt.entries)
		})
	}
}

func TestCoalesceDisabled(t *testing.T) {
	st := NewStack(testPlan())
	st.Coalesce(0)
	for i := range 3 {
		_, err := st.Execute(mergeableWeight{&setWeight{slotID: "a", to: float64(i)}})
		require.NoError(t, err)
	}
	assert.Len(t, st.History(), 3)
}

func TestMaxHistoryEvictsOldest(t *testing.T) {
	st := NewStack(testPlan(), WithMaxHistory(3))
	for i := range 5 {
		_, err := st.Execute(&setWeight{slotID: "a", to: float64(i + 1)})
		require.NoError(t, err)
	}
	require.Len(t, st.History(), 3)
	assert.Equal(t, int64(5), st.Version())

	undone := 0
	for st.CanUndo() {
		_, err := st.Undo()
		require.NoError(t, err)
		undone++
	}
	assert.Equal(t, 3, undone)
	assert.Equal(t, 2.0, weightOf(t, st.Plan(), "a"), "evicted entries can no longer be undone")
}

func TestHistoryMarksApplied(t *testing.T) {
	st := NewStack(testPlan())
	_, _ = st.Execute(&setWeight{slotID: "a", to: 1})
	_, _ = st.Execute(&setWeight{slotID: "b", to: 2})
	_, _ = st.Undo()

	h := st.History()
	require.Len(t, h, 2)
	assert.True(t, h[0].Applied)
	assert.False(t, h[1].Applied)
	assert.Equal(t, "set weight of b", h[1].Description)
	assert.NotEmpty(t, h[0].ID)
}

func TestCompositeRollsBackOnFailure(t *testing.T) {
	p := testPlan()
	before := p.Clone()

	c := NewComposite("batch",
		&setWeight{slotID: "a", to: 1},
		NoOp{},
		&setWeight{slotID: "b", to: 2},
		failing{},
	)
	require.Len(t, c.Commands, 3)

	err := c.Do(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch")
	assert.Equal(t, before, p)
}

func TestReset(t *testing.T) {
	st := NewStack(testPlan())
	_, _ = st.Execute(&setWeight{slotID: "a", to: 1})

	fresh := plan.New("p2", 1)
	st.Reset(fresh)
	assert.Same(t, fresh, st.Plan())
	assert.False(t, st.CanUndo())
	assert.Empty(t, st.History())
}
