package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/weekplan/internal/command"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/slotgrid"
)

// fivePlan has one morning session on each weekday of a single week.
func fivePlan() *plan.Plan {
	p := plan.Scaffold("p", 1, []int{0, 1, 2, 3, 4}, plan.DefaultTemplate)
	for d := range 5 {
		p.Weeks[0].Days[d].Sessions["manana"].ID = fmt.Sprintf("s%d", d)
	}
	return p
}

func weekdayTargets(n int) []Target {
	out := make([]Target, n)
	for d := range n {
		out[d] = Target{Week: 0, Day: d, Slot: "manana"}
	}
	return out
}

func refsOf(p *plan.Plan, sessionID string) []string {
	s, _, _ := p.FindSession(sessionID)
	var out []string
	for _, e := range s.Exercises {
		out = append(out, e.ExerciseRef)
	}
	return out
}

func TestDistributeCyclesOverMoreTargets(t *testing.T) {
	p := fivePlan()
	before := p.Clone()
	ed := New(&slotgrid.Grid{})

	res, err := ed.Distribute(p, weekdayTargets(5), []Prescription{{Ref: "ex0"}, {Ref: "ex1"}, {Ref: "ex2"}}, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Unassigned)
	require.Len(t, res.Assignments, 5)
	assert.Equal(t, before, p, "building the batch never touches the plan")

	st := command.NewStack(p)
	_, err = st.Execute(res.Command)
	require.NoError(t, err)

	want := []string{"ex0", "ex1", "ex2", "ex0", "ex1"}
	for d, ref := range want {
		assert.Equal(t, []string{ref}, refsOf(p, fmt.Sprintf("s%d", d)))
		assert.Equal(t, ref, res.Assignments[d].Ref)
	}

	require.Len(t, st.History(), 1)
	_, err = st.Undo()
	require.NoError(t, err)
	assert.Equal(t, before.Weeks, p.Weeks)
}

func TestDistributeReportsUnassigned(t *testing.T) {
	p := fivePlan()
	ed := New(&slotgrid.Grid{})

	exercises := []Prescription{{Ref: "ex0"}, {Ref: "ex1"}, {Ref: "ex2"}, {Ref: "ex3"}, {Ref: "ex4"}}
	res, err := ed.Distribute(p, weekdayTargets(3), exercises, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Assignments, 3)
	require.Len(t, res.Unassigned, 2)
	assert.Equal(t, "ex3", res.Unassigned[0].Ref)
	assert.Equal(t, "ex4", res.Unassigned[1].Ref)

	require.NoError(t, res.Command.Do(p))
	assert.Equal(t, []string{"ex2"}, refsOf(p, "s2"))
	assert.Empty(t, refsOf(p, "s3"))
}

func TestDistributeAppliesPrescription(t *testing.T) {
	p := fivePlan()
	ed := New(&slotgrid.Grid{})

	ex := Prescription{Ref: "sentadilla", SlotPatch: slotgrid.SlotPatch{Series: slotgrid.Int(5), Weight: slotgrid.Float(80)}}
	res, err := ed.Distribute(p, []Target{{SessionID: "s1"}}, []Prescription{ex}, Options{})
	require.NoError(t, err)
	require.NoError(t, res.Command.Do(p))

	s, i, ok := p.FindSlot(res.Assignments[0].SlotID)
	require.True(t, ok)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, 5, s.Exercises[i].Series)
	assert.Equal(t, 80.0, s.Exercises[i].Weight)
	assert.Equal(t, 10, s.Exercises[i].Reps, "fields outside the prescription keep their defaults")
}

func TestDistributeOnlyEmpty(t *testing.T) {
	p := fivePlan()
	p.Weeks[0].Days[1].Sessions["manana"].Insert(0, &plan.ExerciseSlot{ID: "busy", ExerciseRef: "remo", Series: 3, Reps: 8})
	ed := New(&slotgrid.Grid{})

	res, err := ed.Distribute(p, weekdayTargets(3), []Prescription{{Ref: "ex0"}}, Options{OnlyEmpty: true})
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 1, res.Skipped[0].Day)
	require.Len(t, res.Assignments, 2)

	require.NoError(t, res.Command.Do(p))
	assert.Equal(t, []string{"remo"}, refsOf(p, "s1"))
	assert.Equal(t, []string{"ex0"}, refsOf(p, "s2"))
}

func TestDistributeFailsAsAWhole(t *testing.T) {
	tests := []struct {
		name    string
		targets []Target
	}{
		{name: "unknown session id", targets: []Target{{SessionID: "s0"}, {SessionID: "nope"}}},
		{name: "empty slot", targets: []Target{{Week: 0, Day: 6, Slot: "manana"}}},
		{name: "duplicate target", targets: []Target{{SessionID: "s0"}, {Week: 0, Day: 0, Slot: "manana"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fivePlan()
			res, err := New(&slotgrid.Grid{}).Distribute(p, tt.targets, []Prescription{{Ref: "ex0"}}, Options{})
			var invalid *slotgrid.InvalidMoveError
			require.ErrorAs(t, err, &invalid)
			assert.True(t, command.IsNoOp(res.Command))
		})
	}
}

func TestDistributeNothing(t *testing.T) {
	p := fivePlan()
	res, err := New(&slotgrid.Grid{}).Distribute(p, weekdayTargets(2), nil, Options{})
	require.NoError(t, err)
	assert.True(t, command.IsNoOp(res.Command))
	assert.Empty(t, res.Assignments)
}
