package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/weekplan/internal/command"
	"github.com/abhisek/weekplan/internal/plan"
)

func session(id, slot, hora string, dur int, slots ...*plan.ExerciseSlot) *plan.Session {
	s := plan.NewSession(plan.SessionTemplate{Slot: slot, Hora: hora, Duracion: dur})
	s.ID = id
	for i, e := range slots {
		s.Insert(i, e)
	}
	return s
}

func slot(id string, series, reps int, kg float64) *plan.ExerciseSlot {
	return &plan.ExerciseSlot{ID: id, ExerciseRef: "sentadilla", Series: series, Reps: reps, Weight: kg}
}

func put(p *plan.Plan, day int, s *plan.Session) {
	p.Weeks[0].Days[day].Sessions[s.Slot] = s
}

func rules(alerts []Alert) []string {
	var out []string
	for _, a := range alerts {
		out = append(out, a.Rule)
	}
	return out
}

func TestHealthyPlanHasNoAlerts(t *testing.T) {
	p := plan.New("p", 1)
	put(p, 0, session("s1", "manana", "07:00", 60, slot("x", 4, 6, 100)))
	assert.Empty(t, New(DefaultConfig()).Evaluate(p))
}

func TestOverlappingSessions(t *testing.T) {
	p := plan.New("p", 1)
	put(p, 0, session("s1", "manana", "07:00", 90, slot("x", 4, 6, 100)))
	put(p, 0, session("s2", "tarde", "08:00", 60, slot("y", 4, 6, 100)))

	e := New(DefaultConfig())
	alerts := e.Evaluate(p)
	require.Equal(t, []string{RuleOverlap}, rules(alerts))
	a := alerts[0]
	assert.Equal(t, SeverityError, a.Severity)
	assert.Equal(t, "s2", a.TargetID)
	require.True(t, a.Fixable())
	assert.Equal(t, "Mover a las 08:30", a.FixLabel)

	st := command.NewStack(p)
	_, err := st.Execute(a.Fix)
	require.NoError(t, err)
	assert.Equal(t, "08:30", p.SessionAt(plan.Location{Day: 0, Slot: "tarde"}).Hora)
	assert.Empty(t, e.Evaluate(p))

	_, err = st.Undo()
	require.NoError(t, err)
	assert.Equal(t, []string{RuleOverlap}, rules(e.Evaluate(p)))
}

func TestOverlapWithoutRoomHasNoFix(t *testing.T) {
	p := plan.New("p", 1)
	put(p, 0, session("s1", "tarde", "22:00", 120, slot("x", 4, 6, 100)))
	put(p, 0, session("s2", "noche", "23:00", 30, slot("y", 4, 6, 100)))

	alerts := New(DefaultConfig()).Evaluate(p)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Fixable())
}

func TestCancelledSessionsAreIgnored(t *testing.T) {
	p := plan.New("p", 1)
	put(p, 0, session("s1", "manana", "07:00", 90, slot("x", 4, 6, 100)))
	cancelled := session("s2", "tarde", "08:00", 60)
	cancelled.Estado = plan.StatusCancelled
	put(p, 0, cancelled)

	assert.Empty(t, New(DefaultConfig()).Evaluate(p))
}

func TestInvalidVolume(t *testing.T) {
	p := plan.New("p", 1)
	put(p, 0, session("s1", "manana", "07:00", 60, slot("x", 4, 6, 100), slot("y", 0, 5, 100)))

	e := New(DefaultConfig())
	alerts := e.Evaluate(p)
	require.Equal(t, []string{RuleInvalidVolume}, rules(alerts))
	assert.Equal(t, "y", alerts[0].TargetID)

	require.NoError(t, alerts[0].Fix.Do(p))
	s, i, _ := p.FindSlot("y")
	assert.Equal(t, 1, s.Exercises[i].Series)
	assert.Equal(t, 5, s.Exercises[i].Reps)
	assert.Empty(t, e.Evaluate(p))
}

func TestMaxSessionsPerWeek(t *testing.T) {
	p := plan.New("p", 1)
	for d := range plan.DaysPerWeek {
		put(p, d, session("s"+string(rune('a'+d)), "manana", "07:00", 60, slot("x"+string(rune('a'+d)), 4, 6, 100)))
	}

	alerts := New(Config{MaxSessionsPerWeek: 6}).Evaluate(p)
	require.Equal(t, []string{RuleMaxSessions}, rules(alerts))
	assert.Equal(t, SeverityWarn, alerts[0].Severity)
	assert.False(t, alerts[0].Fixable())

	assert.Empty(t, New(Config{MaxSessionsPerWeek: 7}).Evaluate(p))
}

func TestLowIntensity(t *testing.T) {
	p := plan.New("p", 1)
	put(p, 1, session("s1", "manana", "07:00", 60, slot("x", 3, 5, 100)))

	e := New(Config{MinDailyLoad: 2000})
	alerts := e.Evaluate(p)
	require.Equal(t, []string{RuleLowIntensity}, rules(alerts))
	a := alerts[0]
	assert.Equal(t, "w0/d1", a.TargetID)
	assert.Equal(t, "Aumentar intensidad un 34%", a.FixLabel)

	st := command.NewStack(p)
	_, err := st.Execute(a.Fix)
	require.NoError(t, err)
	s, i, _ := p.FindSlot("x")
	assert.Equal(t, 134.0, s.Exercises[i].Weight)
	assert.Empty(t, e.Evaluate(p))

	_, err = st.Undo()
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.Exercises[i].Weight)
}

func TestLowIntensitySkipsBodyweightDays(t *testing.T) {
	p := plan.New("p", 1)
	put(p, 1, session("s1", "manana", "07:00", 60, slot("x", 3, 10, 0)))
	assert.Empty(t, New(Config{MinDailyLoad: 2000}).Evaluate(p))
}

func TestLowIntensityIgnoresInvalidVolume(t *testing.T) {
	p := plan.New("p", 1)
	put(p, 1, session("s1", "manana", "07:00", 60, slot("x", 3, 5, 100), slot("y", -3, 5, 100)))

	alerts := New(Config{MinDailyLoad: 2000}).Evaluate(p)
	require.Equal(t, []string{RuleInvalidVolume, RuleLowIntensity}, rules(alerts))
	a := alerts[1]
	require.True(t, a.Fixable())
	assert.Equal(t, "Aumentar intensidad un 34%", a.FixLabel)
	assert.Contains(t, a.Message, "1500 kg")
}

func TestEmptySession(t *testing.T) {
	p := plan.New("p", 1)
	put(p, 3, session("s1", "manana", "07:00", 60))

	alerts := New(DefaultConfig()).Evaluate(p)
	require.Equal(t, []string{RuleEmptySession}, rules(alerts))
	assert.Equal(t, SeverityInfo, alerts[0].Severity)

	require.NoError(t, alerts[0].Fix.Do(p))
	_, _, ok := p.FindSession("s1")
	assert.False(t, ok)
}

func TestEvaluateIsDeterministicAndOrdered(t *testing.T) {
	build := func() *plan.Plan {
		p := plan.New("p", 1)
		put(p, 0, session("s1", "manana", "07:00", 90, slot("x", 0, 6, 100)))
		put(p, 0, session("s2", "tarde", "08:00", 60, slot("y", 1, 1, 10)))
		put(p, 4, session("s3", "manana", "07:00", 60))
		put(p, 5, session("s4", "manana", "07:00", 60))
		return p
	}
	e := New(DefaultConfig())

	first := e.Evaluate(build())
	second := e.Evaluate(build())
	require.Len(t, first, len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Message, second[i].Message)
	}

	assert.Equal(t, []string{
		RuleOverlap,
		RuleInvalidVolume,
		RuleLowIntensity,
		RuleEmptySession,
		RuleEmptySession,
	}, rules(first))
	assert.Equal(t, "s3", first[3].TargetID)
	assert.Equal(t, "s4", first[4].TargetID)

	a, ok := Find(first, AlertID(RuleEmptySession, "s4"))
	require.True(t, ok)
	assert.Equal(t, first[4].ID, a.ID)
}
