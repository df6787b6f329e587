// Package planner is the week grid screen: a cursor over the sessions and
// exercise slots of one week, with keys mapped to editor intents.
package planner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/weekplan/internal/batch"
	"github.com/abhisek/weekplan/internal/catalog"
	"github.com/abhisek/weekplan/internal/editor"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/router"
	"github.com/abhisek/weekplan/internal/screen"
	"github.com/abhisek/weekplan/internal/screens/action"
	"github.com/abhisek/weekplan/internal/screens/alerts"
	pickscreen "github.com/abhisek/weekplan/internal/screens/catalog"
	"github.com/abhisek/weekplan/internal/screens/form"
	"github.com/abhisek/weekplan/internal/screens/history"
	"github.com/abhisek/weekplan/internal/slotgrid"
	"github.com/abhisek/weekplan/internal/ui/layout"
)

// weightStep is the load change of one +/- press, in kg.
const weightStep = 2.5

var dayNames = [plan.DaysPerWeek]string{"Lun", "Mar", "Mié", "Jue", "Vie", "Sáb", "Dom"}

// slotTemplates prefill the new-session form; the first slot not taken
// in the day wins.
var slotTemplates = []plan.SessionTemplate{
	{Slot: "manana", Hora: "07:00", Duracion: 60},
	{Slot: "tarde", Hora: "18:00", Duracion: 60},
	{Slot: "noche", Hora: "20:30", Duracion: 45},
}

// nextStatus is the status the s key moves a session to.
var nextStatus = map[plan.Status]plan.Status{
	plan.StatusPending:    plan.StatusInProgress,
	plan.StatusInProgress: plan.StatusDone,
	plan.StatusDone:       plan.StatusInProgress,
	plan.StatusCancelled:  plan.StatusPending,
}

// row is one cursor position in a day column.
type row struct {
	session *plan.Session
	slot    int // -1 for the session header
}

func (r row) exercise() *plan.ExerciseSlot {
	if r.slot < 0 {
		return nil
	}
	return r.session.Exercises[r.slot]
}

// PlannerScreen edits one plan through an editor.
type PlannerScreen struct {
	ed        *editor.Editor
	cat       catalog.Catalog
	revisions history.RevisionLister
	keys      keyMap

	state          editor.State
	week, day, row int
	status         string
}

var _ screen.Screen = (*PlannerScreen)(nil)
var _ screen.KeyHintProvider = (*PlannerScreen)(nil)
var _ screen.Refresher = (*PlannerScreen)(nil)

// New creates the planner for ed. revisions may be nil when the plan is
// not backed by a store that keeps revisions.
func New(ed *editor.Editor, cat catalog.Catalog, revisions history.RevisionLister) *PlannerScreen {
	return &PlannerScreen{
		ed:        ed,
		cat:       cat,
		revisions: revisions,
		keys:      keys,
		state:     ed.GetState(),
	}
}

func (s *PlannerScreen) Init() tea.Cmd {
	return nil
}

func (s *PlannerScreen) Title() string {
	name := s.state.Model.Name
	if name == "" {
		name = s.state.Model.ID
	}
	return fmt.Sprintf("%s · semana %d/%d", name, s.week+1, len(s.state.Model.Weeks))
}

func (s *PlannerScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "hjkl", Description: "Move"},
		{Key: "HJKL", Description: "Drag"},
		{Key: "a/x/e", Description: "Add/Del/Edit"},
		{Key: "u/^r", Description: "Undo/Redo"},
		{Key: "!", Description: fmt.Sprintf("Alerts (%d)", len(s.state.Alerts))},
		{Key: "y", Description: "History"},
	}
}

// Refresh reloads the editor state and clamps the cursor.
func (s *PlannerScreen) Refresh() tea.Cmd {
	s.setState(s.ed.GetState())
	return nil
}

// Cursor returns the week, day and row under the cursor.
func (s *PlannerScreen) Cursor() (week, day, row int) {
	return s.week, s.day, s.row
}

// Status returns the last status line message.
func (s *PlannerScreen) Status() string {
	return s.status
}

func (s *PlannerScreen) setState(st editor.State) {
	s.state = st
	s.clamp()
}

func (s *PlannerScreen) clamp() {
	weeks := len(s.state.Model.Weeks)
	s.week = min(max(s.week, 0), max(weeks-1, 0))
	s.day = min(max(s.day, 0), plan.DaysPerWeek-1)
	n := len(s.rows(s.week, s.day))
	s.row = min(max(s.row, 0), max(n-1, 0))
}

func (s *PlannerScreen) rows(week, day int) []row {
	d := s.state.Model.Day(week, day)
	if d == nil {
		return nil
	}
	var out []row
	for _, sess := range d.Ordered() {
		out = append(out, row{session: sess, slot: -1})
		for i := range sess.Exercises {
			out = append(out, row{session: sess, slot: i})
		}
	}
	return out
}

func (s *PlannerScreen) current() (row, bool) {
	rows := s.rows(s.week, s.day)
	if s.row < len(rows) {
		return rows[s.row], true
	}
	return row{}, false
}

// locate moves the cursor to the exercise slot with the given id.
func (s *PlannerScreen) locate(slotID string) bool {
	for w := range s.state.Model.Weeks {
		for d := range plan.DaysPerWeek {
			for i, r := range s.rows(w, d) {
				if ex := r.exercise(); ex != nil && ex.ID == slotID {
					s.week, s.day, s.row = w, d, i
					return true
				}
			}
		}
	}
	return false
}

// shift returns the day delta days away, crossing week boundaries.
func (s *PlannerScreen) shift(delta int) (week, day int, ok bool) {
	abs := s.week*plan.DaysPerWeek + s.day + delta
	if abs < 0 || abs >= len(s.state.Model.Weeks)*plan.DaysPerWeek {
		return s.week, s.day, false
	}
	return abs / plan.DaysPerWeek, abs % plan.DaysPerWeek, true
}

func (s *PlannerScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case action.ChangedMsg:
		s.setState(msg.State)
		return s, nil

	case action.SyncMsg:
		s.state.Sync = msg.Sync
		return s, nil

	case action.ResultMsg:
		s.setState(s.ed.GetState())
		switch {
		case msg.Err != nil:
			s.status = msg.Err.Error()
		case msg.Follow != "":
			s.locate(msg.Follow)
			s.status = ""
		case msg.Outcome.Batch != nil:
			s.status = fmt.Sprintf("copiado a %d sesiones", len(msg.Outcome.Batch.Assignments))
		default:
			s.status = ""
		}
		return s, nil

	case tea.KeyPressMsg:
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *PlannerScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	k := s.keys
	switch {
	case key.Matches(msg, k.Up):
		s.row--
		s.clamp()
	case key.Matches(msg, k.Down):
		s.row++
		s.clamp()
	case key.Matches(msg, k.Left):
		s.week, s.day, _ = s.shift(-1)
		s.clamp()
	case key.Matches(msg, k.Right):
		s.week, s.day, _ = s.shift(1)
		s.clamp()
	case key.Matches(msg, k.PrevWeek):
		s.week--
		s.clamp()
	case key.Matches(msg, k.NextWeek):
		s.week++
		s.clamp()
	case key.Matches(msg, k.MoveUp):
		return s.reorder(-1)
	case key.Matches(msg, k.MoveDown):
		return s.reorder(1)
	case key.Matches(msg, k.MoveLeft):
		return s.moveAcross(-1)
	case key.Matches(msg, k.MoveRight):
		return s.moveAcross(1)
	case key.Matches(msg, k.Add):
		return s.addExercise()
	case key.Matches(msg, k.Remove):
		return s.remove()
	case key.Matches(msg, k.Edit):
		return s.edit()
	case key.Matches(msg, k.Heavier):
		return s.adjustWeight(weightStep)
	case key.Matches(msg, k.Lighter):
		return s.adjustWeight(-weightStep)
	case key.Matches(msg, k.ToggleDone):
		return s.toggleDone()
	case key.Matches(msg, k.CycleStatus):
		return s.setStatus(func(cur plan.Status) plan.Status { return nextStatus[cur] })
	case key.Matches(msg, k.Cancel):
		return s.setStatus(func(plan.Status) plan.Status { return plan.StatusCancelled })
	case key.Matches(msg, k.AddSession):
		return s.addSession()
	case key.Matches(msg, k.Propagate):
		return s.propagate()
	case key.Matches(msg, k.Undo):
		return action.Dispatch(s.ed, editor.Undo{})
	case key.Matches(msg, k.Redo):
		return action.Dispatch(s.ed, editor.Redo{})
	case key.Matches(msg, k.Fix):
		return s.applyFirstFix()
	case key.Matches(msg, k.Alerts):
		return push(alerts.New(s.ed))
	case key.Matches(msg, k.History):
		return push(history.New(s.ed, s.revisions))
	case key.Matches(msg, k.Retry):
		return action.Dispatch(s.ed, editor.RetrySync{})
	case key.Matches(msg, k.Dismiss):
		if n := len(s.state.Notices); n > 0 {
			return action.Dispatch(s.ed, editor.DismissNotice{NoticeID: s.state.Notices[n-1].ID})
		}
		s.status = ""
	}
	return nil
}

func push(sc screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: sc} }
}

func (s *PlannerScreen) currentExercise() (row, *plan.ExerciseSlot, bool) {
	r, ok := s.current()
	if !ok || r.slot < 0 {
		s.status = "selecciona un ejercicio"
		return row{}, nil, false
	}
	return r, r.exercise(), true
}

func (s *PlannerScreen) reorder(delta int) tea.Cmd {
	r, ex, ok := s.currentExercise()
	if !ok {
		return nil
	}
	to := r.slot + delta
	if to < 0 || to >= len(r.session.Exercises) {
		return nil
	}
	return action.DispatchFollow(s.ed, editor.MoveExercise{
		SlotID:        ex.ID,
		FromSessionID: r.session.ID,
		ToSessionID:   r.session.ID,
		ToIndex:       to,
	}, ex.ID)
}

func (s *PlannerScreen) moveAcross(delta int) tea.Cmd {
	r, ex, ok := s.currentExercise()
	if !ok {
		return nil
	}
	w, d, ok := s.shift(delta)
	if !ok {
		return nil
	}
	sessions := s.state.Model.Day(w, d).Ordered()
	if len(sessions) == 0 {
		s.status = fmt.Sprintf("no hay sesión el %s de la semana %d", dayNames[d], w+1)
		return nil
	}
	target := sessions[0]
	return action.DispatchFollow(s.ed, editor.MoveExercise{
		SlotID:        ex.ID,
		FromSessionID: r.session.ID,
		ToSessionID:   target.ID,
		ToIndex:       len(target.Exercises),
	}, ex.ID)
}

func (s *PlannerScreen) addExercise() tea.Cmd {
	r, ok := s.current()
	if !ok {
		s.status = "crea una sesión con n primero"
		return nil
	}
	at := -1
	if r.slot >= 0 {
		at = r.slot + 1
	}
	ed, sessionID := s.ed, r.session.ID
	return push(pickscreen.New(s.cat, func(ref string) tea.Cmd {
		return action.Dispatch(ed, editor.AddExercise{SessionID: sessionID, Ref: ref, AtIndex: at})
	}))
}

func (s *PlannerScreen) remove() tea.Cmd {
	r, ok := s.current()
	if !ok {
		return nil
	}
	if ex := r.exercise(); ex != nil {
		return action.Dispatch(s.ed, editor.RemoveExercise{SlotID: ex.ID})
	}
	return action.Dispatch(s.ed, editor.RemoveSession{SessionID: r.session.ID})
}

func (s *PlannerScreen) adjustWeight(delta float64) tea.Cmd {
	_, ex, ok := s.currentExercise()
	if !ok {
		return nil
	}
	w := max(ex.Weight+delta, 0)
	if w == ex.Weight {
		return nil
	}
	return action.Dispatch(s.ed, editor.EditSlot{SlotID: ex.ID, Patch: slotgrid.SlotPatch{Weight: &w}})
}

func (s *PlannerScreen) toggleDone() tea.Cmd {
	_, ex, ok := s.currentExercise()
	if !ok {
		return nil
	}
	done := !ex.Done
	return action.Dispatch(s.ed, editor.EditSlot{SlotID: ex.ID, Patch: slotgrid.SlotPatch{Done: &done}})
}

func (s *PlannerScreen) setStatus(next func(plan.Status) plan.Status) tea.Cmd {
	r, ok := s.current()
	if !ok {
		return nil
	}
	to := next(r.session.Estado)
	if to == r.session.Estado {
		return nil
	}
	return action.Dispatch(s.ed, editor.SetSessionStatus{SessionID: r.session.ID, Status: to})
}

func (s *PlannerScreen) applyFirstFix() tea.Cmd {
	for _, a := range s.state.Alerts {
		if a.Fixable() {
			return action.Dispatch(s.ed, editor.ApplyFix{AlertID: a.ID})
		}
	}
	s.status = "ninguna alerta tiene corrección automática"
	return nil
}

// propagate copies the exercise under the cursor to the same day and slot
// of every later week that has that session, as one undoable step.
func (s *PlannerScreen) propagate() tea.Cmd {
	r, ex, ok := s.currentExercise()
	if !ok {
		return nil
	}
	var targets []batch.Target
	for w := s.week + 1; w < len(s.state.Model.Weeks); w++ {
		loc := plan.Location{Week: w, Day: s.day, Slot: r.session.Slot}
		if s.state.Model.SessionAt(loc) != nil {
			targets = append(targets, batch.Target{Week: w, Day: s.day, Slot: r.session.Slot})
		}
	}
	if len(targets) == 0 {
		s.status = "ninguna semana posterior tiene esta sesión"
		return nil
	}
	series, reps, weight, rest := ex.Series, ex.Reps, ex.Weight, ex.Rest
	return action.Dispatch(s.ed, editor.BatchDistribute{
		Targets: targets,
		Exercises: []batch.Prescription{{
			Ref:       ex.ExerciseRef,
			SlotPatch: slotgrid.SlotPatch{Series: &series, Reps: &reps, Weight: &weight, Rest: &rest},
		}},
	})
}

func (s *PlannerScreen) edit() tea.Cmd {
	r, ok := s.current()
	if !ok {
		return nil
	}
	ed := s.ed
	if ex := r.exercise(); ex != nil {
		orig := *ex
		fields := []form.Field{
			{Label: "Series", Value: strconv.Itoa(ex.Series), Numeric: true},
			{Label: "Repeticiones", Value: strconv.Itoa(ex.Reps), Numeric: true},
			{Label: "Peso (kg)", Value: strconv.FormatFloat(ex.Weight, 'f', -1, 64), Numeric: true},
			{Label: "Descanso (s)", Value: strconv.Itoa(ex.Rest), Numeric: true},
			{Label: "Notas", Value: ex.Notes},
		}
		return push(form.New(s.exerciseName(ex.ExerciseRef), fields, func(v []string) (tea.Cmd, error) {
			patch, err := slotPatch(orig, v)
			if err != nil || patch.Empty() {
				return nil, err
			}
			return action.DispatchFollow(ed, editor.EditSlot{SlotID: orig.ID, Patch: patch}, orig.ID), nil
		}))
	}

	sess := *r.session
	fields := []form.Field{
		{Label: "Hora", Value: sess.Hora},
		{Label: "Duración (min)", Value: strconv.Itoa(sess.Duracion), Numeric: true},
		{Label: "Notas", Value: sess.Notes},
	}
	return push(form.New("Sesión "+sess.Slot, fields, func(v []string) (tea.Cmd, error) {
		patch, err := sessionPatch(sess, v)
		if err != nil || len(patch.Fields()) == 0 {
			return nil, err
		}
		return action.Dispatch(ed, editor.EditSession{SessionID: sess.ID, Patch: patch}), nil
	}))
}

func (s *PlannerScreen) addSession() tea.Cmd {
	d := s.state.Model.Day(s.week, s.day)
	if d == nil {
		return nil
	}
	t := slotTemplates[len(slotTemplates)-1]
	for _, cand := range slotTemplates {
		if _, taken := d.Sessions[cand.Slot]; !taken {
			t = cand
			break
		}
	}
	ed, week, day := s.ed, s.week, s.day
	fields := []form.Field{
		{Label: "Franja", Value: t.Slot},
		{Label: "Hora", Value: t.Hora},
		{Label: "Duración (min)", Value: strconv.Itoa(t.Duracion), Numeric: true},
	}
	title := fmt.Sprintf("Nueva sesión · %s semana %d", dayNames[day], week+1)
	return push(form.New(title, fields, func(v []string) (tea.Cmd, error) {
		if v[0] == "" {
			return nil, errors.New("la franja no puede estar vacía")
		}
		if _, err := plan.ParseHora(v[1]); err != nil {
			return nil, err
		}
		dur, err := strconv.Atoi(v[2])
		if err != nil || dur <= 0 {
			return nil, errors.New("la duración debe ser un número de minutos")
		}
		return action.Dispatch(ed, editor.AddSession{Week: week, Day: day, Slot: v[0], Hora: v[1], Duracion: dur}), nil
	}))
}

func (s *PlannerScreen) exerciseName(ref string) string {
	if s.cat != nil {
		if ex, ok := s.cat.Get(ref); ok {
			return ex.Name
		}
	}
	return ref
}

// slotPatch builds a patch of the fields in v that differ from orig.
func slotPatch(orig plan.ExerciseSlot, v []string) (slotgrid.SlotPatch, error) {
	var p slotgrid.SlotPatch
	ints := []struct {
		name string
		cur  int
		dst  **int
	}{
		{"series", orig.Series, &p.Series},
		{"repeticiones", orig.Reps, &p.Reps},
		{"descanso", orig.Rest, &p.Rest},
	}
	raw := []string{v[0], v[1], v[3]}
	for i, f := range ints {
		n, err := strconv.Atoi(raw[i])
		if err != nil {
			return p, fmt.Errorf("%s: %q no es un número entero", f.name, raw[i])
		}
		if n != f.cur {
			*f.dst = &n
		}
	}
	w, err := strconv.ParseFloat(strings.ReplaceAll(v[2], ",", "."), 64)
	if err != nil {
		return p, fmt.Errorf("peso: %q no es un número", v[2])
	}
	if w != orig.Weight {
		p.Weight = &w
	}
	if v[4] != orig.Notes {
		notes := v[4]
		p.Notes = &notes
	}
	return p, nil
}

// sessionPatch builds a patch of the fields in v that differ from orig.
func sessionPatch(orig plan.Session, v []string) (slotgrid.SessionPatch, error) {
	var p slotgrid.SessionPatch
	if v[0] != orig.Hora {
		if _, err := plan.ParseHora(v[0]); err != nil {
			return p, err
		}
		hora := v[0]
		p.Hora = &hora
	}
	dur, err := strconv.Atoi(v[1])
	if err != nil {
		return p, fmt.Errorf("duración: %q no es un número entero", v[1])
	}
	if dur != orig.Duracion {
		p.Duracion = &dur
	}
	if v[2] != orig.Notes {
		notes := v[2]
		p.Notes = &notes
	}
	return p, nil
}
