package editor

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/weekplan/internal/batch"
	"github.com/abhisek/weekplan/internal/plan"
	"github.com/abhisek/weekplan/internal/slotgrid"
)

// Intent is a user action sent to Dispatch.
type Intent interface {
	Kind() string
}

// MoveExercise moves one exercise slot, typically the drop of a drag.
type MoveExercise struct {
	SlotID        string `json:"slotId"`
	FromSessionID string `json:"fromSessionId"`
	ToSessionID   string `json:"toSessionId"`
	ToIndex       int    `json:"toIndex"`
}

// MoveGesture applies several moves from one gesture as a single step.
type MoveGesture struct {
	Moves       []MoveExercise `json:"moves"`
	Description string         `json:"description,omitempty"`
}

// AddExercise inserts a catalog exercise. A negative AtIndex appends.
type AddExercise struct {
	SessionID string `json:"sessionId"`
	Ref       string `json:"ref"`
	AtIndex   int    `json:"atIndex"`
}

// UnmarshalJSON appends when atIndex is absent.
func (a *AddExercise) UnmarshalJSON(data []byte) error {
	type plain AddExercise
	v := plain{AtIndex: -1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = AddExercise(v)
	return nil
}

// RemoveExercise deletes an exercise slot.
type RemoveExercise struct {
	SlotID string `json:"slotId"`
}

// EditSlot patches an exercise slot.
type EditSlot struct {
	SlotID string             `json:"slotId"`
	Patch  slotgrid.SlotPatch `json:"patch"`
}

// BatchDistribute spreads exercises round-robin over target sessions.
type BatchDistribute struct {
	Targets   []batch.Target       `json:"targets"`
	Exercises []batch.Prescription `json:"exercises"`
	OnlyEmpty bool                 `json:"onlyEmpty,omitempty"`
}

// Undo reverts the last applied step.
type Undo struct{}

// Redo reapplies the last undone step.
type Redo struct{}

// SetSessionStatus moves a session through its lifecycle.
type SetSessionStatus struct {
	SessionID string      `json:"sessionId"`
	Status    plan.Status `json:"status"`
}

// EditSession patches a session's start time, duration or notes.
type EditSession struct {
	SessionID string                `json:"sessionId"`
	Patch     slotgrid.SessionPatch `json:"patch"`
}

// AddSession creates an empty session in a free day slot.
type AddSession struct {
	Week     int    `json:"week"`
	Day      int    `json:"day"`
	Slot     string `json:"slot"`
	Hora     string `json:"hora"`
	Duracion int    `json:"duracion"`
}

// RemoveSession deletes a session with its exercises.
type RemoveSession struct {
	SessionID string `json:"sessionId"`
}

// ApplyFix executes the fix attached to a current alert.
type ApplyFix struct {
	AlertID string `json:"alertId"`
}

// RetrySync saves the newest version immediately.
type RetrySync struct{}

// DismissNotice removes a notice.
type DismissNotice struct {
	NoticeID string `json:"noticeId"`
}

func (MoveExercise) Kind() string     { return "move-exercise" }
func (MoveGesture) Kind() string      { return "move-gesture" }
func (AddExercise) Kind() string      { return "add-exercise" }
func (RemoveExercise) Kind() string   { return "remove-exercise" }
func (EditSlot) Kind() string         { return "edit-slot" }
func (BatchDistribute) Kind() string  { return "batch-distribute" }
func (Undo) Kind() string             { return "undo" }
func (Redo) Kind() string             { return "redo" }
func (SetSessionStatus) Kind() string { return "set-session-status" }
func (EditSession) Kind() string      { return "edit-session" }
func (AddSession) Kind() string       { return "add-session" }
func (RemoveSession) Kind() string    { return "remove-session" }
func (ApplyFix) Kind() string         { return "apply-fix" }
func (RetrySync) Kind() string        { return "retry-sync" }
func (DismissNotice) Kind() string    { return "dismiss-notice" }

var decoders = map[string]func(json.RawMessage) (Intent, error){
	MoveExercise{}.Kind():     decodeAs[MoveExercise],
	MoveGesture{}.Kind():      decodeAs[MoveGesture],
	AddExercise{}.Kind():      decodeAs[AddExercise],
	RemoveExercise{}.Kind():   decodeAs[RemoveExercise],
	EditSlot{}.Kind():         decodeAs[EditSlot],
	BatchDistribute{}.Kind():  decodeAs[BatchDistribute],
	Undo{}.Kind():             decodeAs[Undo],
	Redo{}.Kind():             decodeAs[Redo],
	SetSessionStatus{}.Kind(): decodeAs[SetSessionStatus],
	EditSession{}.Kind():      decodeAs[EditSession],
	AddSession{}.Kind():       decodeAs[AddSession],
	RemoveSession{}.Kind():    decodeAs[RemoveSession],
	ApplyFix{}.Kind():         decodeAs[ApplyFix],
	RetrySync{}.Kind():        decodeAs[RetrySync],
	DismissNotice{}.Kind():    decodeAs[DismissNotice],
}

func decodeAs[T Intent](raw json.RawMessage) (Intent, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeIntent builds an intent from its kind and JSON payload.
func DecodeIntent(kind string, payload json.RawMessage) (Intent, error) {
	dec, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("unknown intent %q", kind)
	}
	in, err := dec(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return in, nil
}
