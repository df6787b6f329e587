// Package action runs editor intents off the Bubble Tea update loop and
// reports the result back as a message.
package action

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/weekplan/internal/editor"
	"github.com/abhisek/weekplan/internal/persist"
	"github.com/abhisek/weekplan/internal/router"
)

// dispatchTimeout bounds intents that reach the store, such as RetrySync.
const dispatchTimeout = 15 * time.Second

// ResultMsg reports the outcome of a dispatched intent.
type ResultMsg struct {
	Kind    string
	Outcome editor.Outcome
	Err     error
	// Follow is the id of the exercise slot the cursor should land on.
	Follow string
}

// Dispatch returns a command that applies in to ed. Editor listeners
// may call Program.Send, so intents never run inside Update.
func Dispatch(ed *editor.Editor, in editor.Intent) tea.Cmd {
	return DispatchFollow(ed, in, "")
}

// DispatchFollow is Dispatch with a slot id the cursor should follow.
func DispatchFollow(ed *editor.Editor, in editor.Intent, follow string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		out, err := ed.Dispatch(ctx, in)
		return ResultMsg{Kind: in.Kind(), Outcome: out, Err: err, Follow: follow}
	}
}

// Repeat dispatches in n times in one command, stopping at the first
// error. It backs multi-step undo and redo from the history view.
func Repeat(ed *editor.Editor, in editor.Intent, n int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		var (
			out editor.Outcome
			err error
		)
		for range n {
			if out, err = ed.Dispatch(ctx, in); err != nil {
				break
			}
		}
		return ResultMsg{Kind: in.Kind(), Outcome: out, Err: err}
	}
}

// PopThen pops the current screen and runs cmd once the screen below is
// active, so cmd's result reaches it.
func PopThen(cmd tea.Cmd) tea.Cmd {
	return tea.Sequence(func() tea.Msg { return router.PopScreenMsg{} }, cmd)
}

// ChangedMsg carries the editor state after a new plan version.
type ChangedMsg struct {
	State editor.State
}

// SyncMsg carries a change of the persistence status.
type SyncMsg struct {
	Sync persist.SyncState
}
