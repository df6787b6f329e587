package planner

import "charm.land/bubbles/v2/key"

type keyMap struct {
	Up, Down, Left, Right key.Binding
	PrevWeek, NextWeek    key.Binding
	MoveUp, MoveDown      key.Binding
	MoveLeft, MoveRight   key.Binding
	Add, Remove, Edit     key.Binding
	Heavier, Lighter      key.Binding
	ToggleDone            key.Binding
	CycleStatus, Cancel   key.Binding
	AddSession            key.Binding
	Propagate             key.Binding
	Undo, Redo            key.Binding
	Fix, Alerts, History  key.Binding
	Retry, Dismiss        key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous day")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next day")),
	PrevWeek:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous week")),
	NextWeek:    key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next week")),
	MoveUp:      key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
	MoveDown:    key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
	MoveLeft:    key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "move to previous day")),
	MoveRight:   key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "move to next day")),
	Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add exercise")),
	Remove:      key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
	Edit:        key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
	Heavier:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "+2.5kg")),
	Lighter:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "-2.5kg")),
	ToggleDone:  key.NewBinding(key.WithKeys("space"), key.WithHelp("space", "done")),
	CycleStatus: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
	Cancel:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel session")),
	AddSession:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new session")),
	Propagate:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "copy to later weeks")),
	Undo:        key.NewBinding(key.WithKeys("u", "ctrl+z"), key.WithHelp("u", "undo")),
	Redo:        key.NewBinding(key.WithKeys("ctrl+r", "ctrl+y"), key.WithHelp("ctrl+r", "redo")),
	Fix:         key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "apply fix")),
	Alerts:      key.NewBinding(key.WithKeys("!"), key.WithHelp("!", "alerts")),
	History:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "history")),
	Retry:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry save")),
	Dismiss:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss notice")),
}
