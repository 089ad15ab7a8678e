package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	Enter        key.Binding
	Space        key.Binding
	Tab          key.Binding
	Backlog      key.Binding
	Todo         key.Binding
	Doing        key.Binding
	Done         key.Binding
	LanePrev     key.Binding
	LaneNext     key.Binding
	Dequeue      key.Binding
	ExternalEdit key.Binding
	Reload       key.Binding
	Sync         key.Binding
	Login        key.Binding
	Help         key.Binding
	Search       key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous lane"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next lane"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "expand/collapse"),
		),
		Space: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "queue/unqueue goal"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "board/plans"),
		),
		Backlog: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "back to goal"),
		),
		Todo: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "todo"),
		),
		Doing: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "doing"),
		),
		Done: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "done"),
		),
		LanePrev: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "move task left"),
		),
		LaneNext: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "move task right"),
		),
		Dequeue: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "remove goal from board"),
		),
		ExternalEdit: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "edit plan in $EDITOR"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload"),
		),
		Sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "push unsynced"),
		),
		Login: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "log in"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the footer help text.
func (k KeyMap) ShortHelp() string {
	return "←→ lane  ↑↓ nav  enter expand  2/3/4 todo/doing/done  1 back  x unqueue  tab plans  s sync  ? help"
}

// PlansHelp returns the footer help text of the plans view.
func (k KeyMap) PlansHelp() string {
	return "↑↓ nav  enter expand  space queue  E $EDITOR  / search  tab board  ? help"
}

// FullHelp returns all key bindings for the help modal.
func (k KeyMap) FullHelp() [][]string {
	return [][]string{
		{"←/h →/l", "Focus previous / next lane"},
		{"↑/k ↓/j", "Move up / down"},
		{"enter", "Expand or collapse a goal card"},
		{"2", "Move task to todo"},
		{"3", "Move task to doing (schedules an event)"},
		{"4", "Move task to done"},
		{"1", "Drop task back on its goal"},
		{"H / L", "Move task one lane left / right"},
		{"x", "Remove goal from the board"},
		{"tab", "Switch board / plans"},
		{"space", "Plans: queue or unqueue goal"},
		{"E", "Plans: edit plan in $EDITOR"},
		{"/", "Plans: search goals"},
		{"R", "Reload plans from the backend"},
		{"s", "Push unsynced plans"},
		{"ctrl+l", "Log in"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
}
