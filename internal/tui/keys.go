package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the browser key bindings.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	TogglePage key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	Bulk       key.Binding
	ClearBulk  key.Binding
	Apply      key.Binding
	Cancel     key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the standard bindings.
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
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space", "x"),
			key.WithHelp("space", "toggle row"),
		),
		TogglePage: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "p", "h"),
			key.WithHelp("←/p", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "n", "l"),
			key.WithHelp("→/n", "next page"),
		),
		Bulk: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "select first N"),
		),
		ClearBulk: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear bulk"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.TogglePage, k.PrevPage, k.NextPage, k.Bulk, k.ClearBulk, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.TogglePage},
		{k.PrevPage, k.NextPage},
		{k.Bulk, k.ClearBulk, k.Quit},
	}
}

// bulkHelp is shown while the bulk input is open.
type bulkHelp struct{ KeyMap }

func (b bulkHelp) ShortHelp() []key.Binding { return []key.Binding{b.Apply, b.Cancel} }

func (b bulkHelp) FullHelp() [][]key.Binding { return [][]key.Binding{b.ShortHelp()} }
