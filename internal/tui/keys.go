package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding of the lead table. It feeds both dispatch and
// the help footer.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Expand    key.Binding
	Select    key.Binding
	SelectAll key.Binding

	CycleStatus key.Binding
	EditNotes   key.Binding

	BatchNew       key.Binding
	BatchContacted key.Binding
	BatchReplied   key.Binding
	BatchRejected  key.Binding

	FilterStatus key.Binding
	FilterSource key.Binding
	HighScore    key.Binding
	Sort         key.Binding
	Reload       key.Binding
	Sync         key.Binding

	Analyze    key.Binding
	Draft      key.Binding
	Channel    key.Binding
	CopyDraft  key.Binding
	Prioritize key.Binding
	Export     key.Binding

	Help key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Expand:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Select:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		SelectAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),

		CycleStatus: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "next status")),
		EditNotes:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notes")),

		BatchNew:       key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "batch new")),
		BatchContacted: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "batch contacted")),
		BatchReplied:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "batch replied")),
		BatchRejected:  key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "batch rejected")),

		FilterStatus: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status filter")),
		FilterSource: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "source filter")),
		HighScore:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "high score")),
		Sort:         key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "sort")),
		Reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Sync:         key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sync")),

		Analyze:    key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "analyze")),
		Draft:      key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "draft")),
		Channel:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "channel")),
		CopyDraft:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy draft")),
		Prioritize: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prioritize")),
		Export:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export csv")),

		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Expand, k.Select, k.CycleStatus, k.FilterStatus, k.Sync, k.Analyze, k.Draft, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Expand, k.Select, k.SelectAll},
		{k.CycleStatus, k.EditNotes, k.BatchNew, k.BatchContacted, k.BatchReplied, k.BatchRejected},
		{k.FilterStatus, k.FilterSource, k.HighScore, k.Sort, k.Reload, k.Sync},
		{k.Analyze, k.Draft, k.Channel, k.CopyDraft, k.Prioritize, k.Export},
		{k.Help, k.Quit},
	}
}
