package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Filter   key.Binding
	Reload   key.Binding
	Help     key.Binding
	Quit     key.Binding

	Add        key.Binding
	Edit       key.Binding
	Status     key.Binding
	Priority   key.Binding
	Delete     key.Binding
	Select     key.Binding
	BulkDelete key.Binding

	Grab   key.Binding
	Drop   key.Binding
	Cancel key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		PrevPage: key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "prev page")),
		NextPage: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "next page")),
		Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:       key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Status:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status")),
		Priority:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority")),
		Delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Select:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		BulkDelete: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete selected")),

		Grab:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "reorder")),
		Drop:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Status, k.Delete, k.Select, k.Filter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage, k.Filter, k.Reload},
		{k.Add, k.Edit, k.Status, k.Priority, k.Delete, k.Select, k.BulkDelete},
		{k.Grab, k.Drop, k.Cancel, k.Help, k.Quit},
	}
}

// dragKeyMap is the help shown while a task is grabbed.
type dragKeyMap struct{ k keyMap }

func (d dragKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{d.k.Up, d.k.Down, d.k.Drop, d.k.Cancel}
}

func (d dragKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{d.ShortHelp()} }
