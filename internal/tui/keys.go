package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	AddUpdate key.Binding
	Rename    key.Binding
	Delete    key.Binding
	Save      key.Binding
	ClearAll  key.Binding
	Filter    key.Binding
	Refresh   key.Binding
	Select    key.Binding
	Focus     key.Binding
	Back      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		AddUpdate: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add/update")),
		Rename:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename key")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete tag")),
		Save:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save copy")),
		ClearAll:  key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "remove all")),
		Filter:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Refresh:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit row")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.AddUpdate, k.Rename, k.Delete, k.Save, k.ClearAll, k.Filter, k.Focus, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Select, k.AddUpdate, k.Rename, k.Delete},
		{k.Save, k.ClearAll, k.Refresh},
		{k.Filter, k.Focus, k.Back, k.Quit},
	}
}
