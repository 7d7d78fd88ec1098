package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up           key.Binding
	Down         key.Binding
	Toggle       key.Binding
	ToggleAll    key.Binding
	Analyze      key.Binding
	Convert      key.Binding
	ConvertOne   key.Binding
	EditColumns  key.Binding
	EditStartRow key.Binding
	Download     key.Binding
	DownloadAll  key.Binding
	Open         key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var keys = keyMap{
	Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select sheet")),
	ToggleAll:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
	Analyze:      key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "analyze selected")),
	Convert:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "convert selected")),
	ConvertOne:   key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "convert this sheet")),
	EditColumns:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit columns")),
	EditStartRow: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "edit start row")),
	Download:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download sheet")),
	DownloadAll:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "download all")),
	Open:         key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open file")),
	Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Analyze, k.Convert, k.EditColumns, k.Download, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.ToggleAll},
		{k.Analyze, k.Convert, k.ConvertOne},
		{k.EditColumns, k.EditStartRow},
		{k.Download, k.DownloadAll, k.Open, k.Quit},
	}
}

// editKeys apply while a field is being edited
type editKeys struct {
	Done key.Binding
}

var fieldKeys = editKeys{
	Done: key.NewBinding(key.WithKeys("esc", "ctrl+s"), key.WithHelp("esc", "done")),
}

func (k editKeys) ShortHelp() []key.Binding { return []key.Binding{k.Done} }

func (k editKeys) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Done}} }
