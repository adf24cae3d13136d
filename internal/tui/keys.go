package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Focus  key.Binding
	Fetch  key.Binding
	Select key.Binding
	Open   key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Left:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h", "prev blog")),
		Right:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l", "next blog")),
		Focus:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch")),
		Fetch:  key.NewBinding(key.WithKeys("r", "f"), key.WithHelp("r", "fetch")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Open:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "browser")),
		Cancel: key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "cancel")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c")),
	}
}
