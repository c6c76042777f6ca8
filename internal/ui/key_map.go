package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	left     key.Binding
	right    key.Binding
	nextPage key.Binding
	prevPage key.Binding
	enter    key.Binding
	back     key.Binding
	toggle   key.Binding
	open     key.Binding
	search   key.Binding
	creator  key.Binding
	prevCrtr key.Binding
	add      key.Binding
	assign   key.Binding
	remove   key.Binding
	reset    key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		nextPage: key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
		prevPage: key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev page")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:   key.NewBinding(key.WithKeys(" ", "w"), key.WithHelp("space", "toggle watched")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		creator:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next creator")),
		prevCrtr: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev creator")),
		add:      key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "new category")),
		assign:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to category")),
		remove:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		reset:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset progress")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.left, k.right, k.nextPage, k.prevPage},
		{k.enter, k.back, k.toggle, k.open, k.search},
		{k.creator, k.add, k.assign, k.remove, k.reset, k.quit},
	}
}
