package monitor

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Connect  key.Binding
	NextPort key.Binding
	Refresh  key.Binding
	Baud     key.Binding
	ResetMax key.Binding
	Clear    key.Binding
	Export   key.Binding
	Pause    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Connect, k.ResetMax, k.Clear, k.Export, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Connect, k.NextPort, k.Refresh, k.Baud},
		{k.ResetMax, k.Clear, k.Export, k.Pause},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Connect: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "connect/disconnect"),
	),
	NextPort: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next port"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh ports"),
	),
	Baud: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "baud"),
	),
	ResetMax: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "reset max"),
	),
	Clear: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("p", "pause"),
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

var (
	applyKey  = key.NewBinding(key.WithKeys("enter"))
	cancelKey = key.NewBinding(key.WithKeys("esc"))
)
