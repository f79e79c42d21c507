// Package ui provides the interactive terminal menu for selecting a
// tunnel configuration. The menu only picks an entry; the session itself
// runs on the plain terminal so credential prompts and client log output
// are not mixed into the TUI.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nkurtalj/openvpn-manager/vpn"
)

// Selection is the result of one menu interaction.
type Selection struct {
	Entry   vpn.ConfigEntry
	Verbose bool
}

// keyMap defines the menu key bindings.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Verbose key.Binding
	Quit    key.Binding
}

// ShortHelp satisfies help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Verbose, k.Quit}
}

// FullHelp satisfies help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "connect"),
	),
	Verbose: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "toggle verbose"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	normalStyle   = lipgloss.NewStyle()
	annotateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true)
	verboseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

// Model is the bubbletea model for the configuration menu.
type Model struct {
	entries  []vpn.ConfigEntry
	creds    *vpn.CredentialStore
	keys     keyMap
	help     help.Model
	cursor   int
	verbose  bool
	selected *Selection
	quitting bool
}

// NewModel creates a menu over the discovered entries. creds may be nil;
// it is only used to annotate entries with stored-credential state.
func NewModel(entries []vpn.ConfigEntry, creds *vpn.CredentialStore, verbose bool) Model {
	return Model{
		entries: entries,
		creds:   creds,
		keys:    defaultKeys,
		help:    help.New(),
		verbose: verbose,
	}
}

// Init satisfies tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update satisfies tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Verbose):
			m.verbose = !m.verbose
		case key.Matches(msg, m.keys.Select):
			if len(m.entries) > 0 {
				m.selected = &Selection{
					Entry:   m.entries[m.cursor],
					Verbose: m.verbose,
				}
				return m, tea.Quit
			}
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View satisfies tea.Model.
func (m Model) View() string {
	if m.quitting || m.selected != nil {
		return ""
	}

	s := titleStyle.Render("Available OpenVPN configurations") + "\n\n"

	for i, entry := range m.entries {
		line := fmt.Sprintf("%s/%s", entry.Dir, entry.Name)
		if entry.RequiresAuth {
			if m.creds != nil && m.creds.Exists(entry.Name) {
				line += annotateStyle.Render("  (credentials saved)")
			} else {
				line += annotateStyle.Render("  (credentials required)")
			}
		}
		if i == m.cursor {
			s += cursorStyle.Render("> ") + line + "\n"
		} else {
			s += normalStyle.Render("  ") + line + "\n"
		}
	}

	mode := "normal"
	if m.verbose {
		mode = "verbose"
	}
	s += "\n" + verboseStyle.Render("mode: "+mode) + "\n"
	s += m.help.View(m.keys)
	return s
}

// Selection returns the picked entry, or nil when the menu was quit.
func (m Model) Selection() *Selection {
	return m.selected
}

// Run displays the menu and blocks until the user picks an entry or
// quits. A nil selection with nil error means the user quit.
func Run(entries []vpn.ConfigEntry, creds *vpn.CredentialStore, verbose bool) (*Selection, error) {
	p := tea.NewProgram(NewModel(entries, creds, verbose))
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	return m.Selection(), nil
}
