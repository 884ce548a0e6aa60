package feed

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	meshfeed "github.com/pi-messenger/messenger/internal/feed"
	"github.com/pi-messenger/messenger/internal/style"
)

// KeyMap is the set of key bindings the feed viewer responds to.
type KeyMap struct {
	Quit key.Binding
	Up   key.Binding
	Down key.Binding
}

// DefaultKeyMap returns the viewer's standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	}
}

// Model is the bubbletea model for a live feed tail.
type Model struct {
	mu     sync.RWMutex
	vp     viewport.Model
	keys   KeyMap
	events []meshfeed.Event
	tailer *tailer
	cancel context.CancelFunc

	// program lets the tailer's own goroutine push eventsMsg back into
	// the bubbletea event loop; set by Run before the program starts.
	program *tea.Program
}

// NewModel builds a Model tailing baseDir's feed log.
func NewModel(baseDir string) *Model {
	m := &Model{
		vp:   viewport.New(0, 0),
		keys: DefaultKeyMap(),
	}
	m.tailer = newTailer(baseDir, m.onEvents)
	return m
}

// Run wires m into a tea.Program and blocks until the viewer quits.
func Run(baseDir string) error {
	m := NewModel(baseDir)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.program = p
	_, err := p.Run()
	return err
}

type eventsMsg []meshfeed.Event

func (m *Model) onEvents(events []meshfeed.Event) {
	if m.program != nil {
		m.program.Send(eventsMsg(events))
	}
}

// Init starts the tailer and sets the terminal window title.
func (m *Model) Init() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.tailer.start(ctx)
	return tea.SetWindowTitle("pi-messenger feed")
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.vp.Width = msg.Width
		m.vp.Height = msg.Height - 1
		m.vp.SetContent(m.render())
		m.vp.GotoBottom()
		m.mu.Unlock()
		return m, nil

	case eventsMsg:
		m.mu.Lock()
		m.events = msg
		m.vp.SetContent(m.render())
		m.vp.GotoBottom()
		m.mu.Unlock()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			if m.cancel != nil {
				m.tailer.stop()
				m.cancel()
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vp.View() + "\n" + style.Dim.Render("q to quit")
}

func (m *Model) render() string {
	var sb strings.Builder
	for _, ev := range m.events {
		sb.WriteString(ev.Timestamp.Format("15:04:05"))
		sb.WriteString("  ")
		sb.WriteString(ev.Summary())
		sb.WriteString("\n")
	}
	return sb.String()
}
