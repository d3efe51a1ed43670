// Package tui is the interactive chat front end. It renders one thread
// at a time, streams assistant tokens as they arrive, and exposes the
// thread lifecycle (new, switch, rename, delete) over keyboard commands.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/docuchat/cli/internal/session"
)

// Asker is the TUI-facing subset of the chat engine
type Asker interface {
	AskStream(ctx context.Context, key, question string, onToken func(string)) string
}

// Model is the Bubble Tea model for the chat application
type Model struct {
	engine   Asker
	store    *session.Store
	input    textinput.Model
	viewport viewport.Model
	status   string
	partial  string // assistant answer accumulated while streaming
	tokens   chan string
	ready    bool
	busy     bool
}

type tokenMsg string

type streamDoneMsg struct{}

// New creates a new TUI model. An initial thread is created so the user
// can type immediately.
func New(engine Asker, store *session.Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	store.SetActive(newThreadKey())

	return Model{
		engine:   engine,
		store:    store,
		input:    ti,
		viewport: vp,
		status:   "Ctrl+N new chat · Tab switch · Ctrl+X delete · /rename NAME",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and stream events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		vh := msg.Height - ih - 4 // header, thread line, status, spacer
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = maxInt(3, vh-fh)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case tokenMsg:
		m.partial += string(msg)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, waitForToken(m.tokens)

	case streamDoneMsg:
		m.partial = ""
		m.busy = false
		m.status = "Ready."
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "ctrl+n":
			m.store.SetActive(newThreadKey())
			m.viewport.SetContent(m.renderTranscript())
			return m, nil
		case "tab":
			m.cycleThread()
			m.viewport.SetContent(m.renderTranscript())
			return m, nil
		case "ctrl+x":
			if key, ok := m.store.Active(); ok && !m.busy {
				m.store.Delete(key)
				if _, ok := m.store.Active(); !ok {
					m.store.SetActive(newThreadKey())
				}
				m.viewport.SetContent(m.renderTranscript())
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the typed question into the active thread
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.busy {
		return m, nil
	}
	m.input.SetValue("")

	key, ok := m.store.Active()
	if !ok {
		key = newThreadKey()
		m.store.SetActive(key)
	}

	if name, isRename := strings.CutPrefix(text, "/rename "); isRename {
		m.store.Rename(key, strings.TrimSpace(name))
		m.status = "Thread renamed."
		return m, nil
	}

	m.busy = true
	m.status = "Fetching information..."
	m.tokens = make(chan string, 64)

	engine, tokens := m.engine, m.tokens
	go func() {
		engine.AskStream(context.Background(), key, text, func(tok string) {
			tokens <- tok
		})
		close(tokens)
	}()

	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
	return m, waitForToken(m.tokens)
}

// waitForToken blocks for the next streamed token
func waitForToken(tokens chan string) tea.Cmd {
	return func() tea.Msg {
		tok, ok := <-tokens
		if !ok {
			return streamDoneMsg{}
		}
		return tokenMsg(tok)
	}
}

// cycleThread activates the next thread in insertion order
func (m *Model) cycleThread() {
	keys := m.store.Keys()
	if len(keys) < 2 {
		return
	}
	active, _ := m.store.Active()
	for i, k := range keys {
		if k == active {
			m.store.SetActive(keys[(i+1)%len(keys)])
			return
		}
	}
}

// View renders the chat layout
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("docuchat")
	threads := threadLineStyle.Render(m.renderThreadLine())
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + threads + "\n" + transcript + "\n" + input + "\n" + status
}

// renderThreadLine shows every thread name, the active one highlighted
func (m Model) renderThreadLine() string {
	active, _ := m.store.Active()
	keys := m.store.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		sess, ok := m.store.Get(k)
		if !ok {
			continue
		}
		name := sess.Name
		if k == active {
			name = activeThreadStyle.Render("[" + name + "]")
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, "  ")
}

// renderTranscript renders the active thread's messages plus any answer
// still streaming in.
func (m Model) renderTranscript() string {
	key, ok := m.store.Active()
	if !ok {
		return "No active chat."
	}
	sess, ok := m.store.Get(key)
	if !ok {
		return "No active chat."
	}

	var lines []string
	for _, msg := range sess.Messages {
		lines = append(lines, renderMessage(msg))
	}
	if m.busy {
		content := m.partial
		if content == "" {
			content = "Thinking..."
		}
		lines = append(lines, assistantStyle.Render("AI: ")+content)
	}
	if len(lines) == 0 {
		return "Start the conversation below."
	}
	return strings.Join(lines, "\n\n")
}

func renderMessage(msg session.Message) string {
	if msg.Role == session.RoleUser {
		return userStyle.Render("You: ") + msg.Content
	}
	return assistantStyle.Render("AI: ") + msg.Content
}

func newThreadKey() string { return uuid.NewString() }

var (
	headerStyle       = lipgloss.NewStyle().Bold(true)
	threadLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeThreadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	transcriptStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	assistantStyle    = lipgloss.NewStyle().Bold(true)
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Run starts the TUI event loop
func Run(engine Asker, store *session.Store) error {
	p := tea.NewProgram(New(engine, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
