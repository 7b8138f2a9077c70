package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/PabloGalante/idefend/internal/app/conversation"
	"github.com/PabloGalante/idefend/internal/domain"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	inputHeight   = 3
)

// Model is the bubbletea model for one chat session.
type Model struct {
	session     *conversation.Session
	updates     <-chan domain.Snapshot
	unsubscribe func()

	welcome  string
	snapshot domain.Snapshot

	// set from Enter until SubmitDoneMsg; the pending snapshot may lag behind
	submitting bool

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int
}

// New builds a chat model bound to session. The model subscribes to the
// session immediately; quitting unsubscribes.
func New(session *conversation.Session) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your rights... (Enter to send, Esc to quit)"
	ta.Prompt = "│ "
	ta.CharLimit = 4096
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight)
	ta.SetWidth(defaultWidth)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	updates, unsubscribe := session.Subscribe()

	m := Model{
		session:     session,
		updates:     updates,
		unsubscribe: unsubscribe,
		welcome:     session.Welcome(),
		snapshot:    session.Snapshot(),
		viewport:    viewport.New(defaultWidth, defaultHeight-inputHeight-2),
		input:       ta,
		spinner:     sp,
		renderer:    newRenderer(defaultWidth),
		width:       defaultWidth,
		height:      defaultHeight,
	}
	m.refresh()
	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return nil
	}
	return r
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, waitForSnapshot(m.updates))
}

// waitForSnapshot blocks on the subscription and turns the next snapshot
// into a message.
func waitForSnapshot(updates <-chan domain.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return subscriptionClosedMsg{}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

func submitCmd(session *conversation.Session, text string) tea.Cmd {
	return func() tea.Msg {
		snap, accepted := session.Submit(context.Background(), text)
		return SubmitDoneMsg{Text: text, Snapshot: snap, Accepted: accepted}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-inputHeight-2, 1)
		m.input.SetWidth(msg.Width)
		m.renderer = newRenderer(msg.Width)
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.unsubscribe()
			return m, tea.Quit
		case tea.KeyEnter:
			text := m.input.Value()
			// a blank line or a pending reply leaves the input untouched
			if strings.TrimSpace(text) == "" || m.snapshot.Pending || m.submitting {
				return m, nil
			}
			m.submitting = true
			m.input.Reset()
			return m, submitCmd(m.session, text)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case SnapshotMsg:
		m.apply(msg.Snapshot)
		return m, waitForSnapshot(m.updates)

	case SubmitDoneMsg:
		m.submitting = false
		if !msg.Accepted && m.input.Value() == "" {
			m.input.SetValue(msg.Text)
		}
		m.apply(msg.Snapshot)
		return m, nil

	case subscriptionClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.snapshot.Pending {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// apply keeps the newest snapshot; subscription and Submit results can
// arrive in either order.
func (m *Model) apply(snap domain.Snapshot) {
	if !isNewer(snap, m.snapshot) {
		return
	}
	m.snapshot = snap
	m.refresh()
}

func isNewer(next, cur domain.Snapshot) bool {
	switch {
	case len(next.Transcript) != len(cur.Transcript):
		return len(next.Transcript) > len(cur.Transcript)
	default:
		return cur.Pending && !next.Pending
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	var b strings.Builder

	b.WriteString(AssistantLabelStyle.Render("Assistant"))
	b.WriteString("\n")
	b.WriteString(m.renderMarkdown(m.welcome))

	for _, msg := range m.snapshot.Transcript {
		b.WriteString("\n")
		switch {
		case msg.Role == domain.RoleUser:
			b.WriteString(UserLabelStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(max(m.width-2, 20)).Render(msg.Content))
			b.WriteString("\n")
		case msg.Failure != domain.FailureNone:
			b.WriteString(AssistantLabelStyle.Render("Assistant"))
			b.WriteString("\n")
			b.WriteString(FailureStyle.Render(msg.Content))
			b.WriteString("\n")
		default:
			b.WriteString(AssistantLabelStyle.Render("Assistant"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.Content))
		}
	}

	if m.snapshot.Pending {
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " Thinking...")
	}
	return b.String()
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

func (m Model) View() string {
	header := HeaderStyle.Render("IDefend · " + m.snapshot.Title)
	footer := FooterStyle.Render("enter send · pgup/pgdn scroll · esc quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.input.View(),
		footer,
	)
}

// Run starts the chat program on the terminal.
func Run(session *conversation.Session) error {
	p := tea.NewProgram(New(session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
