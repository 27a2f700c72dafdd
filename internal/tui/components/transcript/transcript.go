// Package transcript renders the assistant conversation in a scrollable
// viewport.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/drivewise/internal/chat"
)

var (
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(7)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

const emptyText = "Ask about earnings, rest, fuel costs or savings. Type a message and press enter."

type Model struct {
	viewport viewport.Model
	Messages []chat.Message
	Pending  bool
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

// SetMessages replaces the transcript and scrolls to the newest message.
func (m *Model) SetMessages(msgs []chat.Message, pending bool) {
	m.Messages = msgs
	m.Pending = pending
	m.Render()
}

func (m *Model) Render() {
	if len(m.Messages) == 0 {
		m.viewport.SetContent(offlineStyle.Render(emptyText))
		return
	}

	var b strings.Builder
	for _, msg := range m.Messages {
		b.WriteString(timeStyle.Render(msg.Time.Format("15:04")))
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(userStyle.Render("you"))
		default:
			b.WriteString(assistantStyle.Render("assistant"))
			if msg.Source == chat.SourceFallback {
				b.WriteString(offlineStyle.Render(" (offline)"))
			}
		}
		b.WriteString("\n")
		b.WriteString(wrap(msg.Text, m.width))
		b.WriteString("\n\n")
	}
	if m.Pending {
		b.WriteString(offlineStyle.Render("assistant is typing..."))
	}
	m.viewport.SetContent(strings.TrimRight(b.String(), "\n"))
	m.viewport.GotoBottom()
}

func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// Summary is a one-line description of the transcript.
func (m Model) Summary() string {
	return fmt.Sprintf("%d messages", len(m.Messages))
}
