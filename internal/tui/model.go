// Package tui is the terminal dashboard: one tab per page, a chat tab, and
// huh forms for login, wellness check-ins and advice requests.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/drivewise/internal/chat"
	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/datasync"
	"github.com/julianstephens/drivewise/internal/tui/components/transcript"
	"github.com/julianstephens/drivewise/internal/tui/forms"
)

type SessionState int

const (
	StateDashboard SessionState = iota
	StateEarnings
	StateAnalytics
	StateWellness
	StateFinancial
	StateChat
	StateForm
)

type tab struct {
	title string
	page  constants.PageType // empty for tabs without synced data
}

var tabs = []tab{
	{"Dashboard", constants.PageDashboard},
	{"Earnings", constants.PageEarnings},
	{"Analytics", constants.PageAnalytics},
	{"Wellness", constants.PageWellness},
	{"Financial", constants.PageFinancial},
	{"Chat", ""},
}

type formKind int

const (
	formNone formKind = iota
	formLogin
	formWellness
	formAdvice
)

type Model struct {
	sync        *datasync.Context
	chat        *chat.Session
	snap        datasync.Snapshot
	updates     <-chan datasync.Snapshot
	unsubscribe func()

	state       SessionState
	returnState SessionState
	keys        KeyMap
	help        help.Model
	spinner     spinner.Model
	input       textinput.Model
	transcript  transcript.Model

	form         *huh.Form
	formKind     formKind
	loginForm    *forms.LoginFormModel
	wellnessForm *forms.WellnessFormModel
	adviceForm   *forms.AdviceFormModel

	busy     bool
	awaiting bool
	notice   string
	lastErr  string
	quitting bool
	width    int
	height   int
}

func NewModel(syncCtx *datasync.Context, session *chat.Session) Model {
	updates, unsubscribe := syncCtx.Subscribe()

	input := textinput.New()
	input.Placeholder = "Ask the assistant..."
	input.CharLimit = 500
	input.Prompt = "› "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	tr := transcript.New(0, 0)
	tr.SetMessages(session.Messages(), false)

	return Model{
		sync:        syncCtx,
		chat:        session,
		snap:        syncCtx.State(),
		updates:     updates,
		unsubscribe: unsubscribe,
		state:       StateDashboard,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		input:       input,
		transcript:  tr,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForSnapshot(m.updates),
		m.spinner.Tick,
		mountPage(m.sync, constants.PageDashboard),
	)
}

func (m Model) ShortHelp() []key.Binding {
	if m.state == StateChat {
		return []key.Binding{m.keys.Tab, m.keys.Send, m.keys.Dismiss}
	}
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help, m.keys.Refresh, m.keys.Login}
	if m.addAction() != formNone {
		keys = append(keys, m.keys.Add)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	actions := []key.Binding{m.keys.Refresh, m.keys.Sync, m.keys.Login, m.keys.Dismiss}
	switch m.state {
	case StateChat:
		actions = []key.Binding{m.keys.Send, m.keys.Dismiss}
	case StateWellness, StateFinancial:
		actions = append(actions, m.keys.Add)
	}
	return [][]key.Binding{global, actions}
}

// page returns the synced page behind the current tab, if any.
func (m Model) page() constants.PageType {
	if int(m.state) < len(tabs) {
		return tabs[m.state].page
	}
	return ""
}

// addAction is the form the add key opens on the current tab.
func (m Model) addAction() formKind {
	switch m.state {
	case StateWellness:
		return formWellness
	case StateFinancial:
		return formAdvice
	default:
		return formNone
	}
}

// errorText is the error shown in the status line: the layer's published
// error first, then the last local failure.
func (m Model) errorText() string {
	if m.snap.Error != "" {
		return m.snap.Error
	}
	return m.lastErr
}
