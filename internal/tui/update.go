package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/drivewise/internal/chat"
	"github.com/julianstephens/drivewise/internal/datasync"
	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/tui/forms"
)

// chrome is the height taken by tabs, status line and help.
const chrome = 8

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		m.transcript.SetSize(max(msg.Width-4, 10), max(msg.Height-chrome-2, 3))
		return m, nil

	case snapshotMsg:
		m.snap = datasync.Snapshot(msg)
		return m, waitForSnapshot(m.updates)

	case opDoneMsg:
		m.busy = false
		m.notice = msg.notice
		m.lastErr = ""
		if msg.err != nil {
			m.lastErr = apperrors.Message(msg.err)
		}
		if msg.mount {
			return m, mountPage(m.sync, m.page())
		}
		return m, nil

	case chatReplyMsg:
		m.awaiting = false
		if msg.err != nil {
			m.lastErr = apperrors.Message(msg.err)
		}
		m.transcript.SetMessages(m.chat.Messages(), false)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.state == StateForm {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.state == StateChat {
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch {
	case keyMsg.String() == "ctrl+c":
		return m.quit()
	case key.Matches(keyMsg, m.keys.Tab):
		return m.switchTab(1)
	case key.Matches(keyMsg, m.keys.ShiftTab):
		return m.switchTab(-1)
	case key.Matches(keyMsg, m.keys.Dismiss):
		m.dismiss()
		return m, nil
	}

	if m.state == StateChat {
		return m.updateChat(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m.quit()
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(keyMsg, m.keys.Refresh):
		if m.requireLogin() && !m.busy {
			m.busy = true
			return m, refreshPage(m.sync, m.page())
		}
	case key.Matches(keyMsg, m.keys.Sync):
		if m.requireLogin() && !m.busy {
			m.busy = true
			return m, syncAll(m.sync)
		}
	case key.Matches(keyMsg, m.keys.Login):
		if m.snap.IsAuthenticated {
			m.busy = true
			return m, logout(m.sync, m.chat)
		}
		return m.openForm(formLogin)
	case key.Matches(keyMsg, m.keys.Add):
		if kind := m.addAction(); kind != formNone && m.requireLogin() {
			return m.openForm(kind)
		}
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.unsubscribe()
	return m, tea.Quit
}

func (m Model) switchTab(step int) (tea.Model, tea.Cmd) {
	n := len(tabs)
	m.state = SessionState((int(m.state) + step + n) % n)
	m.notice = ""
	if m.state == StateChat {
		m.input.Focus()
		return m, nil
	}
	m.input.Blur()
	return m, mountPage(m.sync, m.page())
}

func (m *Model) dismiss() {
	m.lastErr = ""
	m.notice = ""
	if m.snap.Error != "" {
		m.sync.Layer().ClearError()
	}
}

// requireLogin reports whether the session is authenticated and sets a hint
// when it is not.
func (m *Model) requireLogin() bool {
	if m.snap.IsAuthenticated {
		return true
	}
	m.lastErr = "You are not logged in. Press l to log in."
	return false
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.awaiting {
			return m, nil
		}
		m.input.Reset()
		m.awaiting = true
		cmd := sendChat(m.chat, text)
		// the user message is appended by Send; show it straight away
		m.transcript.SetMessages(append(m.chat.Messages(), pendingMessage(text)), true)
		return m, cmd
	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func pendingMessage(text string) chat.Message {
	return chat.Message{Role: chat.RoleUser, Text: text, Time: time.Now()}
}

func (m Model) openForm(kind formKind) (tea.Model, tea.Cmd) {
	m.returnState = m.state
	m.state = StateForm
	m.formKind = kind
	switch kind {
	case formLogin:
		m.loginForm = &forms.LoginFormModel{}
		m.form = forms.NewLoginForm(m.loginForm)
	case formWellness:
		m.wellnessForm = &forms.WellnessFormModel{}
		m.form = forms.NewWellnessForm(m.wellnessForm)
	case formAdvice:
		if m.adviceForm == nil {
			m.adviceForm = &forms.AdviceFormModel{}
		}
		m.form = forms.NewAdviceForm(m.adviceForm)
	}
	if m.width > 0 {
		m.form = m.form.WithWidth(min(m.width-4, 80))
	}
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.closeForm(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		return m.closeForm(), nil
	case huh.StateCompleted:
		kind := m.formKind
		m = m.closeForm()
		m.busy = true
		switch kind {
		case formLogin:
			return m, login(m.sync, strings.TrimSpace(m.loginForm.Email), m.loginForm.Password)
		case formWellness:
			return m, submitWellness(m.sync, m.wellnessForm.Log())
		case formAdvice:
			income, expenses := m.adviceForm.Values()
			return m, requestAdvice(m.sync, income, expenses, m.adviceForm.Risk)
		}
		m.busy = false
	}
	return m, cmd
}

func (m Model) closeForm() Model {
	m.state = m.returnState
	m.form = nil
	m.formKind = formNone
	return m
}
