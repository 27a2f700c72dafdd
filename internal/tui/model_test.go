package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/drivewise/internal/chat"
	"github.com/julianstephens/drivewise/internal/cli/clitest"
	"github.com/julianstephens/drivewise/internal/datasync"
	"github.com/julianstephens/drivewise/internal/models"
)

const (
	dailyPath    = "/service/trip/stats/daily"
	monthlyPath  = "/service/trip/stats/monthly"
	yearlyPath   = "/service/trip/stats/yearly"
	loginPath    = "/user/auth/email/login"
	wellnessPath = "/service/llm/wellness"
)

func newTestModel(t *testing.T, backend *clitest.Backend, token string) Model {
	t.Helper()
	layer := clitest.NewContext(t, backend, token).Layer()
	syncCtx := datasync.New(layer)
	t.Cleanup(syncCtx.Close)
	return NewModel(syncCtx, chat.NewSession(layer))
}

func newStatsBackend() *clitest.Backend {
	backend := clitest.NewBackend()
	backend.Handle(dailyPath, []models.TripStats{{Date: "2026-10-18", TotalTrips: 7, TotalEarnings: 350000}})
	backend.Handle(monthlyPath, []models.TripStats{{Month: "2026-10", TotalTrips: 96, TotalEarnings: 4250000}})
	backend.Handle(yearlyPath, []models.TripStats{{Year: "2026", TotalTrips: 980, TotalEarnings: 43000000}})
	return backend
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return nm, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabSwitchMountsPage(t *testing.T) {
	backend := newStatsBackend()
	m := newTestModel(t, backend, "tok")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.state != StateEarnings {
		t.Fatalf("state = %v, want StateEarnings", m.state)
	}
	if cmd == nil {
		t.Fatal("switching to a data tab should mount its page")
	}
	if msg, ok := cmd().(opDoneMsg); !ok || msg.err != nil {
		t.Fatalf("mount result = %+v", msg)
	}
	if backend.Hits(dailyPath) != 1 || backend.Hits(monthlyPath) != 1 {
		t.Errorf("hits daily=%d monthly=%d, want 1 each", backend.Hits(dailyPath), backend.Hits(monthlyPath))
	}

	// a second mount is served from cache
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	cmd()
	if got := backend.Hits(monthlyPath); got != 1 {
		t.Errorf("remount hit monthly stats %d times, want 1", got)
	}

	m = newTestModel(t, backend, "tok")
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.state != StateChat {
		t.Errorf("shift+tab from the first tab = %v, want StateChat", m.state)
	}
	if cmd != nil {
		t.Error("the chat tab has no page to mount")
	}
}

func TestMountWhileLoggedOut(t *testing.T) {
	backend := newStatsBackend()
	m := newTestModel(t, backend, "")

	msg := mountPage(m.sync, m.page())()
	if done, ok := msg.(opDoneMsg); !ok || done.err != nil {
		t.Errorf("logged-out mount = %+v, want a silent no-op", msg)
	}
	if backend.Hits(dailyPath) != 0 {
		t.Error("logged-out mount must not call the backend")
	}
	if !strings.Contains(m.View(), "Not logged in") {
		t.Error("dashboard should show the login hint")
	}
}

func TestActionsRequireLogin(t *testing.T) {
	m := newTestModel(t, newStatsBackend(), "")

	for _, k := range []string{"r", "s"} {
		var cmd tea.Cmd
		m, cmd = update(t, m, keyRunes(k))
		if cmd != nil {
			t.Errorf("%q while logged out returned a command", k)
		}
		if !strings.Contains(m.errorText(), "not logged in") {
			t.Errorf("%q: error = %q, want login hint", k, m.errorText())
		}
	}

	m.state = StateWellness
	m, _ = update(t, m, keyRunes("a"))
	if m.state == StateForm {
		t.Error("add while logged out should not open a form")
	}
}

func TestSnapshotRendersDashboard(t *testing.T) {
	m := newTestModel(t, newStatsBackend(), "tok")
	if msg := mountPage(m.sync, m.page())().(opDoneMsg); msg.err != nil {
		t.Fatalf("mount failed: %v", msg.err)
	}

	m, cmd := update(t, m, snapshotMsg(m.sync.State()))
	if cmd == nil {
		t.Error("a snapshot should re-arm the subscription")
	}
	view := m.View()
	for _, want := range []string{"Today", "Rp 350.000", "No check-in today."} {
		if !strings.Contains(view, want) {
			t.Errorf("dashboard view missing %q", want)
		}
	}
}

func TestOnboardingShownForEmptyAccount(t *testing.T) {
	m := newTestModel(t, newStatsBackend(), "tok")
	snap := m.sync.State()
	snap.DataCheckCompleted = true
	snap.HasEmptyData = true

	m, _ = update(t, m, snapshotMsg(snap))
	if !strings.Contains(m.View(), "Welcome to DriveWise") {
		t.Error("empty account should see the onboarding message")
	}
}

func TestChatAnswersOffline(t *testing.T) {
	m := newTestModel(t, newStatsBackend(), "")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m.input.SetValue("  ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("blank message should not be sent")
	}

	m.input.SetValue("berapa harga bensin?")
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.awaiting {
		t.Fatal("enter should send the message")
	}
	if m.input.Value() != "" {
		t.Error("input should be cleared after sending")
	}

	m, _ = update(t, m, cmd())
	if m.awaiting {
		t.Error("reply should clear the pending flag")
	}
	msgs := m.transcript.Messages
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(msgs))
	}
	if msgs[1].Role != chat.RoleAssistant || msgs[1].Source != chat.SourceFallback {
		t.Errorf("reply = %+v, want an offline assistant answer", msgs[1])
	}
}

func TestChatTabTypesLetters(t *testing.T) {
	m := newTestModel(t, newStatsBackend(), "")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})

	m, _ = update(t, m, keyRunes("q"))
	if m.quitting {
		t.Fatal("q in the chat tab should type, not quit")
	}
	if got := m.input.Value(); got != "q" {
		t.Errorf("input = %q, want %q", got, "q")
	}
}

func TestLoginFlow(t *testing.T) {
	backend := newStatsBackend()
	backend.Handle(loginPath, models.AuthData{Token: "tok-login"})
	m := newTestModel(t, backend, "")

	m, cmd := update(t, m, keyRunes("l"))
	if m.state != StateForm || m.formKind != formLogin {
		t.Fatalf("l should open the login form, state = %v", m.state)
	}
	if cmd == nil {
		t.Error("opening a form should initialize it")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != StateDashboard || m.form != nil {
		t.Errorf("esc should close the form, state = %v", m.state)
	}

	m.busy = true
	m, cmd = update(t, m, login(m.sync, "driver@example.com", "secret")())
	if m.busy || m.notice != "Logged in as driver@example.com" {
		t.Errorf("after login busy=%v notice=%q", m.busy, m.notice)
	}
	if cmd == nil {
		t.Error("a successful login should remount the current page")
	}
	if !m.sync.Layer().IsAuthenticated() {
		t.Error("layer should be authenticated")
	}

	m, _ = update(t, m, snapshotMsg(m.sync.State()))
	m, cmd = update(t, m, keyRunes("l"))
	if cmd == nil || m.state == StateForm {
		t.Fatal("l while logged in should log out")
	}
	m, _ = update(t, m, cmd())
	if m.sync.Layer().IsAuthenticated() {
		t.Error("layer should be logged out")
	}
}

func TestRejectedLoginAndDismiss(t *testing.T) {
	backend := newStatsBackend()
	backend.Reject(loginPath, "Invalid credentials")
	m := newTestModel(t, backend, "")

	m, _ = update(t, m, login(m.sync, "driver@example.com", "wrong")())
	m, _ = update(t, m, snapshotMsg(m.sync.State()))
	if m.errorText() != "Invalid credentials" {
		t.Errorf("error = %q, want backend message", m.errorText())
	}
	if !strings.Contains(m.View(), "Invalid credentials") {
		t.Error("status line should show the error")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.lastErr != "" {
		t.Errorf("lastErr = %q after dismiss", m.lastErr)
	}
	if got := m.sync.Layer().State().Error; got != "" {
		t.Errorf("layer error = %q after dismiss", got)
	}
}

func TestAddOpensTabForm(t *testing.T) {
	m := newTestModel(t, newStatsBackend(), "tok")
	tests := []struct {
		state SessionState
		want  formKind
	}{
		{StateWellness, formWellness},
		{StateFinancial, formAdvice},
		{StateDashboard, formNone},
	}

	for _, tt := range tests {
		m.state = tt.state
		next, _ := update(t, m, keyRunes("a"))
		if next.formKind != tt.want {
			t.Errorf("a on %v opened %v, want %v", tt.state, next.formKind, tt.want)
		}
		if tt.want != formNone && next.returnState != tt.state {
			t.Errorf("form should return to %v, got %v", tt.state, next.returnState)
		}
	}
}

func TestSubmitWellness(t *testing.T) {
	backend := newStatsBackend()
	backend.Handle(wellnessPath, models.WellnessAdvice{
		RestAdvice:            "Istirahat 15 menit setiap 2 jam",
		GeneralWellnessStatus: "Baik",
		WellnessScore:         78,
	})
	m := newTestModel(t, backend, "tok")

	entry := models.WellnessLog{EnergyLevel: 70, StressLevel: 30, SleepQuality: 80, PhysicalCondition: 75}
	m, _ = update(t, m, submitWellness(m.sync, entry)())
	if m.notice != "Check-in saved" || m.lastErr != "" {
		t.Errorf("notice=%q err=%q", m.notice, m.lastErr)
	}

	m, _ = update(t, m, snapshotMsg(m.sync.State()))
	m.state = StateWellness
	view := m.View()
	for _, want := range []string{"Recommendations (score 78, Baik)", "Istirahat 15 menit"} {
		if !strings.Contains(view, want) {
			t.Errorf("wellness view missing %q", want)
		}
	}
	if len(m.snap.WellnessData) != 1 {
		t.Errorf("wellness data has %d logs, want 1", len(m.snap.WellnessData))
	}

	bad := submitWellness(m.sync, models.WellnessLog{EnergyLevel: 101})().(opDoneMsg)
	if bad.err == nil {
		t.Error("out-of-range scores should fail")
	}
}

func TestQuitUnsubscribes(t *testing.T) {
	m := newTestModel(t, newStatsBackend(), "tok")
	updates := m.updates

	m, cmd := update(t, m, keyRunes("q"))
	if !m.quitting || cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command should return tea.QuitMsg")
	}
	for range updates {
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestBarChart(t *testing.T) {
	chart := barChart([]models.TripStats{
		{Month: "2026-09", TotalEarnings: 2000000},
		{Month: "2026-10", TotalEarnings: 4000000},
	})
	lines := strings.Split(chart, "\n")
	if len(lines) != 2 {
		t.Fatalf("chart has %d lines, want 2", len(lines))
	}
	full := strings.Count(lines[1], "█")
	half := strings.Count(lines[0], "█")
	if full != barWidth || half != barWidth/2 {
		t.Errorf("bars = %d and %d, want %d and %d", half, full, barWidth/2, barWidth)
	}
	if !strings.Contains(lines[1], "Rp 4.000.000") {
		t.Errorf("line = %q, want amount", lines[1])
	}
	if barChart(nil) == "" {
		t.Error("empty chart should render a placeholder")
	}
}

func TestTimeOf(t *testing.T) {
	if got := timeOf("2026-10-18T07:45:00+07:00"); got != "07:45" {
		t.Errorf("timeOf() = %q", got)
	}
	if got := timeOf("garbage"); got != "garbage" {
		t.Errorf("timeOf() = %q", got)
	}
}
