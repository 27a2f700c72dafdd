package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/drivewise/internal/cli/stats"
	"github.com/julianstephens/drivewise/internal/cli/wellness"
	"github.com/julianstephens/drivewise/internal/models"
	"github.com/julianstephens/drivewise/internal/utils"
)

const barWidth = 30

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateDashboard:
		content = m.viewDashboard()
	case StateEarnings:
		content = m.viewEarnings()
	case StateAnalytics:
		content = m.viewAnalytics()
	case StateWellness:
		content = m.viewWellness()
	case StateFinancial:
		content = m.viewFinancial()
	case StateChat:
		content = m.viewChat()
	case StateForm:
		content = m.form.View()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		docStyle.Render(content),
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	active := m.state
	if active == StateForm {
		active = m.returnState
	}
	var out []string
	for i, t := range tabs {
		if active == SessionState(i) {
			out = append(out, activeTabStyle.Render(t.title))
		} else {
			out = append(out, inactiveTabStyle.Render(t.title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m Model) viewStatus() string {
	var parts []string
	if m.busy || m.snap.IsLoading || m.snap.IsSyncing || m.awaiting {
		parts = append(parts, m.spinner.View()+" working")
	}
	if m.snap.LastSyncTime != nil {
		parts = append(parts, mutedStyle.Render("synced "+m.snap.LastSyncTime.Format("15:04")))
	}
	if m.notice != "" {
		parts = append(parts, noticeStyle.Render("✓ "+m.notice))
	}
	if msg := m.errorText(); msg != "" {
		parts = append(parts, dangerStyle.Render("❌ "+msg))
	}
	return " " + strings.Join(parts, "  ")
}

func (m Model) loginHint() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Not logged in"),
		"",
		"Press l to log in. Chat works offline with built-in tips.",
	)
}

func (m Model) viewDashboard() string {
	if !m.snap.IsAuthenticated {
		return m.loginHint()
	}
	if m.snap.DataCheckCompleted && m.snap.HasEmptyData {
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Welcome to DriveWise"),
			"",
			"No trips or check-ins yet. Once your trips sync they show up here.",
			"Open the Wellness tab and press a for your first check-in.",
		)
	}

	today := stats.Summarize(m.snap.TripStats[models.PeriodDaily])
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Earnings", utils.FormatRupiah(today.TotalEarnings)),
		card("Trips", fmt.Sprintf("%d", today.TotalTrips)),
		card("Distance", fmt.Sprintf("%.1f km", today.TotalDistance)),
		card("Tips", utils.FormatRupiah(today.TotalTip)),
	)

	well := mutedStyle.Render("No check-in today.")
	if logs := m.snap.WellnessData; len(logs) > 0 {
		avg := wellness.Average(logs)
		well = fmt.Sprintf("Energy %d  Stress %d  Sleep %d  Physical %d  (%d check-ins)",
			avg.EnergyLevel, avg.StressLevel, avg.SleepQuality, avg.PhysicalCondition, len(logs))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Today"),
		cards,
		"",
		titleStyle.Render("Wellness"),
		well,
	)
}

func card(label, value string) string {
	return cardStyle.Render(labelStyle.Render(label) + "\n" + valueStyle.Render(value))
}

func (m Model) viewEarnings() string {
	if !m.snap.IsAuthenticated {
		return m.loginHint()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Daily"),
		statsTable(m.snap.TripStats[models.PeriodDaily]),
		"",
		titleStyle.Render("Monthly"),
		statsTable(m.snap.TripStats[models.PeriodMonthly]),
	)
}

func statsTable(rows []models.TripStats) string {
	if len(rows) == 0 {
		return mutedStyle.Render("No trips recorded.")
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s %6s %10s %16s %14s %16s", "Period", "Trips", "Km", "Fare", "Tips", "Earnings")))
	for _, row := range rows {
		fmt.Fprintf(&b, "\n%-12s %6d %10.1f %16s %14s %16s",
			row.Label(), row.TotalTrips, row.TotalDistance,
			utils.FormatRupiah(row.TotalFare), utils.FormatRupiah(row.TotalTip), utils.FormatRupiah(row.TotalEarnings))
	}
	return b.String()
}

func (m Model) viewAnalytics() string {
	if !m.snap.IsAuthenticated {
		return m.loginHint()
	}
	sections := []string{titleStyle.Render("Earnings by month"), barChart(m.snap.TripStats[models.PeriodMonthly])}
	if yearly := m.snap.TripStats[models.PeriodYearly]; len(yearly) > 0 {
		sections = append(sections, "", titleStyle.Render("Earnings by year"), barChart(yearly))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// barChart draws one horizontal bar per row, scaled to the largest earnings.
func barChart(rows []models.TripStats) string {
	if len(rows) == 0 {
		return mutedStyle.Render("No data yet.")
	}
	var peak float64
	for _, row := range rows {
		peak = max(peak, row.TotalEarnings)
	}
	var lines []string
	for _, row := range rows {
		n := 0
		if peak > 0 {
			n = max(0, int(row.TotalEarnings/peak*barWidth))
		}
		lines = append(lines, fmt.Sprintf("%-10s %s %s",
			row.Label(),
			barStyle.Render(strings.Repeat("█", n)+strings.Repeat(" ", barWidth-n)),
			utils.FormatRupiah(row.TotalEarnings)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewWellness() string {
	if !m.snap.IsAuthenticated {
		return m.loginHint()
	}
	sections := []string{titleStyle.Render("Today's check-ins")}
	logs := m.snap.WellnessData
	if len(logs) == 0 {
		sections = append(sections, mutedStyle.Render("No check-ins today. Press a to add one."))
	} else {
		var b strings.Builder
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-6s %7s %7s %7s %9s", "Time", "Energy", "Stress", "Sleep", "Physical")))
		for _, l := range logs {
			fmt.Fprintf(&b, "\n%-6s %7d %7d %7d %9d",
				timeOf(l.Timestamp), l.EnergyLevel, l.StressLevel, l.SleepQuality, l.PhysicalCondition)
		}
		sections = append(sections, b.String())
	}

	if adv := m.snap.WellnessAdvice; adv != nil {
		sections = append(sections, "",
			titleStyle.Render(fmt.Sprintf("Recommendations (score %.0f, %s)", adv.WellnessScore, adv.GeneralWellnessStatus)),
			"Rest: "+adv.RestAdvice,
			"Hydration: "+adv.HydrationTip,
		)
		for _, tech := range adv.RelaxationTechniques {
			sections = append(sections, "  • "+tech)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// timeOf returns the clock time of an RFC3339 timestamp.
func timeOf(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 && len(ts) >= i+6 {
		return ts[i+1 : i+6]
	}
	return ts
}

func (m Model) viewFinancial() string {
	if !m.snap.IsAuthenticated {
		return m.loginHint()
	}
	month := stats.Summarize(m.snap.TripStats[models.PeriodMonthly])
	sections := []string{
		titleStyle.Render("This period"),
		fmt.Sprintf("Earnings %s over %d trips", utils.FormatRupiah(month.TotalEarnings), month.TotalTrips),
	}

	fin := m.snap.FinancialAdvice
	if fin == nil && m.snap.InvestmentAdvice == nil {
		sections = append(sections, "", mutedStyle.Render("No advice yet. Press a to enter income and expenses."))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}
	if fin != nil {
		sections = append(sections, "",
			titleStyle.Render("Saving"), fin.SavingStrategies, "",
			titleStyle.Render("Investing"), fin.InvestmentStrategies, "",
			titleStyle.Render("Insurance"), fin.InsuranceStrategies,
		)
	}
	if inv := m.snap.InvestmentAdvice; len(inv) > 0 {
		sections = append(sections, "", titleStyle.Render("Instruments"))
		for _, name := range inv.Names() {
			inst := inv[name]
			sections = append(sections, fmt.Sprintf("  %-20s min %s  return %s  risk %s",
				name, utils.FormatRupiah(inst.MinimumInvest), inst.ExpectedReturn, inst.RiskCategory))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewChat() string {
	header := titleStyle.Render("Assistant")
	if !m.snap.IsAuthenticated {
		header += mutedStyle.Render("  offline answers only")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		header+mutedStyle.Render("  "+m.transcript.Summary()),
		m.transcript.View(),
		"",
		m.input.View(),
	)
}
