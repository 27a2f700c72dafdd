package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/drivewise/internal/chat"
	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/datasync"
	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/models"
)

const opTimeout = 30 * time.Second

type snapshotMsg datasync.Snapshot

// opDoneMsg reports a finished background operation.
type opDoneMsg struct {
	notice string
	err    error
	mount  bool // remount the current page afterwards
}

type chatReplyMsg struct {
	reply chat.Message
	err   error
}

func waitForSnapshot(ch <-chan datasync.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func mountPage(s *datasync.Context, page constants.PageType) tea.Cmd {
	if page == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		err := s.MountPage(ctx, page)
		if errors.Is(err, apperrors.ErrAuthRequired) {
			// logged-out pages render their login hint instead
			err = nil
		}
		return opDoneMsg{err: err}
	}
}

func refreshPage(s *datasync.Context, page constants.PageType) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if !s.RefreshData(ctx, page) {
			return opDoneMsg{err: fmt.Errorf("%s refresh failed", page)}
		}
		return opDoneMsg{notice: fmt.Sprintf("Refreshed %s", page)}
	}
}

func syncAll(s *datasync.Context) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := s.SyncAllData(ctx); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{notice: "Synced at " + time.Now().Format("15:04")}
	}
}

func login(s *datasync.Context, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := s.Layer().Login(ctx, email, password); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{notice: "Logged in as " + email, mount: true}
	}
}

func logout(s *datasync.Context, session *chat.Session) tea.Cmd {
	return func() tea.Msg {
		session.Reset()
		if err := s.Logout(); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{notice: "Logged out"}
	}
}

// submitWellness saves the check-in and asks for recommendations based on it.
func submitWellness(s *datasync.Context, entry models.WellnessLog) tea.Cmd {
	return func() tea.Msg {
		layer := s.Layer()
		if !layer.SubmitWellnessAssessment(entry) {
			return opDoneMsg{err: errors.New(layer.State().Error)}
		}

		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := layer.GetWellnessRecommendations(ctx, models.WellnessRequest{
			EnergyLevel:       entry.EnergyLevel,
			StressLevel:       entry.StressLevel,
			SleepQuality:      entry.SleepQuality,
			PhysicalCondition: entry.PhysicalCondition,
		})
		if err != nil {
			return opDoneMsg{notice: "Check-in saved", err: err}
		}
		return opDoneMsg{notice: "Check-in saved"}
	}
}

func requestAdvice(s *datasync.Context, income, expenses float64, risk string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		layer := s.Layer()
		_, finErr := layer.GetFinancialAdvice(ctx, income, expenses, risk)
		_, invErr := layer.GetInvestmentAdvice(ctx, income, expenses, risk)
		if err := errors.Join(finErr, invErr); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{notice: "Advice updated"}
	}
}

func sendChat(session *chat.Session, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := session.Send(context.Background(), text)
		return chatReplyMsg{reply: reply, err: err}
	}
}
