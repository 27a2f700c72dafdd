package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/drivewise/internal/cache"
	"github.com/julianstephens/drivewise/internal/constants"
	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
	"github.com/julianstephens/drivewise/internal/storage"
	"github.com/julianstephens/drivewise/internal/utils"
)

// LoadTripStats publishes the statistics for period. A fresh, non-empty cache
// slot is served without a network call unless force is set. On failure the
// previously cached rows stay in place.
func (l *Layer) LoadTripStats(ctx context.Context, period models.Period, force bool) ([]models.TripStats, error) {
	const op = "load trip stats"
	g := l.guard(nil)
	if err := l.requireAuth(op); err != nil {
		return nil, err
	}
	if _, err := models.ParsePeriod(string(period)); err != nil {
		return nil, l.failIn(g, op, err)
	}

	slot := cache.TripSlot(period)
	if !force && l.cache.IsValid(slot, l.ttl) {
		if cached, ok := cache.Lookup[[]models.TripStats](l.cache, slot); ok && len(cached) > 0 {
			logger.Debug("Serving trip stats from cache", "period", period)
			l.commit(g, func(s *State) { s.TripStats[period] = cached })
			return cached, nil
		}
	}

	done := l.begin()
	defer done()

	stats, err := l.backend.TripStats(ctx, period)
	if err != nil {
		return nil, l.failIn(g, op, err, "period", period)
	}
	if !l.commit(g, func(s *State) {
		l.cache.Set(slot, stats)
		s.TripStats[period] = stats
	}) {
		logger.Debug("Dropping trip stats of ended session", "period", period)
		return nil, apperrors.ErrDiscarded
	}
	return stats, nil
}

// LoadWellnessData publishes the stored wellness logs that fall in the same
// calendar period as now. It never touches the network.
func (l *Layer) LoadWellnessData(period models.Period) []models.WellnessLog {
	logs := utils.FilterWellnessLogs(storage.ReadWellnessLogs(l.store), period, l.now(), l.loc)
	l.update(func(s *State) {
		s.WellnessPeriod = period
		s.WellnessData = logs
	})
	return logs
}

// SubmitWellnessAssessment stamps entry and appends it to the stored logs.
// It reports success; failures are published through State.Error.
func (l *Layer) SubmitWellnessAssessment(entry models.WellnessLog) bool {
	const op = "submit wellness assessment"
	g := l.guard(nil)
	if err := l.requireAuth(op); err != nil {
		return false
	}
	if l.store == nil {
		l.fail(op, apperrors.ErrStorageUnavailable)
		return false
	}
	if err := entry.Validate(); err != nil {
		l.fail(op, err)
		return false
	}

	done := l.begin()
	defer done()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Timestamp = l.now().Format(time.RFC3339)

	logs, err := storage.AppendWellnessLog(l.store, entry)
	if err != nil {
		l.fail(op, fmt.Errorf("failed to save wellness log: %w", err))
		return false
	}

	l.commit(g, func(s *State) {
		s.WellnessData = utils.FilterWellnessLogs(logs, s.WellnessPeriod, l.now(), l.loc)
	})
	logger.Info("Wellness assessment saved", "id", entry.ID)
	return true
}

// CheckUserDataAvailability probes all three statistics periods concurrently
// plus the local wellness logs and records whether the user has any data at
// all. It always completes; an unexpected failure counts as no data.
func (l *Layer) CheckUserDataAvailability(ctx context.Context) {
	l.mu.Lock()
	gen := l.checkGen
	l.mu.Unlock()

	empty := constants.AssumeEmptyOnProbeFailure
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Data availability check failed", "panic", r)
			empty = constants.AssumeEmptyOnProbeFailure
		}
		l.apply(func(s *State) bool {
			if l.checkGen != gen {
				return false
			}
			s.HasEmptyData = empty
			s.DataCheckCompleted = true
			return true
		})
	}()

	if !l.IsAuthenticated() {
		return
	}

	// settle all: one failing period must not hide data in another
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		tripData bool
		panicked bool
	)
	for _, period := range models.Periods {
		wg.Add(1)
		go func(period models.Period) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Availability probe panicked", "period", period, "panic", r)
					mu.Lock()
					panicked = true
					mu.Unlock()
				}
			}()
			stats, err := l.backend.TripStats(ctx, period)
			if err != nil {
				logger.Warn("Availability probe failed", "period", period, "error", err)
				return
			}
			if len(stats) > 0 {
				mu.Lock()
				tripData = true
				mu.Unlock()
			}
		}(period)
	}
	wg.Wait()
	if panicked {
		return
	}

	wellnessData := len(storage.ReadWellnessLogs(l.store)) > 0
	empty = !(tripData || wellnessData)
	logger.Debug("Data availability checked", "trip_data", tripData, "wellness_data", wellnessData)
}

// EnsureDataCheck starts the one-shot availability check if this session has
// not run or scheduled it yet. It returns immediately.
func (l *Layer) EnsureDataCheck() {
	if !l.IsAuthenticated() {
		return
	}
	l.scheduleDataCheck(0)
}

func (l *Layer) scheduleDataCheck(delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.checkPending || l.checkDone {
		return
	}
	l.checkPending = true
	gen := l.checkGen
	l.checkTimer = time.AfterFunc(delay, func() {
		l.mu.Lock()
		if l.checkGen != gen || l.checkDone {
			l.mu.Unlock()
			return
		}
		l.checkDone = true
		l.checkPending = false
		l.mu.Unlock()

		l.CheckUserDataAvailability(context.Background())
	})
}

// AwaitDataCheck blocks until the availability check has completed or ctx is
// done, and returns the state at that point.
func (l *Layer) AwaitDataCheck(ctx context.Context) (State, error) {
	done := make(chan State, 1)
	unsubscribe := l.Subscribe(func(s State) {
		if s.DataCheckCompleted {
			select {
			case done <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	if s := l.State(); s.DataCheckCompleted {
		return s, nil
	}
	select {
	case s := <-done:
		return s, nil
	case <-ctx.Done():
		return l.State(), ctx.Err()
	}
}
