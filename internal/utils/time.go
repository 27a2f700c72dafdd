package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/drivewise/internal/models"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// SamePeriod reports whether t falls in the same calendar period as ref:
// the same day, the same month of the same year, or the same year. Both
// times are compared in loc.
func SamePeriod(t, ref time.Time, period models.Period, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	t, ref = t.In(loc), ref.In(loc)
	switch period {
	case models.PeriodDaily:
		return t.Year() == ref.Year() && t.YearDay() == ref.YearDay()
	case models.PeriodMonthly:
		return t.Year() == ref.Year() && t.Month() == ref.Month()
	case models.PeriodYearly:
		return t.Year() == ref.Year()
	default:
		return false
	}
}

// FilterWellnessLogs keeps the logs whose timestamp shares period with now.
// Logs with unparseable timestamps are skipped.
func FilterWellnessLogs(logs []models.WellnessLog, period models.Period, now time.Time, loc *time.Location) []models.WellnessLog {
	filtered := make([]models.WellnessLog, 0, len(logs))
	for _, l := range logs {
		ts, err := time.Parse(time.RFC3339, l.Timestamp)
		if err != nil {
			continue
		}
		if SamePeriod(ts, now, period, loc) {
			filtered = append(filtered, l)
		}
	}
	return filtered
}
