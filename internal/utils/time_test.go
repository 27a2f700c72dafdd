package utils

import (
	"testing"
	"time"

	"github.com/julianstephens/drivewise/internal/models"
)

func TestLoadLocation(t *testing.T) {
	for _, tz := range []string{"", "Local"} {
		loc, err := LoadLocation(tz)
		if err != nil || loc != time.Local {
			t.Errorf("LoadLocation(%q) = %v, %v; want time.Local", tz, loc, err)
		}
	}
	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Error("LoadLocation() should fail for an unknown zone")
	}
	if _, err := NowInTimezone("Not/AZone"); err == nil {
		t.Error("NowInTimezone() should fail for an unknown zone")
	}
}

func TestSamePeriod(t *testing.T) {
	ref := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		t      time.Time
		period models.Period
		want   bool
	}{
		{"same day", time.Date(2026, 10, 18, 1, 0, 0, 0, time.UTC), models.PeriodDaily, true},
		{"previous day", time.Date(2026, 10, 17, 23, 59, 0, 0, time.UTC), models.PeriodDaily, false},
		{"same day last year", time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC), models.PeriodDaily, false},
		{"same month", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), models.PeriodMonthly, true},
		{"same month last year", time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC), models.PeriodMonthly, false},
		{"same year", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), models.PeriodYearly, true},
		{"other year", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), models.PeriodYearly, false},
		{"unknown period", ref, models.Period("weekly"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SamePeriod(tt.t, ref, tt.period, time.UTC); got != tt.want {
				t.Errorf("SamePeriod() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSamePeriodUsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 18:00 UTC on the 17th is already the 18th in Jakarta
	logTime := time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)
	ref := time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)

	if !SamePeriod(logTime, ref, models.PeriodDaily, jakarta) {
		t.Error("SamePeriod() should compare calendar days in the given location")
	}
	if SamePeriod(logTime, ref, models.PeriodDaily, time.UTC) {
		t.Error("SamePeriod() in UTC should see different days")
	}
}

func TestFilterWellnessLogs(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	logs := []models.WellnessLog{
		{EnergyLevel: 1, Timestamp: "2026-10-18T08:00:00Z"},
		{EnergyLevel: 2, Timestamp: "2026-10-02T08:00:00Z"},
		{EnergyLevel: 3, Timestamp: "2026-03-02T08:00:00Z"},
		{EnergyLevel: 4, Timestamp: "not a timestamp"},
	}

	tests := []struct {
		period models.Period
		want   []int
	}{
		{models.PeriodDaily, []int{1}},
		{models.PeriodMonthly, []int{1, 2}},
		{models.PeriodYearly, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			got := FilterWellnessLogs(logs, tt.period, now, time.UTC)
			if len(got) != len(tt.want) {
				t.Fatalf("FilterWellnessLogs() returned %d logs, want %d", len(got), len(tt.want))
			}
			for i, l := range got {
				if l.EnergyLevel != tt.want[i] {
					t.Errorf("log %d energy = %d, want %d", i, l.EnergyLevel, tt.want[i])
				}
			}
		})
	}
}
