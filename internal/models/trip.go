package models

import "fmt"

// Period is the granularity of trip statistics and wellness filtering.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Periods lists every supported period in display order.
var Periods = []Period{PeriodDaily, PeriodMonthly, PeriodYearly}

// ParsePeriod returns the Period named by s.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDaily, PeriodMonthly, PeriodYearly:
		return Period(s), nil
	default:
		return "", fmt.Errorf("invalid period %q (expected daily, monthly or yearly)", s)
	}
}

// TripStats is one aggregated row of trip statistics. Exactly one of Date,
// Month or Year is set depending on the period it was fetched for.
type TripStats struct {
	Date          string  `json:"date,omitempty"`  // YYYY-MM-DD, daily rows
	Month         string  `json:"month,omitempty"` // YYYY-MM, monthly rows
	Year          string  `json:"year,omitempty"`  // YYYY, yearly rows
	TotalDistance float64 `json:"total_distance"`  // kilometers
	TotalFare     float64 `json:"total_fare"`
	TotalTip      float64 `json:"total_tip"`
	TotalEarnings float64 `json:"total_earnings"`
	TotalTrips    int     `json:"total_trips"`
}

// Label returns the period key of the row.
func (s TripStats) Label() string {
	switch {
	case s.Date != "":
		return s.Date
	case s.Month != "":
		return s.Month
	default:
		return s.Year
	}
}

// Validate checks a row fetched for the given period.
func (s TripStats) Validate(period Period) error {
	var key string
	switch period {
	case PeriodDaily:
		key = s.Date
	case PeriodMonthly:
		key = s.Month
	case PeriodYearly:
		key = s.Year
	default:
		return fmt.Errorf("invalid period %q", period)
	}
	if key == "" {
		return fmt.Errorf("%s trip stats row is missing its period key", period)
	}
	if s.TotalDistance < 0 || s.TotalFare < 0 || s.TotalTip < 0 || s.TotalTrips < 0 {
		return fmt.Errorf("trip stats row %s has negative totals", key)
	}
	return nil
}
