package models

import "fmt"

// WellnessLog is a self-assessment kept only on the device.
type WellnessLog struct {
	ID                string `json:"id,omitempty"`
	EnergyLevel       int    `json:"energy_level"`       // 0-100
	StressLevel       int    `json:"stress_level"`       // 0-100
	SleepQuality      int    `json:"sleep_quality"`      // 0-100
	PhysicalCondition int    `json:"physical_condition"` // 0-100
	Timestamp         string `json:"timestamp"`          // RFC3339
}

// Validate checks that every score is within 0-100.
func (l WellnessLog) Validate() error {
	scores := map[string]int{
		"energy_level":       l.EnergyLevel,
		"stress_level":       l.StressLevel,
		"sleep_quality":      l.SleepQuality,
		"physical_condition": l.PhysicalCondition,
	}
	for name, v := range scores {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %d", name, v)
		}
	}
	return nil
}

// WellnessRequest is the input for wellness recommendations.
type WellnessRequest struct {
	EnergyLevel       int `json:"energy_level"`
	StressLevel       int `json:"stress_level"`
	SleepQuality      int `json:"sleep_quality"`
	PhysicalCondition int `json:"physical_condition"`
}

// WellnessAdvice is backend-generated wellness guidance.
type WellnessAdvice struct {
	RestAdvice            string   `json:"rest_advice"`
	HydrationTip          string   `json:"hydration_tip"`
	RelaxationTechniques  []string `json:"relaxation_techniques"`
	WellnessScore         float64  `json:"wellness_score"`
	GeneralWellnessStatus string   `json:"general_wellness_status"`
}

func (a WellnessAdvice) Validate() error {
	if a.RestAdvice == "" && a.GeneralWellnessStatus == "" {
		return fmt.Errorf("wellness advice is empty")
	}
	return nil
}
