// Package forms holds the huh forms shared by the CLI prompts and the TUI.
package forms

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/drivewise/internal/models"
)

// RiskLevels are the risk tolerance values the backend understands.
var RiskLevels = []string{"rendah", "sedang", "tinggi"}

type LoginFormModel struct {
	Email    string
	Password string
}

type WellnessFormModel struct {
	Energy   string
	Stress   string
	Sleep    string
	Physical string
}

// Log converts the form into a wellness log. Call after validation.
func (fm *WellnessFormModel) Log() models.WellnessLog {
	score := func(s string) int {
		v, _ := strconv.Atoi(strings.TrimSpace(s))
		return v
	}
	return models.WellnessLog{
		EnergyLevel:       score(fm.Energy),
		StressLevel:       score(fm.Stress),
		SleepQuality:      score(fm.Sleep),
		PhysicalCondition: score(fm.Physical),
	}
}

type AdviceFormModel struct {
	Income   string
	Expenses string
	Risk     string
}

// Values parses the form's amounts. Call after validation.
func (fm *AdviceFormModel) Values() (income, expenses float64) {
	income, _ = ParseAmount(fm.Income)
	expenses, _ = ParseAmount(fm.Expenses)
	return income, expenses
}

// ParseAmount accepts plain or dot-grouped rupiah amounts ("7000000", "7.000.000").
func ParseAmount(s string) (float64, error) {
	clean := strings.NewReplacer("Rp", "", " ", "", ".", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("amount must not be negative")
	}
	return v, nil
}

// ValidateScore checks a 0-100 wellness score.
func ValidateScore(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("score must be a whole number")
	}
	if v < 0 || v > 100 {
		return fmt.Errorf("score must be between 0 and 100")
	}
	return nil
}

func validateAmount(s string) error {
	_, err := ParseAmount(s)
	return err
}

func NewLoginForm(fm *LoginFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&fm.Email).
				Validate(func(s string) error {
					if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("enter a valid email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fm.Password).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("password cannot be empty")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

func NewWellnessForm(fm *WellnessFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Energy level (0-100)").
				Value(&fm.Energy).
				Validate(ValidateScore),
			huh.NewInput().
				Title("Stress level (0-100)").
				Value(&fm.Stress).
				Validate(ValidateScore),
			huh.NewInput().
				Title("Sleep quality (0-100)").
				Value(&fm.Sleep).
				Validate(ValidateScore),
			huh.NewInput().
				Title("Physical condition (0-100)").
				Value(&fm.Physical).
				Validate(ValidateScore),
		),
	).WithTheme(huh.ThemeDracula())
}

func NewAdviceForm(fm *AdviceFormModel) *huh.Form {
	if fm.Risk == "" {
		fm.Risk = "sedang"
	}
	options := make([]huh.Option[string], 0, len(RiskLevels))
	for _, r := range RiskLevels {
		options = append(options, huh.NewOption(r, r))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Monthly income (Rp)").
				Value(&fm.Income).
				Validate(validateAmount),
			huh.NewInput().
				Title("Monthly expenses (Rp)").
				Value(&fm.Expenses).
				Validate(validateAmount),
			huh.NewSelect[string]().
				Title("Risk tolerance").
				Options(options...).
				Value(&fm.Risk),
		),
	).WithTheme(huh.ThemeDracula())
}
