package models

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// AdviceRequest carries the inputs for financial and investment advice.
type AdviceRequest struct {
	Income        float64 `json:"income"`
	Expenses      float64 `json:"expenses"`
	RiskTolerance string  `json:"risk_tolerance"` // e.g. "rendah", "sedang", "tinggi"
}

func (r AdviceRequest) Validate() error {
	if r.Income < 0 || r.Expenses < 0 {
		return fmt.Errorf("income and expenses must not be negative")
	}
	if r.RiskTolerance == "" {
		return fmt.Errorf("risk tolerance is required")
	}
	return nil
}

// FinancialAdvice is backend-generated savings, investment and insurance guidance.
type FinancialAdvice struct {
	SavingStrategies     string `json:"saving_strategies"`
	InvestmentStrategies string `json:"investment_strategies"`
	InsuranceStrategies  string `json:"insurance_strategies"`
}

func (a FinancialAdvice) Validate() error {
	if a.SavingStrategies == "" && a.InvestmentStrategies == "" && a.InsuranceStrategies == "" {
		return fmt.Errorf("financial advice is empty")
	}
	return nil
}

// Instrument describes one recommended investment product.
type Instrument struct {
	MinimumInvest  float64 `json:"minimum_invest"`
	ExpectedReturn string  `json:"expected_return"`
	RiskCategory   string  `json:"risk_category"`
}

// InvestmentAdvice maps an instrument name to its recommendation.
type InvestmentAdvice map[string]Instrument

func (a InvestmentAdvice) Validate() error {
	if len(a) == 0 {
		return fmt.Errorf("investment advice has no instruments")
	}
	for name, inst := range a {
		if inst.MinimumInvest < 0 {
			return fmt.Errorf("instrument %s has a negative minimum investment", name)
		}
	}
	return nil
}

// Names orders the instruments by minimum investment, then name.
func (a InvestmentAdvice) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	slices.SortFunc(names, func(x, y string) int {
		if c := cmp.Compare(a[x].MinimumInvest, a[y].MinimumInvest); c != 0 {
			return c
		}
		return strings.Compare(x, y)
	})
	return names
}
