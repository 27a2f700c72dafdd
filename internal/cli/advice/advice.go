package advice

import (
	"context"
	"fmt"
	"slices"

	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/cli/wellness"
	"github.com/julianstephens/drivewise/internal/models"
	"github.com/julianstephens/drivewise/internal/tui/forms"
	"github.com/julianstephens/drivewise/internal/utils"
)

// Inputs are the monthly figures shared by financial and investment advice.
type Inputs struct {
	Income   string `help:"Monthly income in rupiah. Prompted when omitted."`
	Expenses string `help:"Monthly expenses in rupiah. Prompted when omitted."`
	Risk     string `help:"Risk tolerance (rendah, sedang, tinggi)." enum:"rendah,sedang,tinggi" default:"sedang"`
	JSON     bool   `help:"Print the advice as JSON." name:"json"`
}

// Resolve parses the flags, prompting for any missing amount.
func (in *Inputs) Resolve() (income, expenses float64, risk string, err error) {
	if in.Income == "" || in.Expenses == "" {
		fm := &forms.AdviceFormModel{Income: in.Income, Expenses: in.Expenses, Risk: in.Risk}
		if err := forms.NewAdviceForm(fm).Run(); err != nil {
			return 0, 0, "", err
		}
		in.Income, in.Expenses, in.Risk = fm.Income, fm.Expenses, fm.Risk
	}
	if income, err = forms.ParseAmount(in.Income); err != nil {
		return 0, 0, "", fmt.Errorf("income: %w", err)
	}
	if expenses, err = forms.ParseAmount(in.Expenses); err != nil {
		return 0, 0, "", fmt.Errorf("expenses: %w", err)
	}
	if !slices.Contains(forms.RiskLevels, in.Risk) {
		return 0, 0, "", fmt.Errorf("invalid risk tolerance %q", in.Risk)
	}
	return income, expenses, in.Risk, nil
}

type AdviceFinancialCmd struct {
	Inputs `embed:""`
}

func (c *AdviceFinancialCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireAuth(); err != nil {
		return err
	}
	income, expenses, risk, err := c.Resolve()
	if err != nil {
		return err
	}

	advice, err := ctx.Layer().GetFinancialAdvice(context.Background(), income, expenses, risk)
	if err != nil {
		return fmt.Errorf("failed to get financial advice: %w", err)
	}
	if c.JSON {
		return cli.PrintJSON(advice)
	}

	fmt.Printf("Financial advice for %s income, %s expenses (risk %s):\n\n",
		utils.FormatRupiah(income), utils.FormatRupiah(expenses), risk)
	printSection("Saving", advice.SavingStrategies)
	printSection("Investment", advice.InvestmentStrategies)
	printSection("Insurance", advice.InsuranceStrategies)
	return nil
}

type AdviceInvestmentCmd struct {
	Inputs `embed:""`
}

func (c *AdviceInvestmentCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireAuth(); err != nil {
		return err
	}
	income, expenses, risk, err := c.Resolve()
	if err != nil {
		return err
	}

	advice, err := ctx.Layer().GetInvestmentAdvice(context.Background(), income, expenses, risk)
	if err != nil {
		return fmt.Errorf("failed to get investment advice: %w", err)
	}
	if c.JSON {
		return cli.PrintJSON(advice)
	}

	fmt.Printf("Investment options (risk %s):\n", risk)
	for _, name := range advice.Names() {
		inst := advice[name]
		fmt.Printf("  %s\n", name)
		fmt.Printf("      Minimum: %s  Expected return: %s  Risk: %s\n",
			utils.FormatRupiah(inst.MinimumInvest), inst.ExpectedReturn, inst.RiskCategory)
	}
	return nil
}

type AdviceWellnessCmd struct {
	Energy   *int `help:"Energy level (0-100). Defaults to today's average."`
	Stress   *int `help:"Stress level (0-100). Defaults to today's average."`
	Sleep    *int `help:"Sleep quality (0-100). Defaults to today's average."`
	Physical *int `help:"Physical condition (0-100). Defaults to today's average."`
	JSON     bool `help:"Print the advice as JSON." name:"json"`
}

func (c *AdviceWellnessCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireAuth(); err != nil {
		return err
	}
	req, err := c.request(ctx)
	if err != nil {
		return err
	}

	advice, err := ctx.Layer().GetWellnessRecommendations(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to get wellness recommendations: %w", err)
	}
	if c.JSON {
		return cli.PrintJSON(advice)
	}

	fmt.Printf("Wellness score: %.0f (%s)\n\n", advice.WellnessScore, advice.GeneralWellnessStatus)
	printSection("Rest", advice.RestAdvice)
	printSection("Hydration", advice.HydrationTip)
	if len(advice.RelaxationTechniques) > 0 {
		fmt.Println("Relaxation:")
		for _, tech := range advice.RelaxationTechniques {
			fmt.Printf("  - %s\n", tech)
		}
	}
	return nil
}

// request fills unset scores from today's logged average, or prompts when
// nothing was logged today.
func (c *AdviceWellnessCmd) request(ctx *cli.Context) (models.WellnessRequest, error) {
	base := wellness.Average(ctx.Layer().LoadWellnessData(models.PeriodDaily))
	if base == (models.WellnessRequest{}) && (c.Energy == nil || c.Stress == nil || c.Sleep == nil || c.Physical == nil) {
		fm := &forms.WellnessFormModel{}
		if err := forms.NewWellnessForm(fm).Run(); err != nil {
			return models.WellnessRequest{}, err
		}
		entry := fm.Log()
		base = models.WellnessRequest{
			EnergyLevel:       entry.EnergyLevel,
			StressLevel:       entry.StressLevel,
			SleepQuality:      entry.SleepQuality,
			PhysicalCondition: entry.PhysicalCondition,
		}
	}

	override := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	override(&base.EnergyLevel, c.Energy)
	override(&base.StressLevel, c.Stress)
	override(&base.SleepQuality, c.Sleep)
	override(&base.PhysicalCondition, c.Physical)

	entry := models.WellnessLog{
		EnergyLevel:       base.EnergyLevel,
		StressLevel:       base.StressLevel,
		SleepQuality:      base.SleepQuality,
		PhysicalCondition: base.PhysicalCondition,
	}
	if err := entry.Validate(); err != nil {
		return models.WellnessRequest{}, err
	}
	return base, nil
}

func printSection(title, body string) {
	if body == "" {
		return
	}
	fmt.Printf("%s:\n  %s\n\n", title, body)
}
