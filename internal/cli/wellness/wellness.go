package wellness

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/models"
	"github.com/julianstephens/drivewise/internal/tui/forms"
)

type WellnessLogCmd struct {
	Energy   *int `help:"Energy level (0-100)."`
	Stress   *int `help:"Stress level (0-100)."`
	Sleep    *int `help:"Sleep quality (0-100)."`
	Physical *int `help:"Physical condition (0-100)."`
}

func (c *WellnessLogCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireAuth(); err != nil {
		return err
	}

	entry, err := c.entry()
	if err != nil {
		return err
	}
	layer := ctx.Layer()
	if !layer.SubmitWellnessAssessment(entry) {
		return errors.New(layer.State().Error)
	}
	fmt.Println("✓ Wellness check recorded")
	return nil
}

// entry uses the flags when all are set and prompts otherwise.
func (c *WellnessLogCmd) entry() (models.WellnessLog, error) {
	if c.Energy != nil && c.Stress != nil && c.Sleep != nil && c.Physical != nil {
		return models.WellnessLog{
			EnergyLevel:       *c.Energy,
			StressLevel:       *c.Stress,
			SleepQuality:      *c.Sleep,
			PhysicalCondition: *c.Physical,
		}, nil
	}

	fm := &forms.WellnessFormModel{
		Energy:   prefill(c.Energy),
		Stress:   prefill(c.Stress),
		Sleep:    prefill(c.Sleep),
		Physical: prefill(c.Physical),
	}
	if err := forms.NewWellnessForm(fm).Run(); err != nil {
		return models.WellnessLog{}, err
	}
	return fm.Log(), nil
}

func prefill(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

type WellnessShowCmd struct {
	Period string `arg:"" optional:"" enum:"daily,monthly,yearly" default:"daily" help:"Show logs from today, this month or this year."`
	JSON   bool   `help:"Print logs as JSON." name:"json"`
}

func (c *WellnessShowCmd) Run(ctx *cli.Context) error {
	period, err := models.ParsePeriod(c.Period)
	if err != nil {
		return err
	}

	logs := ctx.Layer().LoadWellnessData(period)
	if c.JSON {
		return cli.PrintJSON(logs)
	}
	if len(logs) == 0 {
		fmt.Printf("No wellness logs for this %s period\n", period)
		return nil
	}

	loc := ctx.Location()
	fmt.Printf("Wellness logs (%s):\n", period)
	for _, l := range logs {
		when := l.Timestamp
		if ts, err := time.Parse(time.RFC3339, l.Timestamp); err == nil {
			when = ts.In(loc).Format("2006-01-02 15:04")
		}
		fmt.Printf("  %s  energy %3d  stress %3d  sleep %3d  physical %3d\n",
			when, l.EnergyLevel, l.StressLevel, l.SleepQuality, l.PhysicalCondition)
	}
	avg := Average(logs)
	fmt.Printf("\n  Average           energy %3d  stress %3d  sleep %3d  physical %3d\n",
		avg.EnergyLevel, avg.StressLevel, avg.SleepQuality, avg.PhysicalCondition)
	return nil
}

// Average returns the rounded mean score of each dimension.
func Average(logs []models.WellnessLog) models.WellnessRequest {
	if len(logs) == 0 {
		return models.WellnessRequest{}
	}
	var sum models.WellnessRequest
	for _, l := range logs {
		sum.EnergyLevel += l.EnergyLevel
		sum.StressLevel += l.StressLevel
		sum.SleepQuality += l.SleepQuality
		sum.PhysicalCondition += l.PhysicalCondition
	}
	n := len(logs)
	mean := func(total int) int { return (total + n/2) / n }
	return models.WellnessRequest{
		EnergyLevel:       mean(sum.EnergyLevel),
		StressLevel:       mean(sum.StressLevel),
		SleepQuality:      mean(sum.SleepQuality),
		PhysicalCondition: mean(sum.PhysicalCondition),
	}
}
