package stats

import (
	"context"
	"fmt"

	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/models"
	"github.com/julianstephens/drivewise/internal/utils"
)

type StatsCmd struct {
	Period  string `arg:"" optional:"" enum:"daily,monthly,yearly" default:"daily" help:"Statistics period (daily, monthly, yearly)."`
	Refresh bool   `help:"Bypass the cache and fetch from the backend."`
	JSON    bool   `help:"Print raw rows as JSON." name:"json"`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireAuth(); err != nil {
		return err
	}
	period, err := models.ParsePeriod(c.Period)
	if err != nil {
		return err
	}

	rows, err := ctx.Layer().LoadTripStats(context.Background(), period, c.Refresh)
	if err != nil {
		return fmt.Errorf("failed to load %s statistics: %w", period, err)
	}
	if c.JSON {
		return cli.PrintJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Printf("No %s trip statistics yet\n", period)
		return nil
	}

	total := Summarize(rows)
	fmt.Printf("Trip statistics (%s):\n", period)
	for _, row := range rows {
		fmt.Printf("  %-10s  %4d trips  %8.1f km  %s (tips %s)\n",
			row.Label(), row.TotalTrips, row.TotalDistance,
			utils.FormatRupiah(row.TotalEarnings), utils.FormatRupiah(row.TotalTip))
	}
	fmt.Printf("\n  Total       %4d trips  %8.1f km  %s\n",
		total.TotalTrips, total.TotalDistance, utils.FormatRupiah(total.TotalEarnings))
	if total.TotalTrips > 0 {
		fmt.Printf("  Average     %s per trip\n", utils.FormatRupiah(total.TotalEarnings/float64(total.TotalTrips)))
	}
	return nil
}

// Summarize adds up every row.
func Summarize(rows []models.TripStats) models.TripStats {
	var total models.TripStats
	for _, row := range rows {
		total.TotalDistance += row.TotalDistance
		total.TotalFare += row.TotalFare
		total.TotalTip += row.TotalTip
		total.TotalEarnings += row.TotalEarnings
		total.TotalTrips += row.TotalTrips
	}
	return total
}
