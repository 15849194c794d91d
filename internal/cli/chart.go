package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"AstroChart/internal/domain/models"
	"AstroChart/internal/services/astro"
	"AstroChart/internal/usecase"
)

var (
	chartDate        string
	chartTime        string
	chartLat         float64
	chartLon         float64
	chartTimezone    string
	chartOffset      float64
	chartHouseSystem string
	chartMinor       bool
	chartJSON        bool
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Calculate a natal chart",
	Long: `Calculates planet positions, house cusps and aspects for a birth moment.
The local time is resolved with --timezone, or --utc-offset when no zone is given.`,
	Example: `  chartctl chart --date 1990-07-15 --time 14:30 --lat 41.9 --lon 12.5 --timezone Europe/Rome`,
	Args:    cobra.NoArgs,
	RunE:    runChart,
}

func init() {
	f := chartCmd.Flags()
	f.StringVar(&chartDate, "date", "", "birth date, YYYY-MM-DD")
	f.StringVar(&chartTime, "time", "12:00", "local birth time, HH:MM[:SS]")
	f.Float64Var(&chartLat, "lat", 0, "latitude in degrees, north positive")
	f.Float64Var(&chartLon, "lon", 0, "longitude in degrees, east positive")
	f.StringVar(&chartTimezone, "timezone", "", "IANA time zone, e.g. Europe/Rome")
	f.Float64Var(&chartOffset, "utc-offset", 0, "hours east of UTC, used without --timezone")
	f.StringVar(&chartHouseSystem, "house-system", "placidus", "placidus, koch, porphyry, regiomontanus, campanus, equal or whole_sign")
	f.BoolVar(&chartMinor, "minor", false, "include minor aspects")
	f.BoolVar(&chartJSON, "json", false, "output the chart as JSON")
	_ = chartCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, _ []string) error {
	in := models.BirthData{
		Date:      chartDate,
		Time:      chartTime,
		Latitude:  chartLat,
		Longitude: chartLon,
		Timezone:  chartTimezone,
	}
	// without either flag the zone comes from the longitude
	if cmd.Flags().Changed("utc-offset") {
		off := chartOffset
		in.UTCOffset = &off
	}
	opts := models.ChartOptions{HouseSystem: chartHouseSystem, IncludeMinor: chartMinor}

	chart, err := astro.NewCalculator().Calculate(context.Background(), in, opts)
	if err != nil {
		return fmt.Errorf("chart failed: %w", err)
	}
	if chart.ID, err = usecase.ChartID(in, opts); err != nil {
		return err
	}

	if chartJSON {
		return printJSON(cmd, chart)
	}
	outputChart(cmd, &chart)
	return nil
}

func outputChart(cmd *cobra.Command, c *models.BirthChartData) {
	cmd.Printf("Chart %s\n", c.ID)
	cmd.Printf("  UTC        %s\n", c.UTC.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Julian Day %.6f\n", c.JulianDay)
	cmd.Printf("  Houses     %s\n", c.HouseSystem)
	cmd.Printf("  Ascendant  %s\n", c.Ascendant.Formatted)
	cmd.Printf("  Midheaven  %s\n", c.Midheaven.Formatted)
	cmd.Println()

	cmd.Println("Planets:")
	for _, p := range c.Planets {
		retro := ""
		if p.Retrograde {
			retro = " R"
		}
		cmd.Printf("  %-8s %-20s house %2d%s\n", p.Body, p.Formatted, p.House, retro)
	}
	cmd.Println()

	cmd.Println("Cusps:")
	for _, h := range c.Houses {
		cmd.Printf("  %2d  %s\n", h.House, astro.FormatPosition(h.Cusp))
	}
	cmd.Println()

	if len(c.Aspects) == 0 {
		cmd.Println("No aspects found.")
		return
	}
	cmd.Println("Aspects:")
	for _, a := range c.Aspects {
		flags := []string{}
		if a.Exact {
			flags = append(flags, "exact")
		}
		if a.Applying {
			flags = append(flags, "applying")
		}
		cmd.Printf("  %-8s %-14s %-8s orb %.2f %s\n", a.Planet1, a.Type, a.Planet2, a.Orb, strings.Join(flags, ","))
	}
	cmd.Printf("\nDominant element %s, modality %s\n", c.Balance.DominantElement, c.Balance.DominantModality)
}
