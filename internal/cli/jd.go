package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"AstroChart/internal/services/astro"
	xutil "AstroChart/pkg/util"
)

var jdReverse bool

var jdCmd = &cobra.Command{
	Use:   "jd [instant]",
	Short: "Convert between UTC instants and Julian Days",
	Example: `  chartctl jd 2000-01-01T12:00:00Z
  chartctl jd --reverse 2451545`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJD,
}

func init() {
	jdCmd.Flags().BoolVarP(&jdReverse, "reverse", "r", false, "treat the argument as a Julian Day and print the UTC instant")
	rootCmd.AddCommand(jdCmd)
}

func runJD(cmd *cobra.Command, args []string) error {
	if jdReverse {
		if len(args) == 0 {
			return fmt.Errorf("--reverse needs a Julian Day")
		}
		jd, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid julian day %q", args[0])
		}
		cmd.Println(astro.JDToTime(jd).Format(time.RFC3339))
		return nil
	}

	at := time.Now().UTC()
	if len(args) == 1 {
		t, ok := xutil.ParseTime(args[0])
		if !ok {
			return fmt.Errorf("invalid instant %q", args[0])
		}
		at = t
	}
	cmd.Printf("%.6f\n", astro.JulianDay(at))
	return nil
}
