package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"AstroChart/internal/domain/models"
	"AstroChart/internal/service/skystream"
	"AstroChart/internal/services/astro"
	xutil "AstroChart/pkg/util"
)

var (
	skyLat      float64
	skyLon      float64
	skyAt       string
	skyJSON     bool
	skyWatch    bool
	skyServer   string
	skyInterval time.Duration
)

var skyCmd = &cobra.Command{
	Use:   "sky",
	Short: "Show planet positions for a moment and place",
	Long: `Prints the current sky, or the sky at --at, as seen from --lat/--lon.
With --watch the positions are streamed from a running server.`,
	Args: cobra.NoArgs,
	RunE: runSky,
}

func init() {
	f := skyCmd.Flags()
	f.Float64Var(&skyLat, "lat", 0, "observer latitude")
	f.Float64Var(&skyLon, "lon", 0, "observer longitude")
	f.StringVar(&skyAt, "at", "", "instant as RFC3339 or unix seconds (default now)")
	f.BoolVar(&skyJSON, "json", false, "output as JSON")
	f.BoolVarP(&skyWatch, "watch", "w", false, "stream positions from --server")
	f.StringVar(&skyServer, "server", "ws://localhost:8080", "server base URL for --watch")
	f.DurationVar(&skyInterval, "interval", time.Minute, "update interval for --watch")
	rootCmd.AddCommand(skyCmd)
}

func runSky(cmd *cobra.Command, _ []string) error {
	if skyWatch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchSky(ctx, cmd)
	}

	at := time.Now().UTC()
	if skyAt != "" {
		t, ok := xutil.ParseTime(skyAt)
		if !ok {
			return fmt.Errorf("invalid --at %q", skyAt)
		}
		at = t
	}

	snap, err := astro.CalculateSky(at, skyLat, skyLon)
	if err != nil {
		return fmt.Errorf("sky failed: %w", err)
	}
	if skyJSON {
		return printJSON(cmd, snap)
	}
	outputSky(cmd, &snap)
	return nil
}

func watchSky(ctx context.Context, cmd *cobra.Command) error {
	client := skystream.New(skyServer, 2*time.Second, 30*time.Second)
	if err := client.Connect(ctx, skyLat, skyLon, skyInterval); err != nil {
		return err
	}
	defer client.Close()

	for {
		snaps, errs := client.Read(ctx)
		for s := range snaps {
			if skyJSON {
				if err := printJSON(cmd, s); err != nil {
					return err
				}
				continue
			}
			outputSky(cmd, s)
			cmd.Println()
		}
		err := <-errs
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("stream closed")
		}
		cmd.PrintErrf("%v, reconnecting\n", err)
		if err := client.Reconnect(ctx, skyLat, skyLon, skyInterval); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func outputSky(cmd *cobra.Command, s *models.SkySnapshot) {
	cmd.Printf("Sky at %s (JD %.5f) from %.4f, %.4f\n", s.At.Format(time.RFC3339), s.JulianDay, s.Latitude, s.Longitude)
	for _, p := range s.Planets {
		state := "above"
		if p.Horizontal.Altitude < 0 {
			state = "below"
		}
		retro := ""
		if p.Retrograde {
			retro = " R"
		}
		cmd.Printf("  %-8s %-20s alt %6.2f az %6.2f %s%s\n", p.Body, p.Formatted, p.Horizontal.Altitude, p.Horizontal.Azimuth, state, retro)
	}
}
