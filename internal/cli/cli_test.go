package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AstroChart/internal/domain/models"
)

// resetFlags restores defaults so flag values do not leak between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	original := version
	version = "test-1.0"
	defer func() { version = original }()

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "chartctl version test-1.0")
}

func TestChartCmdTable(t *testing.T) {
	out, err := run(t, "chart", "--date", "1990-07-15", "--time", "14:30", "--lat", "41.9028", "--lon", "12.4964",
		"--timezone", "Europe/Rome", "--house-system", "koch", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Houses     koch")
	assert.Contains(t, out, "Julian Day 2448088.020833")
	assert.Contains(t, out, "Sun")
	assert.Contains(t, out, "Cancer")
	assert.Contains(t, out, "Cusps:")
}

func TestChartCmdJSON(t *testing.T) {
	out, err := run(t, "chart", "--date", "1990-07-15", "--time", "14:30", "--lat", "41.9028", "--lon", "12.4964",
		"--timezone", "Europe/Rome", "--house-system", "placidus", "--json")
	require.NoError(t, err)

	var chart models.BirthChartData
	require.NoError(t, json.Unmarshal([]byte(out), &chart))
	assert.Len(t, chart.ID, 32)
	assert.Equal(t, "placidus", chart.HouseSystem)
}

func TestChartCmdZoneFromLongitude(t *testing.T) {
	out, err := run(t, "chart", "--date", "1990-07-15", "--time", "14:30", "--lat", "41.9", "--lon", "120", "--json")
	require.NoError(t, err)

	var chart models.BirthChartData
	require.NoError(t, json.Unmarshal([]byte(out), &chart))
	assert.Equal(t, "1990-07-15T06:30:00Z", chart.UTC.Format(time.RFC3339))

	out, err = run(t, "chart", "--date", "1990-07-15", "--time", "14:30", "--lat", "41.9", "--lon", "120", "--utc-offset", "0", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &chart))
	assert.Equal(t, "1990-07-15T14:30:00Z", chart.UTC.Format(time.RFC3339))
}

func TestChartCmdRejectsBadInput(t *testing.T) {
	_, err := run(t, "chart", "--date", "1990-02-30", "--lat", "0", "--lon", "0", "--timezone", "UTC", "--json=false")
	assert.ErrorContains(t, err, "date")
}

func TestSkyCmdJSON(t *testing.T) {
	out, err := run(t, "sky", "--lat", "10", "--lon", "20", "--at", "2024-03-20T03:06:00Z", "--json", "--watch=false")
	require.NoError(t, err)

	var snap models.SkySnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.InDelta(t, 2460389.629, snap.JulianDay, 0.001)
	assert.Equal(t, 10.0, snap.Latitude)
}

func TestSkyCmdTable(t *testing.T) {
	out, err := run(t, "sky", "--lat", "10", "--lon", "20", "--at", "1710903960", "--json=false", "--watch=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Sky at 2024-03-20T03:06:00Z")
	assert.Contains(t, out, "Mercury")

	_, err = run(t, "sky", "--at", "tomorrow", "--json=false", "--watch=false")
	assert.Error(t, err)
}

func TestJDCmd(t *testing.T) {
	out, err := run(t, "jd", "2000-01-01T12:00:00Z", "--reverse=false")
	require.NoError(t, err)
	assert.Equal(t, "2451545.000000\n", out)

	out, err = run(t, "jd", "--reverse", "2451545")
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01T12:00:00Z\n", out)

	_, err = run(t, "jd", "--reverse", "noon")
	assert.Error(t, err)
}
