// Package status implements the offlinectl status command.
package status

import (
	"fmt"
	"os"

	"github.com/offlinefoundation/core/cmd/offlinectl/cmdutil"
	"github.com/spf13/cobra"
)

// Cmd is the status command.
var Cmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon readiness and subsystem state",
	Long: `Report the daemon's readiness: network quality, circuit breaker
state, and pending replay queue depth.`,
	RunE: runStatus,
}

// statusRow renders ReadinessStatus as a single-row table for consistency
// with the rest of offlinectl's list-style output, even though there is
// only ever one row.
type statusRow struct {
	DetectorAttached bool
	NetworkQuality   string
	BreakerState     string
	QueueDepth       int
}

func (s statusRow) Headers() []string {
	return []string{"DETECTOR", "NETWORK QUALITY", "BREAKER STATE", "QUEUE DEPTH"}
}

func (s statusRow) Rows() [][]string {
	return [][]string{{
		cmdutil.EmptyOr(boolStr(s.DetectorAttached), "-"),
		cmdutil.EmptyOr(s.NetworkQuality, "-"),
		cmdutil.EmptyOr(s.BreakerState, "-"),
		fmt.Sprintf("%d", s.QueueDepth),
	}}
}

func boolStr(b bool) string {
	if b {
		return "attached"
	}
	return "absent"
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	readiness, err := client.Readiness()
	if err != nil {
		return fmt.Errorf("failed to fetch daemon status: %w", err)
	}

	row := statusRow{
		DetectorAttached: readiness.DetectorAttached,
		NetworkQuality:   readiness.NetworkQuality,
		BreakerState:     readiness.BreakerState,
		QueueDepth:       readiness.QueueDepth,
	}

	return cmdutil.PrintOutput(os.Stdout, readiness, false, "", row)
}
