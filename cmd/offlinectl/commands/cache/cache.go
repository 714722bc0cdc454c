// Package cache implements the offlinectl cache commands.
package cache

import (
	"fmt"
	"os"

	"github.com/offlinefoundation/core/cmd/offlinectl/cmdutil"
	"github.com/offlinefoundation/core/pkg/apiclient"
	"github.com/spf13/cobra"
)

// Cmd is the cache command group.
var Cmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the response cache",
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-namespace cache occupancy and hit rate",
	RunE:  runStats,
}

func init() {
	Cmd.AddCommand(statsCmd)
}

type statsList []apiclient.NamespaceStats

func (sl statsList) Headers() []string {
	return []string{"NAMESPACE", "BYTES", "BUDGET", "HITS", "MISSES", "HIT RATE"}
}

func (sl statsList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, s := range sl {
		rows = append(rows, []string{
			s.Namespace,
			fmt.Sprintf("%d", s.ByteSize),
			fmt.Sprintf("%d", s.BudgetBytes),
			fmt.Sprintf("%d", s.Hits),
			fmt.Sprintf("%d", s.Misses),
			fmt.Sprintf("%.1f%%", s.HitRate*100),
		})
	}
	return rows
}

func runStats(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	stats, err := client.CacheStats()
	if err != nil {
		return fmt.Errorf("failed to fetch cache stats: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, stats, len(stats) == 0, "No cache namespaces registered.", statsList(stats))
}
