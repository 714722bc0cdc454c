// Package queue implements the offlinectl queue commands.
package queue

import (
	"fmt"
	"os"

	"github.com/offlinefoundation/core/cmd/offlinectl/cmdutil"
	"github.com/offlinefoundation/core/pkg/apiclient"
	"github.com/spf13/cobra"
)

// Cmd is the queue command group.
var Cmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and operate the write replay queue",
}

var listStatus string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued operations",
	Long: `List operations in the write replay queue, optionally filtered by
status: pending, in_flight, conflict, dead_letter, or done.

Examples:
  offlinectl queue list
  offlinectl queue list --status dead_letter
  offlinectl queue list -o json`,
	RunE: runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue depth by status",
	RunE:  runStats,
}

var requeueForce bool

var requeueCmd = &cobra.Command{
	Use:   "requeue <operation-id>",
	Short: "Move an operation back to pending for another drain attempt",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequeue,
}

var discardForce bool

var discardCmd = &cobra.Command{
	Use:   "discard <operation-id>",
	Short: "Permanently drop a queued operation without replaying it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscard,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")
	requeueCmd.Flags().BoolVarP(&requeueForce, "force", "f", false, "Skip confirmation")
	discardCmd.Flags().BoolVarP(&discardForce, "force", "f", false, "Skip confirmation")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(statsCmd)
	Cmd.AddCommand(requeueCmd)
	Cmd.AddCommand(discardCmd)
}

// operationList renders a slice of operations as a table.
type operationList []apiclient.Operation

func (ol operationList) Headers() []string {
	return []string{"ID", "METHOD", "URL", "AUTH SCOPE", "STATUS", "ATTEMPTS", "LAST ERROR"}
}

func (ol operationList) Rows() [][]string {
	rows := make([][]string, 0, len(ol))
	for _, op := range ol {
		rows = append(rows, []string{
			op.ID, op.Method, op.URL, op.AuthScope, op.Status,
			fmt.Sprintf("%d", op.Attempts), cmdutil.EmptyOr(op.LastError, "-"),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	ops, err := client.ListQueue(listStatus)
	if err != nil {
		return fmt.Errorf("failed to list queued operations: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, ops, len(ops) == 0, "No queued operations found.", operationList(ops))
}

// statsRow renders QueueStats as a single-row table.
type statsRow apiclient.QueueStats

func (s statsRow) Headers() []string {
	return []string{"PENDING", "IN_FLIGHT", "CONFLICT", "DEAD_LETTER", "DONE"}
}

func (s statsRow) Rows() [][]string {
	return [][]string{{
		fmt.Sprintf("%d", s.Counts["pending"]),
		fmt.Sprintf("%d", s.Counts["in_flight"]),
		fmt.Sprintf("%d", s.Counts["conflict"]),
		fmt.Sprintf("%d", s.Counts["dead_letter"]),
		fmt.Sprintf("%d", s.Counts["done"]),
	}}
}

func runStats(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	stats, err := client.QueueStats()
	if err != nil {
		return fmt.Errorf("failed to fetch queue stats: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, stats, false, "", statsRow(stats))
}

func runRequeue(cmd *cobra.Command, args []string) error {
	id := args[0]
	client := cmdutil.GetClient()

	return cmdutil.RunActionWithConfirmation(fmt.Sprintf("Requeue operation '%s'?", id), requeueForce, func() error {
		if err := client.RequeueOperation(id); err != nil {
			return fmt.Errorf("failed to requeue operation: %w", err)
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Operation '%s' requeued", id))
		return nil
	})
}

func runDiscard(cmd *cobra.Command, args []string) error {
	id := args[0]
	client := cmdutil.GetClient()

	return cmdutil.RunActionWithConfirmation(fmt.Sprintf("Discard operation '%s'? This cannot be undone.", id), discardForce, func() error {
		if err := client.DiscardOperation(id); err != nil {
			return fmt.Errorf("failed to discard operation: %w", err)
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Operation '%s' discarded", id))
		return nil
	})
}
