// Package conflict implements the offlinectl conflicts commands.
package conflict

import (
	"fmt"
	"os"

	"github.com/offlinefoundation/core/cmd/offlinectl/cmdutil"
	"github.com/offlinefoundation/core/pkg/apiclient"
	"github.com/spf13/cobra"
)

// Cmd is the conflicts command group.
var Cmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Inspect and resolve write-write conflicts",
}

var listStatus string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conflicts",
	Long: `List conflicts, defaulting to those awaiting a user decision.

Examples:
  offlinectl conflicts list
  offlinectl conflicts list --status resolved`,
	RunE: runList,
}

var resolveForce bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <conflict-id> <keep_mine|use_theirs|merge|force_save>",
	Short: "Resolve a conflict awaiting a user decision",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (defaults to awaiting_user)")
	resolveCmd.Flags().BoolVarP(&resolveForce, "force", "f", false, "Skip confirmation")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(resolveCmd)
}

type conflictList []apiclient.ConflictRecord

func (cl conflictList) Headers() []string {
	return []string{"ID", "OPERATION ID", "AUTH SCOPE", "STATUS", "MERGE AVAILABLE", "TIMEOUTS"}
}

func (cl conflictList) Rows() [][]string {
	rows := make([][]string, 0, len(cl))
	for _, r := range cl {
		rows = append(rows, []string{
			r.ID, r.OperationID, r.AuthScope, r.Status,
			cmdutil.EmptyOr(boolStr(r.MergeAvailable), "-"),
			fmt.Sprintf("%d", r.TimeoutCount),
		})
	}
	return rows
}

func boolStr(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func runList(cmd *cobra.Command, args []string) error {
	client := cmdutil.GetClient()

	records, err := client.ListConflicts(listStatus)
	if err != nil {
		return fmt.Errorf("failed to list conflicts: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, records, len(records) == 0, "No conflicts awaiting resolution.", conflictList(records))
}

var validChoices = map[string]bool{
	"keep_mine": true, "use_theirs": true, "merge": true, "force_save": true,
}

func runResolve(cmd *cobra.Command, args []string) error {
	id, choice := args[0], args[1]
	if !validChoices[choice] {
		return fmt.Errorf("invalid choice %q (must be keep_mine, use_theirs, merge, or force_save)", choice)
	}

	client := cmdutil.GetClient()

	return cmdutil.RunActionWithConfirmation(fmt.Sprintf("Resolve conflict '%s' with '%s'?", id, choice), resolveForce, func() error {
		if err := client.ResolveConflict(id, choice); err != nil {
			return fmt.Errorf("failed to resolve conflict: %w", err)
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Conflict '%s' resolved with '%s'", id, choice))
		return nil
	})
}
