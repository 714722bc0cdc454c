// Package commands implements the CLI commands for the offlinectl client.
package commands

import (
	"os"

	"github.com/offlinefoundation/core/cmd/offlinectl/cmdutil"
	cachecmd "github.com/offlinefoundation/core/cmd/offlinectl/commands/cache"
	conflictcmd "github.com/offlinefoundation/core/cmd/offlinectl/commands/conflict"
	initcmd "github.com/offlinefoundation/core/cmd/offlinectl/commands/initcmd"
	overlaycmd "github.com/offlinefoundation/core/cmd/offlinectl/commands/overlay"
	queuecmd "github.com/offlinefoundation/core/cmd/offlinectl/commands/queue"
	statuscmd "github.com/offlinefoundation/core/cmd/offlinectl/commands/status"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "offlinectl",
	Short: "Offline Foundation control client",
	Long: `offlinectl is the command-line client for the offline foundation daemon.

Use this tool to inspect and operate the write replay queue, response
cache, and conflict resolution engine exposed by a running daemon.

Use "offlinectl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("server", cmdutil.DefaultServerURL, "Daemon API URL")
	rootCmd.PersistentFlags().String("token", "", "Bearer token, if the daemon requires one")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(statuscmd.Cmd)
	rootCmd.AddCommand(queuecmd.Cmd)
	rootCmd.AddCommand(cachecmd.Cmd)
	rootCmd.AddCommand(conflictcmd.Cmd)
	rootCmd.AddCommand(overlaycmd.Cmd)
	rootCmd.AddCommand(initcmd.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
