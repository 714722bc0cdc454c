// Package initcmd implements the offlinectl init command.
package initcmd

import (
	"fmt"

	"github.com/offlinefoundation/core/cmd/offlinectl/cmdutil"
	"github.com/offlinefoundation/core/pkg/config"
	"github.com/spf13/cobra"
)

var (
	force  bool
	toPath string
)

// Cmd bootstraps a default configuration file for offlinesvc.
var Cmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default offlinesvc configuration file",
	Long: `Write a default configuration file with sensible defaults for every
subsystem: logging, telemetry, network detector, circuit breaker, replay
queue, cache, conflict engine, overlay, metrics, and the API server.

By default this writes to the platform-standard config directory. Use
--path to write elsewhere.`,
	RunE: runInit,
}

func init() {
	Cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration file")
	Cmd.Flags().StringVar(&toPath, "path", "", "Write the configuration file to this path instead of the default location")
}

func runInit(cmd *cobra.Command, args []string) error {
	if toPath != "" {
		if err := config.InitConfigToPath(toPath, force); err != nil {
			return err
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Configuration file written to %s", toPath))
		return nil
	}

	path, err := config.InitConfig(force)
	if err != nil {
		return err
	}
	cmdutil.PrintSuccess(fmt.Sprintf("Configuration file written to %s", path))
	return nil
}
