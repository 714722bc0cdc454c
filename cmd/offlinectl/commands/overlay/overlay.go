// Package overlay implements the offlinectl overlay commands.
package overlay

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/offlinefoundation/core/cmd/offlinectl/cmdutil"
	"github.com/offlinefoundation/core/pkg/apiclient"
	"github.com/spf13/cobra"
)

// Cmd is the overlay command group.
var Cmd = &cobra.Command{
	Use:   "overlay",
	Short: "Inspect and replace the persisted floating overlay layout",
}

var getCmd = &cobra.Command{
	Use:   "get <auth-scope>",
	Short: "Fetch the persisted popup layout for an auth scope",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var putFile string

var putCmd = &cobra.Command{
	Use:   "put <auth-scope>",
	Short: "Replace the persisted popup layout for an auth scope",
	Long: `Replace the persisted popup layout for an auth scope by reading a
Document JSON payload from --file (or stdin if omitted).`,
	Args: cobra.ExactArgs(1),
	RunE: runPut,
}

func init() {
	putCmd.Flags().StringVar(&putFile, "file", "", "Path to a JSON document (defaults to stdin)")

	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(putCmd)
}

type popupList []apiclient.OverlayPopup

func (pl popupList) Headers() []string {
	return []string{"ID", "PARENT ID", "FOLDER ID", "LEVEL", "SCREEN X", "SCREEN Y"}
}

func (pl popupList) Rows() [][]string {
	rows := make([][]string, 0, len(pl))
	for _, p := range pl {
		rows = append(rows, []string{
			p.ID, cmdutil.EmptyOr(p.ParentID, "-"), cmdutil.EmptyOr(p.FolderID, "-"),
			fmt.Sprintf("%d", p.Level),
			fmt.Sprintf("%.1f", p.ScreenPosition.X),
			fmt.Sprintf("%.1f", p.ScreenPosition.Y),
		})
	}
	return rows
}

func runGet(cmd *cobra.Command, args []string) error {
	authScope := args[0]
	client := cmdutil.GetClient()

	doc, err := client.GetOverlay(authScope)
	if err != nil {
		return fmt.Errorf("failed to fetch overlay document: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, doc, len(doc.Popups) == 0, "No popups persisted for this auth scope.", popupList(doc.Popups))
}

func runPut(cmd *cobra.Command, args []string) error {
	authScope := args[0]

	var raw []byte
	var err error
	if putFile != "" {
		raw, err = os.ReadFile(putFile)
	} else {
		raw, err = readAllStdin()
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	var doc apiclient.OverlayDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid overlay document: %w", err)
	}

	client := cmdutil.GetClient()
	saved, err := client.PutOverlay(authScope, doc)
	if err != nil {
		return fmt.Errorf("failed to save overlay document: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("Overlay document for '%s' saved (revision %d)", authScope, saved.Revision))
	return nil
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
