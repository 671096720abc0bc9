package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var extractDir string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Write every asset payload out to host files",
	Long: `Open the store files read-only and write each live asset's payload to
<uuid>.<ext> in the output directory. Textures get a .jp2 extension so image
viewers recognize them; everything else gets .data.

Examples:
  vfscache extract
  vfscache extract --out /tmp/assets`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractDir, "out", ".", "output directory for extracted payloads")
}

func runExtract(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := os.MkdirAll(extractDir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	n, err := store.DumpFiles(extractDir)
	if err != nil {
		return err
	}

	fmt.Printf("extracted %d assets to %s\n", n, extractDir)
	return nil
}
