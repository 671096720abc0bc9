package commands

import (
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the asset map and free map",
	Long: `Open the store files read-only and log every file block and free
block. Useful when chasing extent accounting bugs by hand.`,
	RunE: runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	store.DumpMap()
	store.DumpLockCounts()
	return nil
}
