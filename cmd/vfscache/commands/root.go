// Package commands implements the vfscache maintenance CLI.
//
// The store is an embedded library; these commands exist to inspect and
// repair store files offline: print statistics, dump the maps, audit the
// index against memory, and extract asset payloads to host files.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hollowlog/vfscache/internal/logger"
	"github.com/hollowlog/vfscache/pkg/config"
	"github.com/hollowlog/vfscache/pkg/vfs"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile   string
	indexPath string
	dataPath  string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vfscache",
	Short: "vfscache - embedded asset store maintenance tool",
	Long: `vfscache inspects and maintains asset store files: a data file holding
raw payload bytes and an index file describing which extent each asset owns.

The store itself is embedded in a host application; this tool opens the
files read-only with a shared lock, so it refuses to run while a writer
holds the store.

Use "vfscache [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		PrintErr("%v", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/vfscache/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&indexPath, "index", "", "index file path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "data file path (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(extractCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// loadConfig loads the configuration and applies the path override flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if indexPath != "" {
		cfg.Store.IndexPath = indexPath
	}
	if dataPath != "" {
		cfg.Store.DataPath = dataPath
	}
	return cfg, nil
}

// openStore loads config, initializes logging, and opens the store files
// read-only with a shared lock. The writer holds an exclusive lock, so the
// open fails while a writer has the store.
func openStore() (*vfs.VFS, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, err
	}

	store, err := vfs.Open(cfg.Store.IndexPath, cfg.Store.DataPath, vfs.Options{
		ReadOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open store (index %s, data %s): %w",
			cfg.Store.IndexPath, cfg.Store.DataPath, err)
	}
	return store, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "vfscache %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}
