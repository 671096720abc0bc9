package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hollowlog/vfscache/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample vfscache configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/vfscache/config.yaml. Use --config to specify a custom path.

Examples:
  # Initialize with default location
  vfscache init

  # Initialize with custom path
  vfscache init --config /etc/vfscache/config.yaml

  # Force overwrite existing config
  vfscache init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to point at your store files")
	fmt.Printf("  2. Inspect the store with: vfscache stat --config %s\n", path)

	return nil
}
