package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tapeview/tapeview/internal/config"
)

var dirsCmd = &cobra.Command{
	Use:   "dirs",
	Short: "Print directories used by tapeview",
	Long: `Print the directories where tapeview stores its configuration and data files.
This includes the global configuration directory and data directory.`,
	Example: `
# Print all directories
tapeview dirs

# Print only the config directory
tapeview dirs --config

# Print only the data directory
tapeview dirs --data
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		configOnly, _ := cmd.Flags().GetBool("config")
		dataOnly, _ := cmd.Flags().GetBool("data")

		if configOnly && dataOnly {
			return fmt.Errorf("cannot specify both --config and --data flags")
		}

		configDir := filepath.Dir(config.GlobalConfig())
		dataDir := filepath.Dir(config.GlobalConfigData())

		if configOnly {
			fmt.Println(configDir)
			return nil
		}

		if dataOnly {
			fmt.Println(dataDir)
			return nil
		}

		// Print both by default
		fmt.Printf("Config directory: %s\n", configDir)
		fmt.Printf("Data directory:   %s\n", dataDir)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dirsCmd)
	dirsCmd.Flags().Bool("config", false, "Print only the config directory")
	dirsCmd.Flags().Bool("data", false, "Print only the data directory")
}
