package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/eartrainer/internal/config"
	"github.com/zjrosen/eartrainer/internal/paths"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an eartrainer config file in the current directory",
	Long:  `Creates a .eartrainer/config.yaml file in the current directory with default settings.`,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	configPath := filepath.Join(paths.AppDirName, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := config.WriteDefaultConfig(configPath); err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configPath)
	return nil
}
