// Package cmd implements the eartrainer command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/eartrainer/internal/config"
	"github.com/zjrosen/eartrainer/internal/log"
	"github.com/zjrosen/eartrainer/internal/tracing"
)

var (
	version = "dev"

	cfgFile string
	cfg     config.Config

	cleanups []func()
)

var rootCmd = &cobra.Command{
	Use:   "eartrainer",
	Short: "Learn to hear the notes of a major scale",
	Long: `eartrainer plays a note from the major scale you choose and asks you
to name it. Samples are read from audio/<stem><octave>.mp3; missing
samples are replaced with synthesized tones.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default .eartrainer/config.yaml or ~/.config/eartrainer/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, used, err := config.Load(viper.New(), cfgFile)
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = loaded

	if cfg.LogPath != "" {
		closeLog, err := log.Init(cfg.LogPath)
		if err != nil {
			return err
		}
		log.SetLevel(log.ParseLevel(cfg.LogLevel))
		cleanups = append(cleanups, closeLog)
	}
	log.Info(log.CatCLI, "Starting", "command", cmd.Name(), "version", version, "config", used)

	shutdown, err := tracing.Init(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		File:    cfg.Tracing.File,
		Version: version,
	})
	if err != nil {
		return err
	}
	cleanups = append(cleanups, func() {
		if err := shutdown(context.Background()); err != nil {
			log.ErrorErr(log.CatCLI, "Failed to flush traces", err)
		}
	})
	return nil
}

func teardown(*cobra.Command, []string) error {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
	return nil
}

// commandContext returns the command's context, or Background when the
// command was run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
