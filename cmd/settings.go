package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var settingsName string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change saved settings",
	Long: `Display the settings stored in the eartrainer database. Use --name to
set the player name printed on scorecards.`,
	RunE: runSettings,
}

func init() {
	settingsCmd.Flags().StringVar(&settingsName, "name", "", "player name for scorecards")
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	prefs, db, err := openPreferences(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if cmd.Flags().Changed("name") {
		stored := prefs.SaveName(ctx, settingsName)
		fmt.Fprintf(out, "Player name set to %q\n", stored)
	}

	all, err := db.AllSettings(ctx)
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	fmt.Fprintf(out, "Settings (%s):\n", cfg.DBPath)
	if len(all) == 0 {
		fmt.Fprintln(out, "  (none)")
		return nil
	}
	maxLen := 0
	for _, s := range all {
		maxLen = max(maxLen, len(s.Key))
	}
	for _, s := range all {
		fmt.Fprintf(out, "  %-*s  %-12s  %s\n", maxLen, s.Key, s.Value,
			time.Unix(s.UpdatedAt, 0).Format(time.DateTime))
	}
	return nil
}
