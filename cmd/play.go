package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/eartrainer/internal/game"
	"github.com/zjrosen/eartrainer/internal/ui/play"
)

var (
	playKey       string
	playRange     string
	playScorecard string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the game in the terminal",
	Long: `Start an ear-training session. Each round plays one note of the
chosen major scale; answer with its degree (1-7) or its letter (a-g).

Press ? during the game for the list of keys.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&playKey, "key", "k", "", "major key to start in (default from config or last session)")
	playCmd.Flags().StringVarP(&playRange, "range", "r", "", `range mode: "one" or "multi"`)
	playCmd.Flags().StringVar(&playScorecard, "scorecard", "", "save a YAML scorecard to this file or directory on quit")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	prefs, db, err := openPreferences(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	stack, err := newAudioStack(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer stack.Close()

	key := prefs.LoadKey(ctx)
	if playKey != "" {
		key = playKey
	}
	mode := game.ParseRangeMode(prefs.LoadRange(ctx))
	if playRange != "" {
		mode = game.ParseRangeMode(playRange)
	}

	frames := play.NewFrameSync()
	sess, err := game.New(game.Config{
		Player:     stack.scheduler,
		Cues:       stack.cues,
		Prefs:      prefs,
		Key:        key,
		Range:      mode,
		RefFadeOut: cfg.Reference.FadeOut,
		FrameSync:  frames.Wait,
	})
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	// Playback started from the screen ends with it.
	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		play.New(playCtx, sess, stack.cues),
		tea.WithContext(playCtx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	frames.Attach(p.Send)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running game: %w", err)
	}
	cancel()

	if playScorecard != "" {
		card := sess.ScoreCard(prefs.LoadName(ctx))
		path, err := card.Save(playScorecard)
		if err != nil {
			return fmt.Errorf("saving scorecard: %w", err)
		}
		fmt.Fprintf(out, "Scorecard saved to %s\n", path)
	}
	return nil
}
