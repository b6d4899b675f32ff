package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/eartrainer/internal/analysis"
	"github.com/zjrosen/eartrainer/internal/game"
	"github.com/zjrosen/eartrainer/internal/resolver"
	"github.com/zjrosen/eartrainer/internal/theory"
)

var samplesAnalyze bool

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Check the sample directory",
	Long: `Resolve every pitch the game can play and report the samples that are
missing (those notes fall back to synthesized tones), then check that each
sample's loudest frequency matches its note. Use --analyze=false to skip the
check.`,
	RunE: runSamples,
}

func init() {
	samplesCmd.Flags().BoolVar(&samplesAnalyze, "analyze", true, "check sample pitch with an FFT")
	rootCmd.AddCommand(samplesCmd)
}

// samplePitches are all pitches a session can request.
func samplePitches() []theory.Pitch {
	octaves := game.RangeMulti.Octaves()
	out := make([]theory.Pitch, 0, 12*len(octaves))
	for _, o := range octaves {
		for pc := range 12 {
			out = append(out, theory.PitchOf(pc, o))
		}
	}
	return out
}

func runSamples(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	res, err := newResolver(cfg)
	if err != nil {
		return err
	}
	var analyzer *analysis.Analyzer
	if samplesAnalyze {
		if analyzer, err = analysis.New(); err != nil {
			return err
		}
	}
	return reportSamples(ctx, cmd, res, analyzer)
}

func reportSamples(ctx context.Context, cmd *cobra.Command, res *resolver.Resolver, analyzer *analysis.Analyzer) error {
	out := cmd.OutOrStdout()
	pitches := samplePitches()

	missing, off := 0, 0
	for _, p := range pitches {
		r := res.Resolve(ctx, p)
		if r.Missing() {
			missing++
			fmt.Fprintf(out, "  missing  %s\n", r.Locator)
			continue
		}
		if analyzer == nil {
			continue
		}
		result, err := analyzer.CheckPitch(r.Buffer, p)
		if err != nil {
			off++
			fmt.Fprintf(out, "  silent   %s\n", r.Locator)
			continue
		}
		if !result.OK {
			off++
		}
		fmt.Fprintf(out, "  checked  %s  %s\n", r.Locator, result)
	}

	fmt.Fprintf(out, "%d of %d samples found in %s", len(pitches)-missing, len(pitches), res.Dir())
	if analyzer != nil {
		fmt.Fprintf(out, ", %d out of tune", off)
	}
	fmt.Fprintln(out)
	return nil
}
