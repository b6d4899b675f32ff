package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/eartrainer/internal/midiexport"
	"github.com/zjrosen/eartrainer/internal/theory"
)

var scalesMIDIDir string

var scalesCmd = &cobra.Command{
	Use:   "scales",
	Short: "List the spelled major scales",
	Long: `Display the major scale of every selectable key, spelled so each letter
appears once. With --midi, also write each key's reference scale as a
standard MIDI file.`,
	RunE: runScales,
}

func init() {
	scalesCmd.Flags().StringVar(&scalesMIDIDir, "midi", "", "write <key>_major.mid reference scales into this directory")
	rootCmd.AddCommand(scalesCmd)
}

func runScales(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	opts := theory.KeyOptions()

	maxLen := 0
	for _, o := range opts {
		maxLen = max(maxLen, len(theory.KeyLabel(o.Key)))
	}
	for _, o := range opts {
		scale, err := theory.SpellMajorScale(o.Key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-*s  %v\n", maxLen, theory.KeyLabel(o.Key), scale.Names())
	}

	if scalesMIDIDir == "" {
		return nil
	}
	written, err := midiexport.ExportAll(scalesMIDIDir)
	if err != nil {
		return fmt.Errorf("exporting reference scales: %w", err)
	}
	fmt.Fprintf(out, "\nWrote %d MIDI files to %s\n", len(written), scalesMIDIDir)
	return nil
}
