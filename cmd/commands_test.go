package cmd

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/eartrainer/internal/analysis"
	"github.com/zjrosen/eartrainer/internal/audio"
	"github.com/zjrosen/eartrainer/internal/config"
	"github.com/zjrosen/eartrainer/internal/resolver"
	"github.com/zjrosen/eartrainer/internal/theory"
)

func testCommand(run func(*cobra.Command, []string) error) (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	c := &cobra.Command{Use: "test", RunE: run}
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs([]string{})
	return c, &out
}

func TestScales_ListsSpelledScales(t *testing.T) {
	c, out := testCommand(runScales)

	require.NoError(t, c.Execute())

	require.Contains(t, out.String(), "  C#/Db Major  [Db Eb F Gb Ab Bb C]\n")
	require.Contains(t, out.String(), "  C Major      [C D E F G A B]\n")
	require.NotContains(t, out.String(), "MIDI")
}

func TestScales_ExportsMIDI(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "midi")
	scalesMIDIDir = dir
	t.Cleanup(func() { scalesMIDIDir = "" })
	c, out := testCommand(runScales)

	require.NoError(t, c.Execute())

	require.Contains(t, out.String(), "Wrote 12 MIDI files to "+dir)
	require.FileExists(t, filepath.Join(dir, "Db_major.mid"))
}

func TestInit_WritesProjectConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	c, out := testCommand(runInit)

	require.NoError(t, c.Execute())
	require.Equal(t, "Created .eartrainer/config.yaml\n", out.String())
	require.FileExists(t, filepath.Join(".eartrainer", "config.yaml"))

	c, _ = testCommand(runInit)
	err := c.Execute()
	require.ErrorContains(t, err, "config file already exists")
}

func TestSettings_SetsNameAndLists(t *testing.T) {
	cfg = config.Defaults()
	cfg.DBPath = filepath.Join(t.TempDir(), "eartrainer.db")
	t.Cleanup(func() { settingsName = "" })

	c, out := testCommand(runSettings)
	c.Flags().StringVar(&settingsName, "name", "", "")
	c.SetArgs([]string{"--name", "  Ada\x07 "})
	require.NoError(t, c.Execute())

	require.Contains(t, out.String(), `Player name set to "Ada"`)
	require.Contains(t, out.String(), "  et_diatonic_major_player_name  Ada")

	c, out = testCommand(runSettings)
	c.Flags().StringVar(&settingsName, "name", "", "")
	require.NoError(t, c.Execute())
	require.NotContains(t, out.String(), "Player name set")
	require.Contains(t, out.String(), "et_diatonic_major_player_name")
}

func TestSettings_Empty(t *testing.T) {
	cfg = config.Defaults()
	cfg.DBPath = filepath.Join(t.TempDir(), "eartrainer.db")

	c, out := testCommand(runSettings)
	c.Flags().StringVar(&settingsName, "name", "", "")
	require.NoError(t, c.Execute())

	require.Contains(t, out.String(), "(none)")
}

// toneDecoder ignores the file contents and returns a one second sine at
// freq.
type toneDecoder struct {
	freq float64
}

func (d toneDecoder) Decode(context.Context, []byte) (*audio.Buffer, error) {
	const rate = 44100
	data := make([]float32, rate)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*d.freq*float64(i)/rate))
	}
	return &audio.Buffer{SampleRate: rate, Channels: 1, Data: data}, nil
}

func TestReportSamples(t *testing.T) {
	res := resolver.New(resolver.Config{
		Fetcher: &resolver.FSFetcher{FS: fstest.MapFS{
			"audio/c3.mp3": &fstest.MapFile{Data: []byte("c3")},
		}},
		Decoder: toneDecoder{freq: theory.Frequency(theory.PitchOf(0, 3))},
		Dir:     "audio",
	})
	analyzer, err := analysis.New()
	require.NoError(t, err)

	c, out := testCommand(nil)
	require.NoError(t, reportSamples(context.Background(), c, res, analyzer))

	require.Contains(t, out.String(), "  missing  audio/csharp3.mp3\n")
	require.Contains(t, out.String(), "  checked  audio/c3.mp3  expected 130.8Hz")
	require.Contains(t, out.String(), "35 of 36 samples found in audio, 0 out of tune\n")
}

func TestReportSamples_WithoutAnalysis(t *testing.T) {
	res := resolver.New(resolver.Config{
		Fetcher: &resolver.FSFetcher{FS: fstest.MapFS{}},
		Decoder: toneDecoder{freq: 440},
		Dir:     "audio",
	})

	c, out := testCommand(nil)
	require.NoError(t, reportSamples(context.Background(), c, res, nil))

	require.Contains(t, out.String(), "0 of 36 samples found in audio\n")
	require.NotContains(t, out.String(), "checked")
}

func TestSampleSource(t *testing.T) {
	_, dir, err := sampleSource("audio/")
	require.NoError(t, err)
	require.Equal(t, "audio", dir)

	abs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(abs, "c3.mp3"), []byte("x"), 0600))
	fsys, dir, err := sampleSource(abs)
	require.NoError(t, err)
	require.Equal(t, "/"+filepath.ToSlash(abs[1:]), dir)

	data, err := (&resolver.FSFetcher{FS: fsys}).Fetch(context.Background(), dir+"/c3.mp3")
	require.NoError(t, err)
	require.Equal(t, []byte("x"), data)
}

func TestCueEvents(t *testing.T) {
	c := config.Defaults()
	c.Cues["correct"] = config.CueConfig{Enabled: false}

	events := cueEvents(c)

	require.Len(t, events, 4)
	require.False(t, events["correct"].Enabled)
	require.True(t, events["select"].Enabled)
}
