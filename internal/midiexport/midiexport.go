// Package midiexport writes reference scales as Standard MIDI Files.
package midiexport

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/zjrosen/eartrainer/internal/theory"
	"github.com/zjrosen/eartrainer/internal/voice"
)

const (
	// TicksPerQuarter is the file resolution.
	TicksPerQuarter = 480
	// Velocity matches the reference sample gain of 0.95.
	Velocity = 121
	channel  = 0
)

// BPM makes one quarter note last one reference step.
const BPM = float64(time.Minute) / float64(voice.ReferenceStep)

// MIDINote converts a pitch to a MIDI key number (A4 = 57 = MIDI 69).
func MIDINote(p theory.Pitch) uint8 {
	return uint8(min(max(int(p)+12, 0), 127))
}

func ticks(d time.Duration) uint32 {
	return uint32(d * TicksPerQuarter / voice.ReferenceStep)
}

type event struct {
	at  uint32
	on  bool
	key uint8
}

// ReferenceScale builds a format-1 file with a conductor track and one
// note track playing the scale's reference run from voice.ReferenceOctave.
func ReferenceScale(scale *theory.Scale) (*smf.SMF, error) {
	s := smf.NewSMF1()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var conductor smf.Track
	conductor.Add(0, smf.MetaTrackSequenceName(theory.KeyLabel(scale.Key)))
	conductor.Add(0, smf.MetaMeter(4, 4))
	conductor.Add(0, smf.MetaTempo(BPM))
	conductor.Close(0)
	if err := s.Add(conductor); err != nil {
		return nil, fmt.Errorf("adding conductor track: %w", err)
	}

	pitches := scale.ReferencePitches(voice.ReferenceOctave)
	events := make([]event, 0, 2*len(pitches))
	for i, p := range pitches {
		start := ticks(time.Duration(i) * voice.ReferenceStep)
		length := voice.ReferenceNote
		if i == len(pitches)-1 {
			length = voice.ReferenceLastNote
		}
		key := MIDINote(p)
		events = append(events,
			event{at: start, on: true, key: key},
			event{at: start + ticks(length), on: false, key: key})
	}
	// Releases sort before attacks at the same tick.
	slices.SortStableFunc(events, func(a, b event) int {
		if c := cmp.Compare(a.at, b.at); c != 0 {
			return c
		}
		switch {
		case a.on == b.on:
			return 0
		case !a.on:
			return -1
		default:
			return 1
		}
	})

	var notes smf.Track
	notes.Add(0, smf.MetaTrackSequenceName(strings.Join(scale.Names(), " ")))
	var last uint32
	for _, e := range events {
		msg := midi.NoteOff(channel, e.key)
		if e.on {
			msg = midi.NoteOn(channel, e.key, Velocity)
		}
		notes.Add(e.at-last, msg)
		last = e.at
	}
	notes.Close(0)
	if err := s.Add(notes); err != nil {
		return nil, fmt.Errorf("adding note track: %w", err)
	}
	return s, nil
}

// WriteReferenceScale encodes the reference run of scale to w.
func WriteReferenceScale(w io.Writer, scale *theory.Scale) error {
	s, err := ReferenceScale(scale)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("writing midi: %w", err)
	}
	return nil
}

// FileName is the file a key's reference scale is exported to.
func FileName(key string) string {
	return strings.ReplaceAll(key, "#", "sharp") + "_major.mid"
}

// ExportAll writes every key option's reference scale into dir and returns
// the written paths.
func ExportAll(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	var written []string
	for _, opt := range theory.KeyOptions() {
		scale, err := theory.SpellMajorScale(opt.Key)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, FileName(opt.Key))
		if err := writeFile(path, scale); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, scale *theory.Scale) error {
	f, err := os.Create(path) //nolint:gosec // path is built from the export dir
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteReferenceScale(f, scale); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
