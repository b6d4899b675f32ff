package game

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/eartrainer/internal/settings"
	"github.com/zjrosen/eartrainer/internal/theory"
)

// ScoreCard is the exportable summary of a game.
type ScoreCard struct {
	Name      string `yaml:"name,omitempty"`
	Scale     string `yaml:"scale"`
	Range     string `yaml:"range"`
	Correct   int    `yaml:"correct"`
	Incorrect int    `yaml:"incorrect"`
	Total     int    `yaml:"total"`
	Accuracy  string `yaml:"accuracy"`
}

// ScoreCard summarizes the current score for the named player.
func (s *Session) ScoreCard(name string) ScoreCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ScoreCard{
		Name:      settings.SafeText(name),
		Scale:     theory.KeyLabel(s.key),
		Range:     s.rangeMode.Label(),
		Correct:   s.score.Correct,
		Incorrect: s.score.Incorrect,
		Total:     s.score.Total(),
		Accuracy:  s.score.AccuracyString(),
	}
}

// FileBase is the file name, without extension, the card is saved under.
func (c ScoreCard) FileBase() string {
	if part := settings.SanitizeFilenamePart(c.Name); part != "" {
		return part + "_scorecard"
	}
	return "scorecard"
}

// WriteYAML encodes the card to w.
func (c ScoreCard) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding scorecard: %w", err)
	}
	return enc.Close()
}

// Save writes the card to path. When path is an existing directory the card
// is written there as FileBase()+".yaml". It returns the written path.
func (c ScoreCard) Save(path string) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, c.FileBase()+".yaml")
	}
	f, err := os.Create(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return "", fmt.Errorf("creating scorecard: %w", err)
	}
	if err := c.WriteYAML(f); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing scorecard: %w", err)
	}
	return path, nil
}
