package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/typerace/internal/generator"
	"github.com/verte-zerg/typerace/internal/model"
)

// Definition describes a competition in a YAML file.
//
//	id: friday
//	title: Friday sprint
//	mode: jumble-word
//	words: [keyboard, monitor]
//	duration: 2m
//	start_in: 30s
type Definition struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Mode     string        `yaml:"mode"`
	Text     string        `yaml:"text"`
	Words    []string      `yaml:"words"`
	Count    int           `yaml:"count"`
	Duration time.Duration `yaml:"duration"`
	StartIn  time.Duration `yaml:"start_in"`
}

// DefaultWordCount is the generated text length when neither text nor words are given.
const DefaultWordCount = 40

// LoadDefinitions reads one or more YAML documents from path.
func LoadDefinitions(path string) ([]Definition, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only definition file.
			_ = cerr
		}
	}()

	var defs []Definition
	dec := yaml.NewDecoder(file)
	for {
		var d Definition
		if err := dec.Decode(&d); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		defs = append(defs, d)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no competitions defined in %s", path)
	}
	return defs, nil
}

// Competition builds the stored record. Missing text is generated from the
// word list; jumble answers are scrambled.
func (d Definition) Competition(now time.Time, gen *generator.Generator, wordList []string) (model.Competition, error) {
	mode, err := model.ParseMode(d.Mode)
	if err != nil {
		return model.Competition{}, err
	}
	if d.Duration <= 0 {
		return model.Competition{}, fmt.Errorf("competition %q: duration must be > 0", d.ID)
	}
	if d.StartIn < 0 {
		return model.Competition{}, fmt.Errorf("competition %q: start_in must be >= 0", d.ID)
	}
	id := strings.TrimSpace(d.ID)
	if id == "" {
		id = uuid.NewString()
	}
	title := d.Title
	if title == "" {
		title = id
	}
	count := d.Count
	if count <= 0 {
		count = DefaultWordCount
	}

	c := model.Competition{
		ID:        id,
		Title:     title,
		Mode:      mode,
		Text:      strings.TrimSpace(d.Text),
		Duration:  d.Duration,
		StartAt:   now.Add(d.StartIn),
		CreatedAt: now,
	}
	if mode == model.ModeJumbleWord {
		answers := d.Words
		if len(answers) == 0 && c.Text != "" {
			answers = strings.Fields(c.Text)
		}
		if len(answers) == 0 {
			answers = gen.Generate(wordList, count, 0, 0, nil)
		}
		c.Jumble = gen.Jumble(answers)
		if len(c.Jumble) == 0 {
			return model.Competition{}, fmt.Errorf("competition %q: jumble-word mode needs words", id)
		}
		answerText := make([]string, 0, len(c.Jumble))
		for _, w := range c.Jumble {
			answerText = append(answerText, w.Answer)
		}
		c.Text = strings.Join(answerText, " ")
		return c, nil
	}
	if c.Text == "" && len(d.Words) > 0 {
		c.Text = strings.Join(d.Words, " ")
	}
	if c.Text == "" {
		c.Text = gen.Text(wordList, count, 0, 0, nil)
	}
	if c.Text == "" {
		return model.Competition{}, fmt.Errorf("competition %q: no text and no word list", id)
	}
	return c, nil
}

// Seed stores every definition, replacing competitions with the same id.
func (s *Service) Seed(ctx context.Context, defs []Definition, gen *generator.Generator, wordList []string) ([]model.Competition, error) {
	now := s.clock.Now()
	out := make([]model.Competition, 0, len(defs))
	for _, d := range defs {
		c, err := d.Competition(now, gen, wordList)
		if err != nil {
			return nil, err
		}
		if err := s.store.SaveCompetition(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to save competition %q: %w", c.ID, err)
		}
		s.log.Info().
			Str("competition", c.ID).
			Str("mode", string(c.Mode)).
			Dur("duration", c.Duration).
			Time("start_at", c.StartAt).
			Msg("competition ready")
		out = append(out, c)
	}
	return out, nil
}
