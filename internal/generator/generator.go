// Package generator builds competition texts and jumbled words.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/typerace/internal/model"
)

// Generator produces randomized typing text.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate selects words uniformly and applies caps/punctuation rules.
func (g *Generator) Generate(words []string, count int, capsPct, punctPct float64, punctSet []rune) []string {
	if len(words) == 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, capsPct)
		word = applyPunct(g.rnd, word, punctPct, punctSet)
		result = append(result, word)
	}
	return result
}

// Text joins count generated words into a single line.
func (g *Generator) Text(words []string, count int, capsPct, punctPct float64, punctSet []rune) string {
	return strings.Join(g.Generate(words, count, capsPct, punctPct, punctSet), " ")
}

// Scramble shuffles the letters of word. Words with at least two distinct
// letters never come back unchanged.
func (g *Generator) Scramble(word string) string {
	runes := []rune(word)
	if !hasDistinct(runes) {
		return word
	}
	for {
		out := make([]rune, len(runes))
		copy(out, runes)
		g.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		if string(out) != word {
			return string(out)
		}
	}
}

// Jumble scrambles each answer, keeping the answers in order.
func (g *Generator) Jumble(answers []string) []model.JumbleWord {
	result := make([]model.JumbleWord, 0, len(answers))
	for _, answer := range answers {
		answer = strings.TrimSpace(answer)
		if answer == "" {
			continue
		}
		result = append(result, model.JumbleWord{Scrambled: g.Scramble(answer), Answer: answer})
	}
	return result
}

func hasDistinct(runes []rune) bool {
	for i := 1; i < len(runes); i++ {
		if runes[i] != runes[0] {
			return true
		}
	}
	return false
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
