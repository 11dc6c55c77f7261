// Package textmode derives the target text a participant is compared against.
package textmode

import (
	"strings"

	"github.com/verte-zerg/typerace/internal/model"
)

// Adapter holds the single-pass target for a competition. The reversal for
// reverse mode is applied once, at construction.
type Adapter struct {
	mode    model.Mode
	display string
	base    []rune
}

// New builds an adapter for a mode. Jumble words are only read in jumble-word mode.
func New(mode model.Mode, canonical string, jumble []model.JumbleWord) *Adapter {
	a := &Adapter{mode: mode, display: canonical}
	switch mode {
	case model.ModeJumbleWord:
		answers := make([]string, 0, len(jumble))
		scrambled := make([]string, 0, len(jumble))
		for _, w := range jumble {
			answers = append(answers, w.Answer)
			scrambled = append(scrambled, w.Scrambled)
		}
		a.base = []rune(strings.Join(answers, " "))
		a.display = strings.Join(scrambled, " ")
	case model.ModeReverse:
		a.base = reverse([]rune(canonical))
	default:
		a.base = []rune(canonical)
	}
	return a
}

// FromDescriptor builds an adapter for a loaded competition.
func FromDescriptor(d model.Descriptor) *Adapter {
	return New(d.Mode, d.Text, d.Jumble)
}

// Mode returns the competition mode.
func (a *Adapter) Mode() model.Mode {
	return a.mode
}

// Base returns one pass of the target text.
func (a *Adapter) Base() string {
	return string(a.base)
}

// BaseLen returns the length of one pass in runes.
func (a *Adapter) BaseLen() int {
	return len(a.base)
}

// Display returns the text shown to the participant: the canonical text, or
// the scrambled words in jumble-word mode.
func (a *Adapter) Display() string {
	return a.display
}

// Target returns the effective target for a typed length in runes.
func (a *Adapter) Target(typedLen int) string {
	if a.mode != model.ModeRepeat || len(a.base) == 0 {
		return string(a.base)
	}
	if typedLen < 0 {
		typedLen = 0
	}
	passes := typedLen/len(a.base) + 1
	return strings.Repeat(string(a.base), passes)
}

// EffectiveTarget is the stateless form of Adapter.Target. In jumble-word
// mode canonical is the space-joined answers.
func EffectiveTarget(mode model.Mode, canonical string, typedLen int) string {
	if mode == model.ModeJumbleWord {
		return canonical
	}
	return New(mode, canonical, nil).Target(typedLen)
}

// HasPrefix reports whether typed equals the first len(typed) runes of target.
func HasPrefix(target, typed string) bool {
	return strings.HasPrefix(target, typed)
}

func reverse(runes []rune) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[len(runes)-1-i] = r
	}
	return out
}
