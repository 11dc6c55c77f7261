package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type glyphClass int

const (
	glyphPending glyphClass = iota
	glyphCurrent
	glyphCorrect
	glyphWrong
)

// glyph is one cell of the race text. space marks a target space even when
// a wrong keystroke replaced its face.
type glyph struct {
	r      rune
	class  glyphClass
	space  bool
	cursor bool
}

func (g glyph) style() lipgloss.Style {
	var style lipgloss.Style
	switch g.class {
	case glyphCurrent:
		style = currentWordStyle
	case glyphCorrect:
		style = correctStyle
	case glyphWrong:
		style = incorrectStyle
	default:
		style = pendingStyle
	}
	if g.cursor {
		style = style.Underline(true)
	}
	return style
}

func (g glyph) render() string {
	return g.style().Render(string(g.r))
}

func (g glyph) width() int {
	return runewidth.RuneWidth(g.r)
}

// paintTarget classifies the target against the typed text. Untyped runes of
// the word under the cursor are marked current; a missed space shows as a dot.
func paintTarget(target, typed []rune, cursor int) []glyph {
	word := currentWord(target, cursor)
	out := make([]glyph, len(target))
	for i, want := range target {
		g := glyph{r: want, space: want == ' '}
		switch {
		case i < len(typed) && typed[i] == want:
			g.class = glyphCorrect
		case i < len(typed):
			g.class = glyphWrong
			if g.space {
				g.r = '•'
			}
		case !g.space && i >= word.start && i < word.end:
			g.class = glyphCurrent
		}
		g.cursor = i == cursor && i >= len(typed)
		out[i] = g
	}
	return out
}

// paintTyped shows what was typed while the target stays hidden. Everything
// after the first mistake is wrong, matching the prefix accuracy rule.
func paintTyped(target, typed []rune) []glyph {
	out := make([]glyph, 0, len(typed)+1)
	onTrack := true
	for i, r := range typed {
		onTrack = onTrack && i < len(target) && target[i] == r
		g := glyph{r: r, class: glyphCorrect, space: r == ' '}
		if !onTrack {
			g.class = glyphWrong
			if g.space {
				g.r = '•'
			}
		}
		out = append(out, g)
	}
	return append(out, glyph{r: ' ', space: true, cursor: true})
}

type span struct {
	start int
	end   int
}

// currentWord finds the word at cursor. A cursor on a space selects the next
// word; one past the end selects the last word.
func currentWord(target []rune, cursor int) span {
	if cursor < 0 || len(target) == 0 {
		return span{}
	}
	start := min(cursor, len(target))
	for start < len(target) && target[start] == ' ' {
		start++
	}
	if start == len(target) {
		end := len(target)
		for end > 0 && target[end-1] == ' ' {
			end--
		}
		start = end
		for start > 0 && target[start-1] != ' ' {
			start--
		}
		return span{start: start, end: end}
	}
	for start > 0 && target[start-1] != ' ' {
		start--
	}
	end := start
	for end < len(target) && target[end] != ' ' {
		end++
	}
	return span{start: start, end: end}
}

// tokens splits glyphs into words and single spaces.
func tokens(glyphs []glyph) [][]glyph {
	var out [][]glyph
	start := -1
	for i, g := range glyphs {
		if !g.space {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, glyphs[start:i])
			start = -1
		}
		out = append(out, glyphs[i:i+1])
	}
	if start >= 0 {
		out = append(out, glyphs[start:])
	}
	return out
}

// layout fills lines up to width. Lines break between words and the space at
// a break is dropped; a word wider than a line is split.
func layout(glyphs []glyph, width int) [][]glyph {
	if width <= 0 {
		return [][]glyph{glyphs}
	}
	var lines [][]glyph
	var line []glyph
	used := 0
	flush := func() {
		for len(line) > 0 && line[len(line)-1].space {
			line = line[:len(line)-1]
		}
		lines = append(lines, line)
		line = nil
		used = 0
	}
	for _, tok := range tokens(glyphs) {
		if tok[0].space {
			if used+tok[0].width() > width {
				flush()
				continue
			}
			line = append(line, tok[0])
			used += tok[0].width()
			continue
		}
		tokWidth := 0
		for _, g := range tok {
			tokWidth += g.width()
		}
		if used > 0 && used+tokWidth > width {
			flush()
		}
		for _, g := range tok {
			if used > 0 && used+g.width() > width {
				flush()
			}
			line = append(line, g)
			used += g.width()
		}
	}
	return append(lines, line)
}

func renderGlyphs(glyphs []glyph, width int) string {
	lines := layout(glyphs, width)
	out := make([]string, len(lines))
	for i, line := range lines {
		var b strings.Builder
		for _, g := range line {
			b.WriteString(g.render())
		}
		out[i] = b.String()
	}
	return strings.Join(out, "\n")
}
