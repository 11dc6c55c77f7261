package wordlist

import (
	"strings"
	"unicode"
)

// FilterFunc reports whether a word can appear in a generated text.
type FilterFunc func(string) bool

var langFilters = map[string]FilterFunc{
	"en": lowerASCII,
}

// FilterForLang returns the filter for lang. Unknown languages only drop
// words containing spaces or control characters.
func FilterForLang(lang string) FilterFunc {
	if f, ok := langFilters[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return f
	}
	return singleToken
}

// Filter returns the words accepted by the filter for lang, in order.
func Filter(words []string, lang string) []string {
	keep := FilterForLang(lang)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

func lowerASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return false
		}
	}
	return true
}

func singleToken(word string) bool {
	if word == "" {
		return false
	}
	return strings.IndexFunc(word, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) < 0
}
