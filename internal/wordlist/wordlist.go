// Package wordlist supplies the words competition texts are generated from.
package wordlist

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed en.txt
var defaultEnglish string

// Default returns the built-in English word list.
func Default() []string {
	words, err := parse(strings.NewReader(defaultEnglish))
	if err != nil {
		return nil
	}
	return words
}

// Load reads path, or takes the built-in list when path is empty, and keeps
// the words accepted by the filter for lang.
func Load(path, lang string) ([]string, error) {
	var words []string
	if path == "" {
		words = Default()
	} else {
		var err error
		if words, err = LoadWords(path); err != nil {
			return nil, err
		}
	}
	words = Filter(words, lang)
	if len(words) == 0 {
		return nil, fmt.Errorf("no %q words left in word list", lang)
	}
	return words, nil
}

// LoadWords reads one word per line from path. Blank lines and repeats are
// skipped.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	words, err := parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return words, nil
}

func parse(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
