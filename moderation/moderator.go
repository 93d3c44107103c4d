// Package moderation censors blocked terms in message content before
// it is persisted or broadcast. Matching runs on a normalized view of
// the text (lowercased, separators stripped) so spacing or punctuation
// tricks do not defeat the block list, while replacement happens on
// the original runes to preserve layout.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the Aho-Corasick automaton over the normalized
// block list. Building is relatively expensive; construct once at
// startup and share.
func NewModerator(blocked []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(blocked))
	for _, word := range blocked {
		norm := normalize([]rune(word))
		if len(norm.runes) == 0 {
			continue
		}
		patterns = append(patterns, norm.runes)
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor replaces every blocked span with the replacement rune and
// returns the sanitized text plus the matched terms.
func (m *Moderator) Censor(original string) (string, []string) {
	norm := normalize([]rune(original))
	if len(norm.runes) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(norm.runes, false)
	if len(spans) == 0 {
		return original, nil
	}

	out := []rune(original)
	var matched []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(norm.origin) {
			continue
		}
		matched = append(matched, string(span.Word))
		// Star out the original range covering the normalized match,
		// trailing separators included.
		for i := norm.origin[start]; i <= norm.origin[end-1]; i++ {
			out[i] = m.replacement
		}
	}
	return string(out), matched
}

// normalized keeps, for every normalized rune, the index of the
// original rune it came from.
type normalized struct {
	runes  []rune
	origin []int
}

func normalize(input []rune) normalized {
	n := normalized{
		runes:  make([]rune, 0, len(input)),
		origin: make([]int, 0, len(input)),
	}
	for i, r := range input {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		n.runes = append(n.runes, unicode.ToLower(r))
		n.origin = append(n.origin, i)
	}
	return n
}
