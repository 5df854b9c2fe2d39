package retrieval

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContainsWholeWord reports whether term occurs in text as a whole word:
// case-insensitive, bounded by non-alphanumeric runes or the string edges.
// A match inside a longer word does not count, so "river" is never found
// in "driver".
func ContainsWholeWord(text, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}

	lowerText := strings.ToLower(text)
	lowerTerm := strings.ToLower(term)

	for start := 0; ; {
		idx := strings.Index(lowerText[start:], lowerTerm)
		if idx < 0 {
			return false
		}
		idx += start

		if boundedAt(lowerText, idx, len(lowerTerm)) {
			return true
		}
		start = idx + 1
	}
}

// ContainsAllWholeWords reports whether every term matches as a whole word.
// An empty term list matches trivially.
func ContainsAllWholeWords(text string, terms []string) bool {
	for _, term := range terms {
		if !ContainsWholeWord(text, term) {
			return false
		}
	}
	return true
}

// boundedAt reports whether the match at [idx, idx+length) sits on word
// boundaries on both sides.
func boundedAt(text string, idx, length int) bool {
	if idx > 0 {
		before, _ := utf8.DecodeLastRuneInString(text[:idx])
		if isWordRune(before) {
			return false
		}
	}
	if end := idx + length; end < len(text) {
		after, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(after) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
