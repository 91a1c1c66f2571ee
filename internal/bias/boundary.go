package bias

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// IsBoundary reports whether byte offset i of text sits between a word rune
// and a non-word rune. Letters and digits of any script count as word runes.
func IsBoundary(text string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = isWordRune(r)
	}
	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = isWordRune(r)
	}
	return before != after
}

// WholeWordAt reports whether text[start:end] is delimited by word boundaries.
func WholeWordAt(text string, start, end int) bool {
	return IsBoundary(text, start) && IsBoundary(text, end)
}

// containsWord reports whether word occurs in text as a whole word.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; from < len(text); {
		idx := strings.Index(text[from:], word)
		if idx < 0 {
			return false
		}
		start := from + idx
		if WholeWordAt(text, start, start+len(word)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}
