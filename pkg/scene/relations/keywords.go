package relations

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// indexWord returns the byte offset of the first occurrence of phrase in text
// that starts and ends on a word boundary, or -1
func indexWord(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	from := 0
	for from <= len(text)-len(phrase) {
		j := strings.Index(text[from:], phrase)
		if j < 0 {
			return -1
		}
		i := from + j
		if boundaryBefore(text, i) && boundaryAfter(text, i+len(phrase)) {
			return i
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		from = i + size
	}
	return -1
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
