package workspace

import (
	"strings"
	"unicode"
)

const nameMarks = " -_.,()"

// SanitizeName makes s usable as one path element and as a quoted download
// name. Control characters are dropped, path separators and other
// punctuation become '_', and the result is capped at maxLen runes.
func SanitizeName(s string, maxLen int) string {
	cleaned := strings.TrimSpace(strings.Map(nameRune, s))
	if maxLen <= 0 {
		return cleaned
	}
	if runes := []rune(cleaned); len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return cleaned
}

func nameRune(r rune) rune {
	switch {
	case unicode.IsControl(r):
		return -1
	case unicode.IsLetter(r), unicode.IsDigit(r), strings.ContainsRune(nameMarks, r):
		return r
	default:
		return '_'
	}
}
