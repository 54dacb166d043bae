package utils

import (
	"strings"
	"time"
)

// MinDuration returns the smaller of a and b, treating zero as unset.
func MinDuration(a, b time.Duration) time.Duration {
	if a <= 0 {
		return b
	}
	if b <= 0 || a < b {
		return a
	}
	return b
}

// RemoveControlCharacters drops control runes except tab, newline and carriage return.
func RemoveControlCharacters(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, text)
}

// SafeLogValue flattens user-supplied text such as upload filenames to a single
// bounded line before it reaches the log.
func SafeLogValue(text string, max int) string {
	text = RemoveControlCharacters(text)
	text = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(text)
	text = strings.TrimSpace(text)
	if max > 0 {
		if runes := []rune(text); len(runes) > max {
			return string(runes[:max]) + "..."
		}
	}
	return text
}
