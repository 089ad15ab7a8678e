package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// CleanLine strips escape sequences and control characters from backend
// text shown on one row. Line breaks become spaces.
func CleanLine(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, ansi.Strip(s))
}

// CleanBlock is CleanLine for multi-line text; line breaks and tabs stay.
func CleanBlock(s string) string {
	return strings.Map(func(r rune) rune {
		if r != '\n' && r != '\t' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, ansi.Strip(s))
}
