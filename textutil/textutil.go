// Package textutil normalizes selection text before it is persisted.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var nlAndSpace = regexp.MustCompile(`[\n\s]+`)

// CondenseSpaces collapses runs of whitespace and newlines into single
// spaces.
func CondenseSpaces(str string) string {
	return strings.TrimSpace(nlAndSpace.ReplaceAllString(str, " "))
}

// StripControl removes control characters and replacement runes that leak in
// from broken text extraction.
func StripControl(str string) string {
	return strings.Map(func(r rune) rune {
		if r == unicode.ReplacementChar {
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, str)
}

var (
	scriptBlocks  = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)>`)
	eventHandlers = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	scriptHrefs   = regexp.MustCompile(`(?i)(href|src)\s*=\s*("javascript:[^"]*"|'javascript:[^']*')`)
)

// SanitizeRichText lightly sanitizes selection markup: script and style
// blocks, inline event handlers and javascript: URLs are removed, control
// characters stripped. Not a full HTML sanitizer; the stored markup is only
// ever rendered back into the owning application.
func SanitizeRichText(str string) string {
	str = scriptBlocks.ReplaceAllString(str, "")
	str = eventHandlers.ReplaceAllString(str, "")
	str = scriptHrefs.ReplaceAllString(str, "")
	return strings.TrimSpace(StripControl(str))
}
