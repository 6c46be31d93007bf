package helpers

import (
	"strings"
	"unicode"
)

// CleanText collapses runs of whitespace into single spaces, preserving
// paragraph breaks (two or more newlines become exactly one blank line),
// and drops non-printable characters.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	paragraphs := splitParagraphs(s)
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		var b strings.Builder
		space := false
		for _, r := range p {
			switch {
			case unicode.IsSpace(r):
				space = true
			case unicode.IsPrint(r):
				if space && b.Len() > 0 {
					b.WriteByte(' ')
				}
				space = false
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			out = append(out, b.String())
		}
	}
	return strings.Join(out, "\n\n")
}

func splitParagraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var parts []string
	for _, chunk := range strings.Split(s, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			parts = append(parts, chunk)
		}
	}
	return parts
}

// sentence enders considered when looking for a truncation boundary.
var sentenceEnders = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// Truncate shortens text to at most max runes. It prefers cutting at a
// paragraph break, then at a sentence end, then at a word boundary — but
// only when the boundary falls in the last fifth of the budget, so short
// fragments are not over-trimmed. Otherwise it hard-cuts. An ellipsis marks
// any cut.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	window := string(runes[:max])
	floor := len(window) * 4 / 5

	if idx := strings.LastIndex(window, "\n\n"); idx >= floor {
		return strings.TrimSpace(window[:idx]) + "…"
	}
	best := -1
	for _, end := range sentenceEnders {
		if idx := strings.LastIndex(window, end); idx >= 0 && idx+1 > best {
			best = idx + 1
		}
	}
	if best >= floor {
		return strings.TrimSpace(window[:best]) + "…"
	}
	if idx := strings.LastIndexFunc(window, unicode.IsSpace); idx >= floor {
		return strings.TrimSpace(window[:idx]) + "…"
	}
	return strings.TrimSpace(window) + "…"
}
