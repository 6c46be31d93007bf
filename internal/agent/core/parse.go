package core

import (
	"regexp"
	"strings"
	"unicode"
)

// A run never returns more than five ice breakers, however chatty the model.
const maxIceBreakers = 5

var enumPrefixRe = regexp.MustCompile(`^[\d\-\.\*\)]+[\s\.]+`)

// ParseIceBreakers extracts statement lines from a raw model completion.
// It tolerates numbered lists, bullet markers and stray prose around the
// list, and returns nil when nothing statement-like is found so the caller
// can re-prompt.
func ParseIceBreakers(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "ice breaker") || strings.HasPrefix(lower, "here are") {
			continue
		}
		line = strings.TrimSpace(enumPrefixRe.ReplaceAllString(line, ""))
		line = strings.Trim(line, `"`)
		if !hasLetter(line) {
			continue
		}
		out = append(out, line)
		if len(out) == maxIceBreakers {
			break
		}
	}
	return out
}

// hasLetter filters out ruler lines, stray markers and bare numbering that
// survive prefix stripping.
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
