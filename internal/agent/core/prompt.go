package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mohammad-safakhou/icebreak/internal/helpers"
	"github.com/mohammad-safakhou/icebreak/models"
)

const generationPromptTemplate = `You are writing conversation starters ("ice breakers") for meeting %s.

PROFILE CONTENT:
%s

REQUIREMENTS:
1. Write 3 to 5 short ice breakers grounded in the profile content above
2. Each ice breaker must be one sentence a person could actually say out loud
3. Mention concrete details (projects, posts, roles) rather than generic flattery
4. Do not invent facts that are not in the profile content

OUTPUT FORMAT:
Return only the ice breakers, one per line, numbered 1. to 5. No headings, no commentary.`

const degradedPromptTemplate = `You are writing conversation starters ("ice breakers") for meeting %s.

No profile content could be retrieved for %s, so keep the suggestions general but warm.

REQUIREMENTS:
1. Write 3 short ice breakers suitable for meeting someone for the first time
2. Each ice breaker must be one sentence a person could actually say out loud
3. Do not pretend to know anything specific about the person

OUTPUT FORMAT:
Return only the ice breakers, one per line, numbered 1. to 3. No headings, no commentary.`

const reformatPromptTemplate = `Your previous reply could not be parsed into a list of ice breakers.

PREVIOUS REPLY:
%s

Rewrite it as plain numbered lines, one ice breaker per line, like:
1. First ice breaker
2. Second ice breaker

Return only the numbered lines.`

// BuildPrompt assembles the generation prompt from the person's name and the
// scraped profiles. Failed scrapes are skipped; with zero successful scrapes
// it degrades to a name-only prompt rather than failing the run. Successful
// sources are included in relevance order until the character budget is
// exhausted.
func BuildPrompt(name string, contents []models.ScrapedContent, budget int) string {
	if budget <= 0 {
		budget = 12000
	}
	sources := renderSources(contents, budget)
	if sources == "" {
		return fmt.Sprintf(degradedPromptTemplate, name, name)
	}
	return fmt.Sprintf(generationPromptTemplate, name, sources)
}

func buildReformatPrompt(previous string) string {
	return fmt.Sprintf(reformatPromptTemplate, previous)
}

// renderSources concatenates successful scrapes with attribution markers,
// greedily in input (relevance) order. Returns "" when nothing succeeded.
func renderSources(contents []models.ScrapedContent, budget int) string {
	var blocks []string
	used := 0
	for _, c := range contents {
		if !c.Success || strings.TrimSpace(c.Text) == "" {
			continue
		}
		block := fmt.Sprintf("Source %d [%s] %s:\n%s", len(blocks)+1, c.Source.Platform, c.Source.URL, c.Text)
		n := utf8.RuneCountInString(block)
		if used+n > budget {
			if used == 0 {
				// A single oversized source still beats a degraded prompt.
				blocks = append(blocks, helpers.Truncate(block, budget))
			}
			break
		}
		blocks = append(blocks, block)
		used += n
	}
	return strings.Join(blocks, "\n\n")
}
