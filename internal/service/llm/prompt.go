package llm

import (
	"fmt"
	"strings"

	"github.com/chynybekuuludastan/content_optimizer/internal/service/analyzer"
	"github.com/chynybekuuludastan/content_optimizer/internal/service/text"
)

const (
	maxExcerptWords  = 600
	maxPromptHeading = 12
)

// BuildQualityPrompt creates the content quality prompt for one page
func BuildQualityPrompt(in *analyzer.Input) string {
	var sb strings.Builder

	sb.WriteString("You are an expert in SEO content quality.\n\n")
	sb.WriteString("Rate the overall quality of the page content below for readers and search engines.")
	if in.URL != "" {
		sb.WriteString(fmt.Sprintf(" The page is %s.", in.URL))
	}
	sb.WriteString("\n\n")

	if in.Content != nil {
		if title := strings.TrimSpace(in.Content.Meta.Title); title != "" {
			sb.WriteString(fmt.Sprintf("Title: %s\n", title))
		}
		if desc := strings.TrimSpace(in.Content.Meta.Description); desc != "" {
			sb.WriteString(fmt.Sprintf("Meta description: %s\n", desc))
		}

		written := 0
		for level := 1; level <= 6 && written < maxPromptHeading; level++ {
			for _, h := range in.Content.Headings[level] {
				if written == 0 {
					sb.WriteString("Headings:\n")
				}
				sb.WriteString(fmt.Sprintf("- H%d: %s\n", level, h.Text))
				written++
				if written == maxPromptHeading {
					break
				}
			}
		}
		sb.WriteString(fmt.Sprintf("Images: %d, links: %d\n", len(in.Content.Images), len(in.Content.Links)))
	}

	words := text.Words(in.TextContent)
	sb.WriteString(fmt.Sprintf("Word count: %d\n\n", len(words)))

	excerpt := words
	if len(excerpt) > maxExcerptWords {
		excerpt = excerpt[:maxExcerptWords]
	}
	sb.WriteString("Content:\n\"\"\"\n")
	sb.WriteString(strings.Join(excerpt, " "))
	if len(words) > maxExcerptWords {
		sb.WriteString(" ...")
	}
	sb.WriteString("\n\"\"\"\n\n")

	sb.WriteString(`Respond with JSON only, in this format:
{
  "score": 0-100,
  "assessment": "one or two sentences",
  "strengths": ["..."],
  "issues": ["..."],
  "recommendations": [
    {"type": "error|warning|suggestion", "message": "...", "impact": "high|medium|low", "fix": "..."}
  ]
}
Give at most 5 recommendations.`)

	return sb.String()
}
