package extract

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
)

const (
	maxSummaryRunes = 100
	maxCapabilities = 5
	maxBestFor      = 5
	maxTags         = 7
)

// systemInstruction is sent with every request. It pins the output to a
// single JSON object with the catalog schema.
func systemInstruction() string {
	var sb strings.Builder
	sb.WriteString("You catalog software tools and online resources.\n")
	sb.WriteString("Reply with ONE JSON object and nothing else: no prose, no Markdown, no code fences.\n")
	sb.WriteString("Schema:\n")
	sb.WriteString("{\n")
	sb.WriteString(`  "name": string,` + "\n")
	fmt.Fprintf(&sb, "  \"type\": one of %s,\n", strings.Join(domain.ToolTypes, ", "))
	sb.WriteString(`  "categoryId": string, MUST be one of the category ids listed by the user,` + "\n")
	fmt.Fprintf(&sb, "  \"summary\": string, at most %d characters,\n", maxSummaryRunes)
	sb.WriteString(`  "whatItIs": string, one or two sentences,` + "\n")
	sb.WriteString(`  "capabilities": array of 3 to 5 short strings,` + "\n")
	sb.WriteString(`  "bestFor": array of 3 to 5 short strings,` + "\n")
	fmt.Fprintf(&sb, "  \"tags\": array of 3 to 7 strings chosen from: %s,\n", strings.Join(domain.TagVocabulary, ", "))
	sb.WriteString(`  "status": one of active, beta, deprecated, inactive,` + "\n")
	sb.WriteString(`  "contentType": one of tool, website, video, podcast, article,` + "\n")
	sb.WriteString(`  "notes": string, may be empty` + "\n")
	sb.WriteString("}\n")
	return sb.String()
}

// buildPrompt renders the scraped page and the category list.
func buildPrompt(c domain.ScrapedContent, known []domain.CategoryRef) string {
	var sb strings.Builder
	sb.WriteString("Categories (id: name):\n")
	for _, cat := range known {
		fmt.Fprintf(&sb, "- %s: %s\n", cat.ID, cat.Name)
	}
	sb.WriteString("\nPage:\n")
	fmt.Fprintf(&sb, "URL: %s\n", c.URL)
	if c.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", c.Title)
	}
	if c.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", c.Description)
	}
	if len(c.Keywords) > 0 {
		fmt.Fprintf(&sb, "Keywords: %s\n", strings.Join(c.Keywords, ", "))
	}
	if c.BodyText != "" {
		fmt.Fprintf(&sb, "Content excerpt:\n%s\n", c.BodyText)
	}
	return sb.String()
}
