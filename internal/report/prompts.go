package report

import (
	"fmt"
	"strings"

	"FeedInsight/internal/domain"
)

// ExtractionPrompt builds the instruction+posts payload for one section's
// model call. The section's own instruction is the only relevance signal; the
// response contract enforces shape, not content.
func ExtractionPrompt(section domain.ReportSection, postsText string) string {
	var b strings.Builder

	b.WriteString("You are an intelligent content analyzer. Examine the posts below and extract items that match the category.\n\n")
	b.WriteString("CRITICAL INSTRUCTIONS:\n")
	b.WriteString("1. ONLY extract content that matches the category's instruction.\n")
	b.WriteString("2. If the instruction is broad (e.g. \"Everything\"), include everything relevant. If it is specific (e.g. \"Bugs\"), be strict.\n")
	b.WriteString("3. If no content matches, return an empty list.\n")
	b.WriteString("4. For every item include postIndex: the exact post number from \"[Post X]\".\n\n")

	fmt.Fprintf(&b, "CATEGORY %q: %s\n", section.Title, section.Instruction())
	if section.Restricted() {
		b.WriteString("The posts below were already filtered to this category's allowed sources. Do not reference anything outside them.\n")
	}

	b.WriteString("\nPOSTS TO ANALYZE:\n")
	b.WriteString(postsText)

	return b.String()
}

// TranslationPrompt asks the model to translate title/summary values of the
// JSON payload. The payload never contains links or post indices.
func TranslationPrompt(language, payload string) string {
	var b strings.Builder

	b.WriteString("You are a professional translator.\n")
	fmt.Fprintf(&b, "Translate the 'title' and 'summary' fields of the provided JSON data into %s.\n\n", language)
	b.WriteString("RULES:\n")
	b.WriteString("1. ONLY translate 'title' and 'summary' values.\n")
	b.WriteString("2. Do NOT change any keys or the structure of the JSON.\n")
	b.WriteString("3. Do NOT add, remove, or reorder items.\n")
	b.WriteString("4. Maintain the original tone and technical accuracy.\n\n")
	b.WriteString("Input JSON:\n")
	b.WriteString(payload)

	return b.String()
}
