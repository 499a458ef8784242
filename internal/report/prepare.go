// Package report holds the pure steps of the report pipeline: prompt payload
// preparation, index resolution, and markdown rendering.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"FeedInsight/internal/domain"
)

// excerptLimit bounds per-post content in the prompt payload. Truncation is
// lossy on purpose: it keeps large batches inside the model's context budget.
const excerptLimit = 500

// FormatPosts renders posts into a textual prompt payload, grouped by source
// for readability, with a global 1-based "[Post N]" marker per post. The
// returned slice lists the posts in marker order, so index N resolves to
// element N-1. Identical input always yields identical text and ordering.
func FormatPosts(posts []domain.PostData) (string, []domain.PostData) {
	var sourceOrder []string
	bySource := make(map[string][]domain.PostData)
	for _, post := range posts {
		if _, seen := bySource[post.SourceName]; !seen {
			sourceOrder = append(sourceOrder, post.SourceName)
		}
		bySource[post.SourceName] = append(bySource[post.SourceName], post)
	}

	var b strings.Builder
	ordered := make([]domain.PostData, 0, len(posts))
	index := 1
	for _, sourceName := range sourceOrder {
		fmt.Fprintf(&b, "\n=== SOURCE: %s ===\n\n", sourceName)
		for _, post := range bySource[sourceName] {
			fmt.Fprintf(&b, "[Post %d] %s\n", index, post.Title)
			b.WriteString(excerpt(plainText(post.Content)))
			b.WriteString("\n\n")
			ordered = append(ordered, post)
			index++
		}
	}

	return b.String(), ordered
}

// plainText strips markup from feed post bodies so the model sees readable
// prose instead of HTML soup.
func plainText(content string) string {
	if !strings.Contains(content, "<") {
		return content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func excerpt(content string) string {
	if utf8.RuneCountInString(content) <= excerptLimit {
		return content
	}
	return string([]rune(content)[:excerptLimit]) + "..."
}
