package report

import (
	"fmt"
	"strings"
	"time"

	"FeedInsight/internal/domain"
)

// FormatMarkdown renders the final display document. Sections appear in their
// configured order; an empty section keeps its heading with a placeholder so
// the document always mirrors the section list. The trailing footer records
// which model produced the run and in which language.
func FormatMarkdown(sections []domain.ReportSection, data map[string]domain.SectionResult, provider, model, language string) string {
	var b strings.Builder

	for _, section := range sections {
		fmt.Fprintf(&b, "# %s\n", section.Title)

		result := data[section.ID]
		if len(result.Items) == 0 {
			b.WriteString("No significant data found.\n\n")
			continue
		}

		for _, item := range result.Items {
			fmt.Fprintf(&b, "- **%s**\n  %s\n", item.Title, item.Summary)
			if item.SourceURL != "" {
				fmt.Fprintf(&b, "  [Source](%s)\n", item.SourceURL)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n\n---\n> **Generation Model:** %s (%s) | **Language:** %s", provider, model, language)

	return b.String()
}

// Title names a report after its generation moment.
func Title(now time.Time) string {
	return fmt.Sprintf("Insight - %s (%s)", now.Format("1/2/2006"), now.Format("03:04 PM"))
}
