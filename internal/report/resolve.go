package report

import (
	"FeedInsight/internal/domain"
	"FeedInsight/internal/schema"
)

// ResolveItems maps model-emitted post indices back to source URLs. An index
// outside [1, len(sourcePosts)] leaves the URL empty; guessing a link would be
// worse than omitting it.
func ResolveItems(items []schema.Item, sourcePosts []domain.PostData) []domain.ExtractedItem {
	resolved := make([]domain.ExtractedItem, 0, len(items))
	for _, item := range items {
		extracted := domain.ExtractedItem{
			Title:   item.Title,
			Summary: item.Summary,
		}
		if item.PostIndex >= 1 && item.PostIndex <= len(sourcePosts) {
			extracted.SourceURL = sourcePosts[item.PostIndex-1].URL
		}
		resolved = append(resolved, extracted)
	}
	return resolved
}
