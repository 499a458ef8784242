package report

import (
	"fmt"
	"strings"
	"testing"

	"FeedInsight/internal/domain"
)

func TestFormatPostsDeterministicOrdering(t *testing.T) {
	t.Parallel()

	posts := []domain.PostData{
		{ID: "1", Title: "A", Content: "alpha one", URL: "https://a/1", SourceID: "a", SourceName: "Alpha"},
		{ID: "2", Title: "B", Content: "beta one", URL: "https://b/2", SourceID: "b", SourceName: "Beta"},
		{ID: "3", Title: "C", Content: "alpha two", URL: "https://a/3", SourceID: "a", SourceName: "Alpha"},
	}

	text1, ordered1 := FormatPosts(posts)
	text2, ordered2 := FormatPosts(posts)

	if text1 != text2 {
		t.Fatal("identical input must produce identical text")
	}
	if len(ordered1) != 3 || len(ordered2) != 3 {
		t.Fatalf("expected 3 ordered posts, got %d and %d", len(ordered1), len(ordered2))
	}
	for i := range ordered1 {
		if ordered1[i].ID != ordered2[i].ID {
			t.Fatalf("index assignment differs at %d: %s vs %s", i, ordered1[i].ID, ordered2[i].ID)
		}
	}

	// Grouping pulls both Alpha posts together; markers follow emission order.
	if ordered1[0].ID != "1" || ordered1[1].ID != "3" || ordered1[2].ID != "2" {
		t.Fatalf("unexpected marker order: %s %s %s", ordered1[0].ID, ordered1[1].ID, ordered1[2].ID)
	}

	for i, post := range ordered1 {
		marker := fmt.Sprintf("[Post %d] %s", i+1, post.Title)
		if !strings.Contains(text1, marker) {
			t.Fatalf("expected marker %q in:\n%s", marker, text1)
		}
	}

	if !strings.Contains(text1, "=== SOURCE: Alpha ===") || !strings.Contains(text1, "=== SOURCE: Beta ===") {
		t.Fatalf("expected source group headers in:\n%s", text1)
	}
}

func TestFormatPostsTruncatesLongContent(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", excerptLimit+100)
	text, _ := FormatPosts([]domain.PostData{
		{ID: "1", Title: "Long", Content: long, SourceName: "Alpha"},
	})

	if strings.Contains(text, long) {
		t.Fatal("content above the excerpt limit must be truncated")
	}
	if !strings.Contains(text, strings.Repeat("x", excerptLimit)+"...") {
		t.Fatal("expected explicit ellipsis marker after truncation")
	}
}

func TestFormatPostsStripsHTML(t *testing.T) {
	t.Parallel()

	text, _ := FormatPosts([]domain.PostData{
		{ID: "1", Title: "Markup", Content: "<div><p>hello</p> <b>world</b></div>", SourceName: "Alpha"},
	})

	if strings.Contains(text, "<p>") || strings.Contains(text, "<div>") {
		t.Fatalf("expected markup stripped, got:\n%s", text)
	}
	if !strings.Contains(text, "hello world") {
		t.Fatalf("expected text content preserved, got:\n%s", text)
	}
}
