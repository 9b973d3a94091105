package search

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// snippetLimit is the rune count a snippet is truncated to before the
	// ellipsis marker is appended.
	snippetLimit = 200
	// formatCeiling is the absolute cap on rendered entries, regardless
	// of what the caller asks for.
	formatCeiling = 10
)

// NoResultsText is rendered when no hit survives filtering.
const NoResultsText = "No results found"

// FormatMarkdown renders raw hits as a numbered Markdown list. Hits without
// a title or snippet are dropped, duplicate URLs keep their first
// occurrence, snippets are whitespace-collapsed and truncated, and at most
// min(max, 10) entries are rendered. The output depends only on the input.
func FormatMarkdown(hits []Result, max int) string {
	limit := max
	if limit > formatCeiling {
		limit = formatCeiling
	}
	if limit <= 0 {
		return NoResultsText
	}

	seen := make(map[string]struct{})
	var kept []Result
	for _, hit := range hits {
		title := strings.TrimSpace(hit.Title)
		snippet := strings.TrimSpace(hit.Snippet)
		if title == "" || snippet == "" {
			continue
		}
		if key := normalizeURL(hit.URL); key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		kept = append(kept, Result{Title: title, URL: hit.URL, Snippet: snippet})
		if len(kept) == limit {
			break
		}
	}

	if len(kept) == 0 {
		return NoResultsText
	}

	lines := make([]string, 0, len(kept))
	for i, hit := range kept {
		snippet := truncateSnippet(collapseWhitespace(hit.Snippet))
		if hit.URL == "" {
			lines = append(lines, fmt.Sprintf("%d. %s\n   %s", i+1, hit.Title, snippet))
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. [%s](%s) — 📍 %s\n   %s",
			i+1, hit.Title, hit.URL, displayDomain(hit.URL), snippet))
	}
	return strings.Join(lines, "\n\n")
}

// normalizeURL produces the dedup key: lowercased, trailing slashes
// removed. Empty URLs get no key and are never deduplicated.
func normalizeURL(raw string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(raw)), "/")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateSnippet(s string) string {
	runes := []rune(s)
	if len(runes) <= snippetLimit {
		return s
	}
	return string(runes[:snippetLimit]) + "…"
}

// displayDomain extracts the host for the location hint, without a leading
// www. prefix. Unparsable URLs fall back to "link".
func displayDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "link"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host == "" {
		return "link"
	}
	return host
}
