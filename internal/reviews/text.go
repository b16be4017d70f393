package reviews

import (
	"strings"
	"unicode/utf8"
)

// MaxPromptBodyChars bounds a single comment body embedded in a prompt.
const MaxPromptBodyChars = 1200

// Excerpt trims body and cuts it to at most limit runes, marking the cut with an
// ellipsis.
func Excerpt(body string, limit int) string {
	body = strings.TrimSpace(body)
	if limit <= 0 || utf8.RuneCountInString(body) <= limit {
		return body
	}
	runes := []rune(body)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

// Cap returns at most n leading candidates.
func Cap(candidates []CandidateComment, n int) []CandidateComment {
	if n <= 0 || len(candidates) <= n {
		return candidates
	}
	return candidates[:n]
}
