package nl2sql

import "strings"

const (
	fence        = "```"
	openingFence = fence + "sql"
)

// Sanitize extracts SQL from a markdown-fenced model response. Text after an
// opening ```sql fence is kept up to the next fence; a response without an
// opening fence is returned trimmed. The tag is matched as written, so ```SQL
// is not an opening fence. It never fails.
func Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	start := strings.Index(text, openingFence)
	if start < 0 {
		return text
	}
	text = strings.TrimLeft(text[start+len(openingFence):], " \t\r\n")
	if end := strings.Index(text, fence); end > 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}
