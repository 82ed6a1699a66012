package adapter

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlBreakRegex = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</li>|</div>`)
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles Greenhouse's double-encoding;
// no-op on already-real HTML), turns block-level closers into line breaks
// so full descriptions keep their paragraph structure for the analysis
// prompt and the review view, strips remaining tags, then collapses
// whitespace within each line.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	broken := htmlBreakRegex.ReplaceAllString(unescaped, "\n")
	plain := htmlTagRegex.ReplaceAllString(broken, "")

	var lines []string
	for _, line := range strings.Split(plain, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
