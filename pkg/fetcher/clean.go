package fetcher

import (
	"html"
	"regexp"
	"strings"
)

var (
	titleRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockRe   = regexp.MustCompile(`(?i)</?(p|div|br|li|ul|ol|h[1-6]|tr|table|section|article|header|footer)[^>]*>`)
	tagRe     = regexp.MustCompile(`(?s)<[^>]+>`)
	spaceRe   = regexp.MustCompile(`[ \t]+`)
	blankRe   = regexp.MustCompile(`\n{3,}`)
)

// CleanHTML reduces an HTML document to its title and plain-text body.
// Scripts, styles, and comments are removed, block-level tags become
// newlines, remaining markup is stripped, and entities are decoded.
// Non-HTML input passes through with whitespace normalization only.
func CleanHTML(raw string) (title, text string) {
	if m := titleRe.FindStringSubmatch(raw); m != nil {
		title = strings.Join(strings.Fields(html.UnescapeString(m[1])), " ")
	}

	text = titleRe.ReplaceAllString(raw, " ")
	text = scriptRe.ReplaceAllString(text, " ")
	text = styleRe.ReplaceAllString(text, " ")
	text = commentRe.ReplaceAllString(text, " ")
	text = blockRe.ReplaceAllString(text, "\n")
	text = tagRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = normalizeWhitespace(text)

	return title, text
}

func collapseSpace(s string) string {
	return spaceRe.ReplaceAllString(s, " ")
}

// normalizeWhitespace collapses runs of spaces, trims every line, and
// limits consecutive blank lines to one.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(collapseSpace(line))
	}
	s = strings.Join(lines, "\n")
	s = blankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
