// Package sanitize strips markup from user-provided text fields before
// they are stored or rendered into notifications.
package sanitize

import (
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

var entityDecoder = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
)

// Text removes HTML tags from s and trims surrounding whitespace.
// Entities are decoded and the result stripped again so encoded tags
// like &lt;script&gt; do not survive the first pass.
func Text(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityDecoder.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}
