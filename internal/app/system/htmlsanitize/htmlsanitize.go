// Package htmlsanitize strips markup from user-supplied text.
//
// Task descriptions and comments are stored as plain text. Clients render
// them escaped, so the stored value must never carry tags.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every tag (and the contents of script and style
// elements) and returns the remaining text, trimmed. Entities are decoded
// so "Tom &amp; Jerry" and "Tom & Jerry" store the same value.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no markup at all.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
