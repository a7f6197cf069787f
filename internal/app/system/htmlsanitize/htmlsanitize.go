// Package htmlsanitize strips markup from free text entered by admins.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every tag and attribute from s and returns the
// remaining text unescaped, trimmed of surrounding space. Templates
// escape it again on output.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
