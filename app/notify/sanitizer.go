package notify

import (
	"strings"
)

// Markdown control characters Discord would render inside embed text
var markdownReplacer = strings.NewReplacer(
	"*", "",
	"_", "",
	"`", "",
	"|", "",
	">", "",
	"~", "",
)

// sanitizeMarkdown strips Discord markdown control characters from feed
// supplied text so report titles cannot restyle the embed
func sanitizeMarkdown(s string) string {
	return markdownReplacer.Replace(s)
}
