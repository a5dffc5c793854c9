package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// Sanitize trims surrounding whitespace and neutralizes unsafe HTML while
// keeping benign formatting markup. Applied to title and content on write
// paths; never to content_delta, which is stored verbatim.
func Sanitize(input string) string {
	return sanitizer.Sanitize(strings.TrimSpace(input))
}
