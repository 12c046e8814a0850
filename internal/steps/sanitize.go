package steps

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// sanitize strips any markup an upstream API slipped into a display string.
// bluemonday escapes entities on output, so they are decoded again afterwards.
func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
