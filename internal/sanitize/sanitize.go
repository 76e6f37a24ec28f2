package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text strips all HTML from user-supplied text and trims surrounding
// whitespace. Reward titles, descriptions, and exchange messages pass
// through here before they are stored.
func Text(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}
