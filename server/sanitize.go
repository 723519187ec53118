package server

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/onnwee/twitch-timeouts/page"
)

// changePolicy limits streamed fragments to the markup the page produces.
// Viewers insert these fragments verbatim, so anything else is stripped.
var changePolicy = bluemonday.NewPolicy().
	AllowElements("div", "span", "strong", "em", "br").
	AllowAttrs("class").OnElements("div", "span").
	AllowAttrs(page.IDAttr).OnElements("div").
	AllowAttrs("style").OnElements("div")

// sanitizeChange scrubs the HTML carried by an append change.
func sanitizeChange(c page.Change) page.Change {
	if c.HTML != "" {
		c.HTML = changePolicy.Sanitize(c.HTML)
	}
	return c
}
