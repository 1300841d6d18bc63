package markdown

import (
	"strings"
	"unicode"

	gmast "github.com/yuin/goldmark/ast"
)

// ExtractHeadings returns every heading in document order with its anchor slug.
func ExtractHeadings(body []byte) []Heading {
	root := Parse(body)

	headings := make([]Heading, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		txt := headingText(h, body)
		headings = append(headings, Heading{
			Level:  h.Level,
			Text:   txt,
			Anchor: Slug(txt),
			Line:   lineAt(body, firstSegmentStart(h)),
		})
		return gmast.WalkSkipChildren, nil
	})
	return headings
}

func headingText(n gmast.Node, body []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := c.(*gmast.Text); ok {
			b.Write(t.Segment.Value(body))
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// Slug derives the URL anchor for a heading the way common Markdown site
// generators do: lowercase, spaces become hyphens, punctuation dropped.
// Danish letters (æøå) are kept, matching how the rendered site anchors them.
func Slug(text string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
