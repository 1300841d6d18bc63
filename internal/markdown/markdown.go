// Package markdown wraps goldmark for the analysis the toolchain needs:
// link, heading and fenced-code-block extraction from documentation pages.
// It never renders here; rendering lives in the site generator.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is a link-like construct extracted from a Markdown body.
type Link struct {
	Kind        LinkKind
	Destination string
	Line        int // 1-based line of the construct, 0 when unknown
}

// Heading is a section heading with its derived URL anchor.
type Heading struct {
	Level  int
	Text   string
	Anchor string
	Line   int
}

// CodeBlock is a fenced code block with its info string language.
type CodeBlock struct {
	Language string
	Body     string
	Line     int // 1-based line of the opening fence
}

// Parse parses a Markdown body (frontmatter already removed) into a goldmark AST.
func Parse(body []byte) gmast.Node {
	return goldmark.New().Parser().Parse(text.NewReader(body))
}

// lineAt returns the 1-based line number of a byte offset into body.
func lineAt(body []byte, offset int) int {
	if offset < 0 || offset > len(body) {
		return 0
	}
	return bytes.Count(body[:offset], []byte("\n")) + 1
}

// firstSegmentStart finds the byte offset of the first text segment under n.
func firstSegmentStart(n gmast.Node) int {
	if n.Type() == gmast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			return t.Segment.Start
		}
		if start := firstSegmentStart(c); start >= 0 {
			return start
		}
	}
	return -1
}
