package markdown

import (
	"strings"

	gmast "github.com/yuin/goldmark/ast"
)

// ExtractCodeBlocks returns every fenced code block with its language tag.
// Indented code blocks are ignored; the docs only use fenced samples.
func ExtractCodeBlocks(body []byte) []CodeBlock {
	root := Parse(body)

	blocks := make([]CodeBlock, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		fenced, ok := n.(*gmast.FencedCodeBlock)
		if !ok {
			return gmast.WalkContinue, nil
		}

		lang := ""
		if fenced.Info != nil {
			if fields := strings.Fields(string(fenced.Info.Segment.Value(body))); len(fields) > 0 {
				lang = fields[0]
			}
		}

		var content strings.Builder
		lines := fenced.Lines()
		firstLine := 0
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if i == 0 {
				firstLine = lineAt(body, seg.Start)
			}
			content.Write(seg.Value(body))
		}

		blocks = append(blocks, CodeBlock{
			Language: lang,
			Body:     content.String(),
			Line:     firstLine,
		})
		return gmast.WalkSkipChildren, nil
	})
	return blocks
}
