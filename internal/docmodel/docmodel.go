// Package docmodel is the parsed representation of a documentation page used
// across the build, lint and verify workflows.
package docmodel

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/odadocs/odadoc/internal/frontmatter"
	"github.com/odadocs/odadoc/internal/markdown"
)

// Document is a discovered Markdown page with its parsed frontmatter and the
// analysis data the pipeline derives from the body.
type Document struct {
	Path         string // absolute path to the source file
	RelativePath string // path relative to the docs root, slash-separated
	Section      string // first path segment under the docs root ("" at root)
	Matter       frontmatter.Matter
	Raw          []byte
}

// Load reads and parses a documentation file.
func Load(path, relativePath string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, relativePath, content)
}

// Parse parses file content into a Document without touching the filesystem.
func Parse(path, relativePath string, content []byte) (*Document, error) {
	matter, err := frontmatter.Parse(content)
	if err != nil {
		return nil, err
	}

	rel := filepath.ToSlash(relativePath)
	section := ""
	if i := strings.Index(rel, "/"); i > 0 {
		section = rel[:i]
	}

	return &Document{
		Path:         path,
		RelativePath: rel,
		Section:      section,
		Matter:       matter,
		Raw:          content,
	}, nil
}

// Title resolves the page title: frontmatter title, then the first H1, then
// the file name.
func (d *Document) Title() string {
	if t := d.Matter.String("title"); t != "" {
		return t
	}
	for _, h := range d.Headings() {
		if h.Level == 1 {
			return h.Text
		}
	}
	name := strings.TrimSuffix(filepath.Base(d.RelativePath), filepath.Ext(d.RelativePath))
	if name == "index" || name == "README" {
		if d.Section != "" {
			return d.Section
		}
	}
	return name
}

// Links returns every link-like construct in the body.
func (d *Document) Links() []markdown.Link {
	return markdown.ExtractLinks(d.Matter.Body)
}

// Headings returns every heading in the body.
func (d *Document) Headings() []markdown.Heading {
	return markdown.ExtractHeadings(d.Matter.Body)
}

// CodeBlocks returns every fenced code sample in the body.
func (d *Document) CodeBlocks() []markdown.CodeBlock {
	return markdown.ExtractCodeBlocks(d.Matter.Body)
}

// OutputPath maps the source file to its location in the rendered site:
// foo/bar.md -> foo/bar/index.html, foo/index.md -> foo/index.html.
func (d *Document) OutputPath() string {
	rel := strings.TrimSuffix(d.RelativePath, filepath.Ext(d.RelativePath))
	if strings.HasSuffix(rel, "/index") || rel == "index" {
		return rel + ".html"
	}
	return rel + "/index.html"
}

// URLPath is the site-absolute path the page is served at.
func (d *Document) URLPath() string {
	out := d.OutputPath()
	out = strings.TrimSuffix(out, "index.html")
	return "/" + out
}
