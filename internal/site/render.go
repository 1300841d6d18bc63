package site

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	gmutil "github.com/yuin/goldmark/util"

	"github.com/odadocs/odadoc/internal/config"
	"github.com/odadocs/odadoc/internal/docmodel"
	"github.com/odadocs/odadoc/internal/markdown"
	"github.com/odadocs/odadoc/internal/nav"
)

// headingIDs assigns heading anchors from the same slug rules the linter
// checks links against, so #eksempel-hent-stemmer resolves in the rendered
// page exactly when lint says it does.
type headingIDs struct{}

func (headingIDs) Transform(doc *gmast.Document, reader text.Reader, _ parser.Context) {
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok {
			slug := markdown.Slug(string(h.Text(reader.Source())))
			if slug != "" {
				h.SetAttributeString("id", []byte(slug))
			}
		}
		return gmast.WalkContinue, nil
	})
}

// Renderer turns Markdown pages into full HTML documents.
type Renderer struct {
	md         goldmark.Markdown
	layout     *template.Template
	site       config.SiteConfig
	stylesheet string // site-absolute href, empty when the docs tree ships none
}

// NewRenderer creates a renderer for the configured site. stylesheet may be
// empty.
func NewRenderer(site config.SiteConfig, stylesheet string) (*Renderer, error) {
	layout, err := template.New("layout").Parse(layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse layout template: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(gmutil.Prioritized(headingIDs{}, 100)),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	return &Renderer{
		md:         md,
		layout:     layout,
		site:       site,
		stylesheet: stylesheet,
	}, nil
}

type navItemView struct {
	Title  string
	URL    string
	Active bool
}

type navSectionView struct {
	Label string
	Items []navItemView
}

type pageData struct {
	SiteTitle   string
	Description string
	Language    string
	Title       string
	Content     template.HTML
	Nav         []navSectionView
	EditURL     string
	LastMod     string
	Stylesheet  string
	Canonical   string
}

// RenderPage renders one document into the site layout.
func (r *Renderer) RenderPage(doc *docmodel.Document, sections []nav.Section, lastMod time.Time, editURL, canonical string) ([]byte, error) {
	var body bytes.Buffer
	if err := r.md.Convert(doc.Matter.Body, &body); err != nil {
		return nil, fmt.Errorf("convert %s: %w", doc.RelativePath, err)
	}
	data := pageData{
		SiteTitle:   r.site.Title,
		Description: r.site.Description,
		Language:    r.site.Language,
		Title:       doc.Title(),
		Content:     template.HTML(body.String()),
		Nav:         r.navView(sections, doc.URLPath()),
		EditURL:     editURL,
		Stylesheet:  r.stylesheet,
		Canonical:   canonical,
	}
	if !lastMod.IsZero() {
		data.LastMod = lastMod.Format("2006-01-02")
	}
	return r.execute(data)
}

// RenderSectionIndex renders a generated listing page for a section that has
// no index.md of its own.
func (r *Renderer) RenderSectionIndex(section string, items []nav.Item, sections []nav.Section, canonical string) ([]byte, error) {
	var body bytes.Buffer
	fmt.Fprintf(&body, "<h1>%s</h1>\n<ul class=\"section-index\">\n", template.HTMLEscapeString(section))
	for _, item := range items {
		fmt.Fprintf(&body, "<li><a href=%q>%s</a></li>\n", item.URL, template.HTMLEscapeString(item.Title))
	}
	body.WriteString("</ul>\n")

	data := pageData{
		SiteTitle:   r.site.Title,
		Description: r.site.Description,
		Language:    r.site.Language,
		Title:       section,
		Content:     template.HTML(body.String()),
		Nav:         r.navView(sections, "/"+section+"/"),
		Stylesheet:  r.stylesheet,
		Canonical:   canonical,
	}
	return r.execute(data)
}

func (r *Renderer) execute(data pageData) ([]byte, error) {
	var out bytes.Buffer
	if err := r.layout.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("execute layout: %w", err)
	}
	return out.Bytes(), nil
}

func (r *Renderer) navView(sections []nav.Section, activeURL string) []navSectionView {
	out := make([]navSectionView, 0, len(sections))
	for _, s := range sections {
		view := navSectionView{Label: s.Label}
		for _, item := range s.Items {
			view.Items = append(view.Items, navItemView{
				Title:  item.Title,
				URL:    item.URL,
				Active: item.URL == activeURL,
			})
		}
		out = append(out, view)
	}
	return out
}

const layoutTemplate = `<!DOCTYPE html>
<html lang="{{ .Language }}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }} | {{ .SiteTitle }}</title>
{{ if .Description }}<meta name="description" content="{{ .Description }}">
{{ end }}{{ if .Canonical }}<link rel="canonical" href="{{ .Canonical }}">
{{ end }}{{ if .Stylesheet }}<link rel="stylesheet" href="{{ .Stylesheet }}">
{{ end }}</head>
<body>
<header><a href="/">{{ .SiteTitle }}</a></header>
<div class="wrap">
<nav>
{{ range .Nav }}<section>
<h2>{{ .Label }}</h2>
<ul>
{{ range .Items }}<li{{ if .Active }} class="active"{{ end }}><a href="{{ .URL }}">{{ .Title }}</a></li>
{{ end }}</ul>
</section>
{{ end }}</nav>
<main>
{{ .Content }}
{{ if or .LastMod .EditURL }}<footer>
{{ if .LastMod }}<span class="lastmod">Senest opdateret {{ .LastMod }}</span>
{{ end }}{{ if .EditURL }}<a class="edit" href="{{ .EditURL }}">Rediger denne side</a>
{{ end }}</footer>
{{ end }}</main>
</div>
</body>
</html>
`
