package linkverify

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Link is a reference extracted from rendered HTML.
type Link struct {
	URL        string // raw attribute value
	Text       string // link text or alt text
	Tag        string // a, img, script, link
	Attribute  string // href or src
	IsInternal bool   // relative, site-absolute, or same host as the base URL
}

// ExtractLinks extracts all links from an HTML file on disk. Hosts listed in
// internalHosts are classified internal alongside the base URL host.
func ExtractLinks(htmlPath string, baseURL string, internalHosts []string) ([]*Link, error) {
	f, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, fmt.Errorf("open html file %s: %w", htmlPath, err)
	}
	defer f.Close()

	return ExtractLinksFromReader(f, baseURL, internalHosts)
}

// ExtractLinksFromReader extracts all links from an HTML document.
func ExtractLinksFromReader(r io.Reader, baseURL string, internalHosts []string) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}

	var links []*Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l := elementLink(n, base, internalHosts); l != nil {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func elementLink(n *html.Node, base *url.URL, internalHosts []string) *Link {
	switch n.Data {
	case "a":
		if href := attr(n, "href"); href != "" {
			return &Link{URL: href, Text: nodeText(n), Tag: "a", Attribute: "href", IsInternal: isInternal(href, base, internalHosts)}
		}
	case "img":
		if src := attr(n, "src"); src != "" {
			return &Link{URL: src, Text: attr(n, "alt"), Tag: "img", Attribute: "src", IsInternal: isInternal(src, base, internalHosts)}
		}
	case "script":
		if src := attr(n, "src"); src != "" {
			return &Link{URL: src, Tag: "script", Attribute: "src", IsInternal: isInternal(src, base, internalHosts)}
		}
	case "link":
		if href := attr(n, "href"); href != "" {
			return &Link{URL: href, Text: attr(n, "rel"), Tag: "link", Attribute: "href", IsInternal: isInternal(href, base, internalHosts)}
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return strings.TrimSpace(b.String())
}

func isInternal(linkURL string, base *url.URL, internalHosts []string) bool {
	if strings.HasPrefix(linkURL, "#") ||
		strings.HasPrefix(linkURL, "mailto:") ||
		strings.HasPrefix(linkURL, "tel:") {
		return true
	}
	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}
	if u.Scheme == "" || u.Host == "" {
		return true
	}
	if base != nil && u.Host == base.Host {
		return true
	}
	for _, host := range internalHosts {
		if strings.EqualFold(u.Host, host) {
			return true
		}
	}
	return false
}

// FilterLinks keeps links matching the internal/external selection.
func FilterLinks(links []*Link, includeInternal, includeExternal bool) []*Link {
	var out []*Link
	for _, l := range links {
		if (l.IsInternal && includeInternal) || (!l.IsInternal && includeExternal) {
			out = append(out, l)
		}
	}
	return out
}

// ShouldVerify reports whether a link is worth checking at all. Anchors are
// resolved at lint time against heading slugs; non-HTTP schemes carry no
// target we can probe.
func ShouldVerify(link *Link) bool {
	if link.URL == "" || strings.HasPrefix(link.URL, "#") {
		return false
	}
	for _, scheme := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(link.URL, scheme) {
			return false
		}
	}
	return true
}
