package site

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// writeSitemap writes sitemap.xml for the rendered pages. Pages skipped by
// incremental rebuilds are still listed; they exist in the output tree.
func writeSitemap(outputDir string, pages []*RenderedPage) error {
	set := sitemapURLSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range pages {
		u := sitemapURL{Loc: p.URL}
		if !p.LastModified.IsZero() {
			u.LastMod = p.LastModified.Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sitemap: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	if err := os.WriteFile(filepath.Join(outputDir, "sitemap.xml"), data, 0o644); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	return nil
}
