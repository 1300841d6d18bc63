// Package nav builds the site navigation from the configured sections and
// checks it against the discovered documentation tree.
package nav

import (
	"fmt"

	"github.com/odadocs/odadoc/internal/config"
	"github.com/odadocs/odadoc/internal/docs"
)

// Item is one navigation entry pointing at a rendered page.
type Item struct {
	Title        string
	URL          string
	RelativePath string
}

// Section is a labelled group of navigation items.
type Section struct {
	Label string
	Items []Item
}

// Problem is a navigation inconsistency found while building the tree.
type Problem struct {
	Kind    string // "missing-page" or "orphan-page"
	Page    string
	Section string
}

func (p Problem) String() string {
	switch p.Kind {
	case "missing-page":
		return fmt.Sprintf("nav section %q references %s, which does not exist", p.Section, p.Page)
	case "orphan-page":
		return fmt.Sprintf("%s is not referenced by any nav section", p.Page)
	default:
		return fmt.Sprintf("%s: %s", p.Kind, p.Page)
	}
}

// Build assembles the navigation sections in configured order. Pages named in
// the config but absent from the tree, and documents absent from the config,
// are reported as problems; neither stops the build.
func Build(sections []config.NavSection, tree *docs.Tree) ([]Section, []Problem) {
	out := make([]Section, 0, len(sections))
	problems := make([]Problem, 0)
	referenced := map[string]bool{}

	for _, s := range sections {
		section := Section{Label: s.Section}
		for _, page := range s.Pages {
			referenced[page] = true
			doc := tree.ByRelativePath(page)
			if doc == nil {
				problems = append(problems, Problem{Kind: "missing-page", Page: page, Section: s.Section})
				continue
			}
			section.Items = append(section.Items, Item{
				Title:        doc.Title(),
				URL:          doc.URLPath(),
				RelativePath: doc.RelativePath,
			})
		}
		out = append(out, section)
	}

	for _, doc := range tree.Documents {
		if !referenced[doc.RelativePath] {
			problems = append(problems, Problem{Kind: "orphan-page", Page: doc.RelativePath})
		}
	}

	return out, problems
}

// Fallback derives a navigation tree from the docs tree alone: one section per
// top-level directory, pages in discovery order. Used when no nav is configured.
func Fallback(tree *docs.Tree) []Section {
	bySection := map[string]*Section{}
	order := make([]*Section, 0)

	for _, doc := range tree.Documents {
		label := doc.Section
		if label == "" {
			label = "Overview"
		}
		s, ok := bySection[label]
		if !ok {
			s = &Section{Label: label}
			bySection[label] = s
			order = append(order, s)
		}
		s.Items = append(s.Items, Item{
			Title:        doc.Title(),
			URL:          doc.URLPath(),
			RelativePath: doc.RelativePath,
		})
	}

	out := make([]Section, 0, len(order))
	for _, s := range order {
		out = append(out, *s)
	}
	return out
}
