package lint

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/odadocs/odadoc/internal/docmodel"
	"github.com/odadocs/odadoc/internal/docs"
	"github.com/odadocs/odadoc/internal/markdown"
)

// Linter runs the per-document rules plus the cross-document link check over
// a discovered documentation tree.
type Linter struct {
	rules []Rule
}

// NewLinter creates a linter with the default rule set.
func NewLinter() *Linter {
	return &Linter{rules: DefaultRules()}
}

// WithRules replaces the rule set (used by tests and by --fix re-checking).
func (l *Linter) WithRules(rules ...Rule) *Linter {
	l.rules = rules
	return l
}

// Run lints every document in the tree.
func (l *Linter) Run(tree *docs.Tree) *Result {
	result := &Result{FilesTotal: len(tree.Documents)}

	for _, doc := range tree.Documents {
		for _, rule := range l.rules {
			result.Issues = append(result.Issues, rule.Check(doc)...)
		}
		result.Issues = append(result.Issues, checkRelativeLinks(tree, doc)...)
	}

	slog.Debug("Lint completed",
		"files", result.FilesTotal,
		"errors", result.ErrorCount(),
		"warnings", result.WarningCount())
	return result
}

// checkRelativeLinks verifies that every relative link on a page resolves to
// a document or asset in the tree, and that anchors point at real headings.
// External links are the verify command's concern, not lint's.
func checkRelativeLinks(tree *docs.Tree, doc *docmodel.Document) []Issue {
	var issues []Issue
	for _, link := range doc.Links() {
		dest := strings.TrimSpace(link.Destination)
		if dest == "" || isExternalDestination(dest) {
			continue
		}

		target, anchor, _ := strings.Cut(dest, "#")
		if target == "" {
			// Same-page anchor.
			if anchor != "" && !hasAnchor(doc, anchor) {
				issues = append(issues, anchorIssue(doc, doc.RelativePath, anchor, link))
			}
			continue
		}

		if strings.HasPrefix(target, "/") {
			// Site-absolute paths bypass the relative-link contract; the
			// rendered-site verify step checks them instead.
			continue
		}

		if unescaped, err := url.PathUnescape(target); err == nil {
			target = unescaped
		}
		resolved := path.Join(path.Dir(doc.RelativePath), target)
		if strings.HasPrefix(resolved, "..") {
			issues = append(issues, Issue{
				FilePath:    doc.RelativePath,
				Severity:    SeverityError,
				Rule:        "relative-links",
				Message:     fmt.Sprintf("Link escapes the docs tree: %s", dest),
				Explanation: "Relative links must stay inside the documentation root to survive publication.",
				Line:        link.Line,
			})
			continue
		}

		targetDoc := tree.ByRelativePath(resolved)
		if targetDoc == nil && !assetExists(tree, resolved) {
			issues = append(issues, Issue{
				FilePath: doc.RelativePath,
				Severity: SeverityError,
				Rule:     "relative-links",
				Message:  fmt.Sprintf("Broken relative link: %s", dest),
				Fix:      "Update the link target or restore the missing file",
				Line:     link.Line,
			})
			continue
		}
		if targetDoc != nil && anchor != "" && !hasAnchor(targetDoc, anchor) {
			issues = append(issues, anchorIssue(doc, resolved, anchor, link))
		}
	}
	return issues
}

func anchorIssue(doc *docmodel.Document, target, anchor string, link markdown.Link) Issue {
	return Issue{
		FilePath: doc.RelativePath,
		Severity: SeverityWarning,
		Rule:     "relative-links",
		Message:  fmt.Sprintf("Anchor #%s not found in %s", anchor, target),
		Fix:      "Match the anchor to a heading on the target page",
		Line:     link.Line,
	}
}

func hasAnchor(doc *docmodel.Document, anchor string) bool {
	for _, h := range doc.Headings() {
		if h.Anchor == anchor {
			return true
		}
	}
	return false
}

func assetExists(tree *docs.Tree, rel string) bool {
	for _, a := range tree.Assets {
		if a.RelativePath == rel {
			return true
		}
	}
	return false
}

func isExternalDestination(dest string) bool {
	if strings.HasPrefix(dest, "mailto:") || strings.HasPrefix(dest, "tel:") {
		return true
	}
	u, err := url.Parse(dest)
	return err == nil && u.Scheme != ""
}
