package lint

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/odadocs/odadoc/internal/docmodel"
	"github.com/odadocs/odadoc/internal/mojibake"
	"github.com/odadocs/odadoc/internal/samples"
)

// Rule checks one parsed document for problems.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check inspects a document and returns any issues found.
	Check(doc *docmodel.Document) []Issue
}

// DefaultRules returns the per-document rules in reporting order.
func DefaultRules() []Rule {
	return []Rule{
		&FilenameRule{},
		&FrontmatterTitleRule{},
		&EncodingRule{},
		&CodeSamplesRule{},
	}
}

// FilenameRule enforces URL-friendly file names: lowercase, hyphen-separated,
// no spaces or special characters. File names become URL slugs, so anything
// else produces inconsistent or %-escaped links.
type FilenameRule struct{}

func (r *FilenameRule) Name() string { return "filename-conventions" }

func (r *FilenameRule) Check(doc *docmodel.Document) []Issue {
	filename := filepath.Base(doc.RelativePath)
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	var issues []Issue

	if stem != strings.ToLower(stem) {
		issues = append(issues, Issue{
			FilePath: doc.RelativePath,
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  "Filename contains uppercase letters",
			Explanation: "File names become URL slugs; case sensitivity varies by platform " +
				"and mixed-case slugs break links between mirrors of the site.",
			Fix: "Rename to lowercase: " + strings.ToLower(filename),
		})
	}

	if strings.Contains(filename, " ") {
		issues = append(issues, Issue{
			FilePath: doc.RelativePath,
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  "Filename contains spaces",
			Explanation: "Spaces become %20 in URLs and break cross-references " +
				"written without the escape.",
			Fix: "Rename using hyphens: " + suggestFilename(filename),
		})
	}

	if bad := specialChars(stem); len(bad) > 0 {
		issues = append(issues, Issue{
			FilePath:    doc.RelativePath,
			Severity:    SeverityError,
			Rule:        r.Name(),
			Message:     "Filename contains special characters: " + strings.Join(bad, ", "),
			Explanation: "Only letters, digits, hyphens and underscores survive slugification.",
			Fix:         "Rename using hyphens: " + suggestFilename(filename),
		})
	}

	return issues
}

func suggestFilename(filename string) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(stem) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-") + ext
}

func specialChars(stem string) []string {
	seen := map[rune]bool{}
	var out []string
	for _, r := range stem {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			continue
		}
		if r == ' ' { // reported by the dedicated space check
			continue
		}
		if !seen[r] {
			seen[r] = true
			out = append(out, fmt.Sprintf("%q", r))
		}
	}
	return out
}

// FrontmatterTitleRule requires parseable frontmatter with a title field.
// Pages without a title fall back to file-name headings in the navigation,
// which reads poorly for Danish entity names (aktoer.md vs "Aktør").
type FrontmatterTitleRule struct{}

func (r *FrontmatterTitleRule) Name() string { return "frontmatter-title" }

func (r *FrontmatterTitleRule) Check(doc *docmodel.Document) []Issue {
	if !doc.Matter.Present {
		return []Issue{{
			FilePath:    doc.RelativePath,
			Severity:    SeverityWarning,
			Rule:        r.Name(),
			Message:     "Page has no frontmatter",
			Explanation: "Without frontmatter the navigation title is derived from the first heading or the file name.",
			Fix:         "Add a frontmatter block with a title field",
		}}
	}
	if doc.Matter.String("title") == "" {
		return []Issue{{
			FilePath: doc.RelativePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  "Frontmatter has no title",
			Fix:      "Add `title:` to the frontmatter",
		}}
	}
	return nil
}

// EncodingRule reports mojibake: replacement characters, stray control bytes
// and double-encoded Danish text.
type EncodingRule struct{}

func (r *EncodingRule) Name() string { return "encoding-artifacts" }

func (r *EncodingRule) Check(doc *docmodel.Document) []Issue {
	artifacts := mojibake.Detect(string(doc.Raw))
	issues := make([]Issue, 0, len(artifacts))
	for _, a := range artifacts {
		issues = append(issues, Issue{
			FilePath: doc.RelativePath,
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  fmt.Sprintf("Encoding damage near %q", a.Excerpt),
			Explanation: "The file contains bytes that survived a lossy re-encode " +
				"(UTF-8 read as a legacy codepage). Danish letters and icons render as garbage.",
			Fix:  "Run `odadoc lint --fix` to repair the known sequences",
			Line: a.Line,
		})
	}
	return issues
}

// CodeSamplesRule validates the fenced samples on a page.
type CodeSamplesRule struct{}

func (r *CodeSamplesRule) Name() string { return "code-samples" }

func (r *CodeSamplesRule) Check(doc *docmodel.Document) []Issue {
	findings := samples.Check(doc.Matter.Body)

	// Sample lines are body-relative; shift them past the frontmatter block.
	offset := 0
	if doc.Matter.Present {
		offset = strings.Count(string(doc.Raw[:len(doc.Raw)-len(doc.Matter.Body)]), "\n")
	}

	issues := make([]Issue, 0, len(findings))
	for _, f := range findings {
		line := f.Line
		if line > 0 {
			line += offset
		}
		issues = append(issues, Issue{
			FilePath: doc.RelativePath,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  f.Message,
			Fix:      f.Fix,
			Line:     line,
		})
	}
	return issues
}
