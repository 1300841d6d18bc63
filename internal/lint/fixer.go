package lint

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/odadocs/odadoc/internal/docmodel"
	"github.com/odadocs/odadoc/internal/docs"
	"github.com/odadocs/odadoc/internal/mojibake"
)

// FileFix is one planned change to a documentation file.
type FileFix struct {
	Path         string // absolute path on disk
	RelativePath string
	Reasons      []string
	NewContent   []byte
}

// FixResult summarizes what the fixer did (or would do under dry-run).
type FixResult struct {
	Planned []FileFix
	Applied int
	Skipped int
}

// Fixer applies the automatic fixes: mojibake repair and missing frontmatter
// titles derived from the first heading.
type Fixer struct {
	// Confirm is called once before writing when neither DryRun nor Yes is
	// set. Defaults to an interactive stdin prompt.
	Confirm func(prompt string) bool

	out io.Writer
}

// NewFixer creates a fixer writing human output to w (os.Stdout in the CLI).
func NewFixer(w io.Writer) *Fixer {
	return &Fixer{out: w, Confirm: stdinConfirm}
}

// Fix plans and (unless dry-run) applies fixes for the whole tree.
func (f *Fixer) Fix(tree *docs.Tree, opts Options) (*FixResult, error) {
	result := &FixResult{}

	for _, doc := range tree.Documents {
		fix, err := planFix(doc)
		if err != nil {
			return nil, fmt.Errorf("plan fix for %s: %w", doc.RelativePath, err)
		}
		if fix != nil {
			result.Planned = append(result.Planned, *fix)
		}
	}

	if len(result.Planned) == 0 {
		fmt.Fprintln(f.out, "Nothing to fix.")
		return result, nil
	}

	for _, fix := range result.Planned {
		fmt.Fprintf(f.out, "%s: %s\n", fix.RelativePath, strings.Join(fix.Reasons, "; "))
	}

	if opts.DryRun {
		fmt.Fprintf(f.out, "Dry run: %d file(s) would be changed.\n", len(result.Planned))
		result.Skipped = len(result.Planned)
		return result, nil
	}

	if !opts.Yes {
		prompt := fmt.Sprintf("Apply fixes to %d file(s)?", len(result.Planned))
		if !f.Confirm(prompt) {
			fmt.Fprintln(f.out, "Aborted; no files changed.")
			result.Skipped = len(result.Planned)
			return result, nil
		}
	}

	for _, fix := range result.Planned {
		if err := os.WriteFile(fix.Path, fix.NewContent, 0o644); err != nil {
			return result, fmt.Errorf("write %s: %w", fix.RelativePath, err)
		}
		result.Applied++
		slog.Info("Fixed documentation file", "path", fix.RelativePath, "reasons", fix.Reasons)
	}
	fmt.Fprintf(f.out, "Fixed %d file(s).\n", result.Applied)
	return result, nil
}

// planFix computes the fixed content for one document, or nil when clean.
func planFix(doc *docmodel.Document) (*FileFix, error) {
	content := string(doc.Raw)
	var reasons []string

	repaired := mojibake.Repair(content)
	if repaired != content {
		reasons = append(reasons, "repaired encoding damage")
		content = repaired
	}

	// Re-parse after the repair; the frontmatter may have been damaged too.
	if withTitle, ok, err := addMissingTitle([]byte(content)); err == nil && ok {
		reasons = append(reasons, "added frontmatter title")
		content = string(withTitle)
	}

	if len(reasons) == 0 {
		return nil, nil
	}
	return &FileFix{
		Path:         doc.Path,
		RelativePath: doc.RelativePath,
		Reasons:      reasons,
		NewContent:   []byte(content),
	}, nil
}

// addMissingTitle injects a title derived from the first H1 when frontmatter
// exists but lacks one. Pages without frontmatter are left alone: inventing a
// block rewrites the whole file head, which is the author's call.
func addMissingTitle(content []byte) ([]byte, bool, error) {
	parsed, err := docmodel.Parse("", "fix.md", content)
	if err != nil {
		return nil, false, err
	}
	if !parsed.Matter.Present || parsed.Matter.String("title") != "" {
		return nil, false, nil
	}

	title := ""
	for _, h := range parsed.Headings() {
		if h.Level == 1 {
			title = h.Text
			break
		}
	}
	if title == "" {
		return nil, false, nil
	}

	parsed.Matter.Fields["title"] = title
	out, err := parsed.Matter.Render()
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func stdinConfirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
