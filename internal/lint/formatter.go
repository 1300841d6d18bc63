package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Format writes the lint result in the requested format.
func Format(w io.Writer, result *Result, opts Options) error {
	issues := result.Issues
	if opts.Quiet {
		filtered := make([]Issue, 0, len(issues))
		for _, issue := range issues {
			if issue.Severity == SeverityError {
				filtered = append(filtered, issue)
			}
		}
		issues = filtered
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(&Result{Issues: issues, FilesTotal: result.FilesTotal})
	}

	// Text output groups issues per file, files sorted for stable output.
	byFile := map[string][]Issue{}
	files := make([]string, 0)
	for _, issue := range issues {
		if _, ok := byFile[issue.FilePath]; !ok {
			files = append(files, issue.FilePath)
		}
		byFile[issue.FilePath] = append(byFile[issue.FilePath], issue)
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Fprintf(w, "%s\n", file)
		for _, issue := range byFile[file] {
			location := ""
			if issue.Line > 0 {
				location = fmt.Sprintf(":%d", issue.Line)
			}
			fmt.Fprintf(w, "  %s%s [%s] %s\n", issue.Severity, location, issue.Rule, issue.Message)
			if issue.Fix != "" {
				fmt.Fprintf(w, "    fix: %s\n", issue.Fix)
			}
		}
	}

	fmt.Fprintf(w, "\n%d file(s) scanned, %d error(s), %d warning(s)\n",
		result.FilesTotal, result.ErrorCount(), result.WarningCount())
	return nil
}
