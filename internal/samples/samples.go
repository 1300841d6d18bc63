// Package samples validates the illustrative code samples embedded in the
// documentation: fenced cURL/Python/JS/TypeScript/JSON blocks showing how to
// call the oda.ft.dk OData API. The samples are documentation content, so
// validation is syntactic and advisory; nothing here executes a sample.
package samples

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/odadocs/odadoc/internal/markdown"
)

// Finding is one problem in a code sample.
type Finding struct {
	Line    int
	Message string
	Fix     string
}

// knownLanguages are the info-string tags used across the docs. An unknown
// tag usually means a typo ("jsos", "pyhton") that disables highlighting.
var knownLanguages = map[string]bool{
	"": true, "text": true, "plaintext": true,
	"bash": true, "sh": true, "shell": true, "console": true, "curl": true,
	"python": true, "py": true,
	"javascript": true, "js": true, "typescript": true, "ts": true,
	"json": true, "xml": true, "http": true, "yaml": true, "csv": true,
	"sql": true, "csharp": true, "java": true, "r": true, "powershell": true,
}

// odaURLWithLiteralDollar matches oda.ft.dk request URLs whose OData system
// options use a literal "$". The API rejects those with HTTP 400; every
// sample must escape "$" as "%24".
var odaURLWithLiteralDollar = regexp.MustCompile(`oda\.ft\.dk/api/[^\s"']*\$\w+`)

// Check validates every fenced sample in a Markdown body.
func Check(body []byte) []Finding {
	findings := make([]Finding, 0)
	for _, block := range markdown.ExtractCodeBlocks(body) {
		findings = append(findings, checkBlock(block)...)
	}
	return findings
}

func checkBlock(block markdown.CodeBlock) []Finding {
	findings := make([]Finding, 0)

	if !knownLanguages[strings.ToLower(block.Language)] {
		findings = append(findings, Finding{
			Line:    block.Line,
			Message: fmt.Sprintf("unknown code sample language %q", block.Language),
			Fix:     "use one of the language tags already in use (bash, python, javascript, typescript, json, ...)",
		})
	}

	if m := odaURLWithLiteralDollar.FindString(block.Body); m != "" {
		findings = append(findings, Finding{
			Line:    block.Line,
			Message: fmt.Sprintf("oda.ft.dk sample uses a literal $ in %q", m),
			Fix:     "escape OData system options as %24 (e.g. %24filter, %24top); the API returns 400 for literal $",
		})
	}

	if strings.EqualFold(block.Language, "json") {
		if err := checkJSON(block.Body); err != nil {
			findings = append(findings, Finding{
				Line:    block.Line,
				Message: fmt.Sprintf("JSON sample does not parse: %v", err),
				Fix:     "fix the sample so it is valid JSON",
			})
		}
	}

	return findings
}

func checkJSON(body string) error {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil
	}
	// Docs sometimes elide long arrays with "...". Tolerate that one idiom.
	if strings.Contains(trimmed, "...") {
		return nil
	}
	var v any
	return json.Unmarshal([]byte(trimmed), &v)
}
