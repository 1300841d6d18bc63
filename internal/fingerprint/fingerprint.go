// Package fingerprint computes stable content fingerprints for documentation
// pages. The serve loop uses them to skip re-rendering unchanged pages.
package fingerprint

import (
	"github.com/inful/mdfp"

	"github.com/odadocs/odadoc/internal/frontmatter"
)

// Compute returns the canonical fingerprint for a page: frontmatter is
// serialized with sorted keys and LF newlines so the hash does not depend on
// key order or platform line endings, then hashed together with the body.
// The fingerprint field itself is excluded so rewriting it is not a change.
func Compute(fields map[string]any, body []byte) (string, error) {
	canonical := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		canonical[k] = v
	}

	fm := ""
	if len(canonical) > 0 {
		serialized, err := frontmatter.Serialize(canonical, "\n")
		if err != nil {
			return "", err
		}
		fm = trimTrailingNewline(string(serialized))
	}

	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

// Changed reports whether the document content differs from a previously
// computed fingerprint, returning the current fingerprint. An empty previous
// fingerprint always counts as changed.
func Changed(previous string, fields map[string]any, body []byte) (bool, string, error) {
	current, err := Compute(fields, body)
	if err != nil {
		return true, "", err
	}
	return previous == "" || current != previous, current, nil
}

func trimTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		return s[:len(s)-1]
	}
	return s
}
