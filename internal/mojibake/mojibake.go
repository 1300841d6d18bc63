// Package mojibake detects and repairs encoding damage in documentation
// files. The docs tree historically picked up two kinds of damage: emoji and
// Danish letters replaced by stray control bytes, and UTF-8 text that was
// decoded as windows-1252 and re-encoded (the classic "Ã¸ instead of ø").
package mojibake

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// replacements maps known corrupted byte sequences to what the authors wrote.
// The sequences were collected from damaged pages in the docs tree; the icon
// bytes are what survived of emoji after a lossy re-encode.
var replacements = []struct{ old, new string }{
	{"=\x10", "\U0001F512"},    // lock icon
	{"=\x17", "\U0001F517"},    // link icon
	{"<�\x0f", "\U0001F4CB"}, // clipboard icon
	{"\x05", "✅"},         // check icon
	{"F�dt", "Født"},
	{"Akt�r", "Aktør"},
	{"M�de", "Møde"},
}

// Artifact is one detected piece of encoding damage.
type Artifact struct {
	Line    int
	Column  int
	Excerpt string
}

// Detect scans text for encoding damage: known corrupted sequences,
// replacement characters and double-encoded UTF-8 patterns.
func Detect(text string) []Artifact {
	artifacts := make([]Artifact, 0)
	for lineNo, line := range strings.Split(text, "\n") {
		col := suspiciousColumn(line)
		if col < 0 {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Line:    lineNo + 1,
			Column:  col + 1,
			Excerpt: excerpt(line, col),
		})
	}
	return artifacts
}

// Repair applies the known-sequence table, reverses double-encoded UTF-8 and
// finally falls back to mapping any leftover replacement character to "ø",
// the most common casualty in a Danish docs tree.
func Repair(text string) string {
	for _, r := range replacements {
		text = strings.ReplaceAll(text, r.old, r.new)
	}
	text = reverseDoubleEncoding(text)
	return strings.ReplaceAll(text, "�", "ø")
}

// reverseDoubleEncoding undoes UTF-8 read as windows-1252: encode the text
// back to windows-1252 bytes and reinterpret them as UTF-8. Only applied when
// the text shows the telltale lead bytes and the round trip yields valid
// UTF-8, so healthy text passes through untouched.
func reverseDoubleEncoding(text string) string {
	if !looksDoubleEncoded(text) {
		return text
	}
	encoded, err := charmap.Windows1252.NewEncoder().String(text)
	if err != nil {
		return text
	}
	if !utf8.ValidString(encoded) {
		return text
	}
	return encoded
}

// looksDoubleEncoded reports the characteristic "Ã" / "Ã¦" / "Ã¸" pairs of
// UTF-8 Danish text mangled through windows-1252.
func looksDoubleEncoded(text string) bool {
	for _, marker := range []string{"Ã¸", "Ã¦", "Ã¥", "Ã˜", "Ã†", "Ã…", "Ã©"} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func suspiciousColumn(line string) int {
	if i := strings.IndexRune(line, '�'); i >= 0 {
		return i
	}
	for i, r := range line {
		if r < 0x20 && r != '\t' && r != '\r' {
			return i
		}
	}
	for _, marker := range []string{"Ã¸", "Ã¦", "Ã¥"} {
		if i := strings.Index(line, marker); i >= 0 {
			return i
		}
	}
	return -1
}

func excerpt(line string, col int) string {
	start := col - 12
	if start < 0 {
		start = 0
	}
	end := col + 12
	if end > len(line) {
		end = len(line)
	}
	return strings.ToValidUTF8(line[start:end], "�")
}
