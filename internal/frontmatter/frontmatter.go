package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrUnterminated indicates the document opened a frontmatter block but never
// closed it.
var ErrUnterminated = errors.New("frontmatter opening delimiter without closing delimiter")

// Matter is the parsed frontmatter of a Markdown document together with the
// remaining body and enough formatting detail to rewrite the document without
// churning unrelated bytes.
type Matter struct {
	Fields  map[string]any
	Raw     []byte // YAML between the delimiters, without the delimiters
	Body    []byte
	Present bool
	Newline string // "\n" or "\r\n", detected from the source
}

// Parse splits a document into `---` delimited YAML frontmatter and body and
// decodes the YAML into a field map. Documents without frontmatter are not an
// error; Present is false and Body holds the full input.
func Parse(content []byte) (Matter, error) {
	m := Matter{Newline: detectNewline(content), Fields: map[string]any{}}

	open := []byte("---" + m.Newline)
	if !bytes.HasPrefix(content, open) {
		m.Body = content
		return m, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Empty frontmatter block.
		m.Present = true
		m.Raw = []byte{}
		m.Body = rest[len(open):]
		return m, nil
	}

	closeSeq := []byte(m.Newline + "---" + m.Newline)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return Matter{}, ErrUnterminated
	}

	m.Present = true
	m.Raw = rest[: idx+len(m.Newline) : idx+len(m.Newline)]
	m.Body = rest[idx+len(closeSeq):]

	if len(bytes.TrimSpace(m.Raw)) > 0 {
		if err := yaml.Unmarshal(m.Raw, &m.Fields); err != nil {
			return Matter{}, err
		}
		if m.Fields == nil {
			m.Fields = map[string]any{}
		}
	}
	return m, nil
}

// String returns the string value of a field, or "" when absent or not a string.
func (m Matter) String(key string) string {
	v, _ := m.Fields[key].(string)
	return v
}

// Render reassembles the document. When Present is true the fields are
// serialized deterministically (sorted keys) between `---` delimiters using
// the detected newline style; otherwise the body is returned unchanged.
func (m Matter) Render() ([]byte, error) {
	if !m.Present {
		return m.Body, nil
	}

	nl := m.Newline
	if nl == "" {
		nl = "\n"
	}

	yml, err := Serialize(m.Fields, nl)
	if err != nil {
		return nil, err
	}

	delim := []byte("---" + nl)
	out := make([]byte, 0, 2*len(delim)+len(yml)+len(m.Body))
	out = append(out, delim...)
	out = append(out, yml...)
	out = append(out, delim...)
	out = append(out, m.Body...)
	return out, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
