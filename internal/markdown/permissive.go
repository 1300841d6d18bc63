package markdown

import "strings"

// extractPermissiveLinks scans raw lines for link targets goldmark refuses to
// parse, typically destinations with unescaped whitespace. Only such targets
// are returned; everything goldmark accepts is covered by the AST pass, so the
// two passes never overlap.
func extractPermissiveLinks(body []byte) []Link {
	inFence := false
	fence := ""

	var out []Link
	for i, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			marker := trimmed[:3]
			switch {
			case !inFence:
				inFence, fence = true, marker
			case fence == marker:
				inFence, fence = false, ""
			}
			continue
		}
		if inFence || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}

		clean := stripCodeSpans(line)
		for _, l := range scanLinkLine(clean) {
			l.Line = i + 1
			out = append(out, l)
		}
	}
	return out
}

// scanLinkLine finds inline links, image links and reference definitions whose
// target contains whitespace.
func scanLinkLine(line string) []Link {
	var out []Link
	for i := 0; i+1 < len(line); i++ {
		if line[i] != ']' || line[i+1] != '(' {
			continue
		}
		open := strings.LastIndex(line[:i], "[")
		if open == -1 {
			continue
		}
		end := strings.Index(line[i+2:], ")")
		if end == -1 {
			continue
		}
		target := line[i+2 : i+2+end]
		if !strings.ContainsAny(target, " \t") {
			continue
		}
		kind := LinkKindInline
		if open > 0 && line[open-1] == '!' {
			kind = LinkKindImage
		}
		out = append(out, Link{Kind: kind, Destination: target})
	}
	if ref, ok := scanReferenceDefinition(line); ok {
		out = append(out, ref)
	}
	return out
}

func scanReferenceDefinition(line string) (Link, bool) {
	trimmed := strings.TrimSpace(line)
	// Footnote definitions ([^1]: ...) are not reference links.
	if !strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "[^") {
		return Link{}, false
	}
	_, after, ok := strings.Cut(trimmed, "]:")
	if !ok {
		return Link{}, false
	}

	target := strings.TrimSpace(after)
	if before, _, ok := strings.Cut(target, ` "`); ok {
		target = before
	} else if before, _, ok := strings.Cut(target, ` '`); ok {
		target = before
	}
	target = strings.TrimSpace(target)
	if target == "" || !strings.ContainsAny(target, " \t") {
		return Link{}, false
	}
	return Link{Kind: LinkKindReferenceDefinition, Destination: target}, true
}

// stripCodeSpans removes inline code spans so backticked example links are not
// reported. Unclosed backtick runs are kept as-is.
func stripCodeSpans(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '`' {
			b.WriteByte(s[i])
			i++
			continue
		}
		run := 1
		for i+run < len(s) && s[i+run] == '`' {
			run++
		}
		marker := s[i : i+run]
		rel := strings.Index(s[i+run:], marker)
		if rel == -1 {
			b.WriteString(marker)
			i += run
			continue
		}
		i += run + rel + run
	}
	return b.String()
}
