package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDoc = `# Afstemninger

Se [Sag](../sag/index.md) og [API](https://oda.ft.dk/api/Afstemning?%24top=1).

![diagram](../images/voting.png)

<https://oda.ft.dk>

## Eksempel: hent stemmer

` + "```bash\ncurl \"https://oda.ft.dk/api/Stemme?%24top=5\"\n```" + `

[ref]: https://www.ft.dk/
`

func TestExtractLinks_AllKinds(t *testing.T) {
	links := ExtractLinks([]byte(sampleDoc))

	dests := map[LinkKind][]string{}
	for _, l := range links {
		dests[l.Kind] = append(dests[l.Kind], l.Destination)
	}

	require.Contains(t, dests[LinkKindInline], "../sag/index.md")
	require.Contains(t, dests[LinkKindInline], "https://oda.ft.dk/api/Afstemning?%24top=1")
	require.Contains(t, dests[LinkKindImage], "../images/voting.png")
	require.Contains(t, dests[LinkKindAuto], "https://oda.ft.dk")
	require.Contains(t, dests[LinkKindReferenceDefinition], "https://www.ft.dk/")
}

func TestExtractLinks_WhitespaceTargets(t *testing.T) {
	doc := "Se [den gamle side](mangler fil.md) og ![skema](gammelt skema.png).\n\n" +
		"[arkiv]: arkiv 2020.md \"Arkivet\"\n"
	links := ExtractLinks([]byte(doc))

	dests := map[LinkKind][]string{}
	for _, l := range links {
		dests[l.Kind] = append(dests[l.Kind], l.Destination)
	}

	require.Contains(t, dests[LinkKindInline], "mangler fil.md")
	require.Contains(t, dests[LinkKindImage], "gammelt skema.png")
	require.Contains(t, dests[LinkKindReferenceDefinition], "arkiv 2020.md")
}

func TestExtractLinks_WhitespaceTargetsSkipCodeSpansAndFences(t *testing.T) {
	doc := "Skriv `[x](ikke et link.md)` i Markdown.\n\n" +
		"```\n[y](heller ikke.md)\n```\n"
	links := ExtractLinks([]byte(doc))
	require.Empty(t, links)
}

func TestExtractLinks_SkipsCodeBlockContents(t *testing.T) {
	links := ExtractLinks([]byte(sampleDoc))
	for _, l := range links {
		require.NotContains(t, l.Destination, "%24top=5", "fenced sample URLs must not be treated as links")
	}
}

func TestExtractHeadings(t *testing.T) {
	headings := ExtractHeadings([]byte(sampleDoc))
	require.Len(t, headings, 2)

	require.Equal(t, 1, headings[0].Level)
	require.Equal(t, "Afstemninger", headings[0].Text)
	require.Equal(t, "afstemninger", headings[0].Anchor)

	require.Equal(t, 2, headings[1].Level)
	require.Equal(t, "eksempel-hent-stemmer", headings[1].Anchor)
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Sag og Aktør":         "sag-og-aktør",
		"Fejl: 400 Bad Request": "fejl-400-bad-request",
		"  Spaces  everywhere ": "spaces-everywhere",
		"Møde (2024)":           "møde-2024",
	}
	for in, want := range cases {
		require.Equal(t, want, Slug(in), "slug of %q", in)
	}
}

func TestExtractCodeBlocks(t *testing.T) {
	blocks := ExtractCodeBlocks([]byte(sampleDoc))
	require.Len(t, blocks, 1)
	require.Equal(t, "bash", blocks[0].Language)
	require.Contains(t, blocks[0].Body, "curl \"https://oda.ft.dk/api/Stemme?%24top=5\"")
}

func TestExtractCodeBlocks_NoLanguageTag(t *testing.T) {
	blocks := ExtractCodeBlocks([]byte("```\nplain\n```\n"))
	require.Len(t, blocks, 1)
	require.Empty(t, blocks[0].Language)
}
