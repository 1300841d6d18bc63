package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_NoFrontmatter_BodyOnly(t *testing.T) {
	input := []byte("# Sag\n\nCases in the Parliament.\n")

	m, err := Parse(input)
	require.NoError(t, err)
	require.False(t, m.Present)
	require.Equal(t, input, m.Body)
	require.Empty(t, m.Fields)
}

func TestParse_Frontmatter_SplitsFieldsAndBody(t *testing.T) {
	input := []byte("---\ntitle: Afstemninger\nweight: 3\n---\n# Afstemninger\n")

	m, err := Parse(input)
	require.NoError(t, err)
	require.True(t, m.Present)
	require.Equal(t, "Afstemninger", m.String("title"))
	require.Equal(t, 3, m.Fields["weight"])
	require.Equal(t, []byte("# Afstemninger\n"), m.Body)
}

func TestParse_EmptyBlock(t *testing.T) {
	m, err := Parse([]byte("---\n---\nbody\n"))
	require.NoError(t, err)
	require.True(t, m.Present)
	require.Empty(t, m.Raw)
	require.Equal(t, []byte("body\n"), m.Body)
}

func TestParse_Unterminated_ReturnsError(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: x\nbody\n"))
	require.ErrorIs(t, err, ErrUnterminated)
}

func TestParse_CRLF(t *testing.T) {
	m, err := Parse([]byte("---\r\ntitle: Stemme\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.True(t, m.Present)
	require.Equal(t, "\r\n", m.Newline)
	require.Equal(t, "Stemme", m.String("title"))
}

func TestRender_RoundTripIsStable(t *testing.T) {
	input := []byte("---\na: 1\nb: two\n---\nbody\n")

	m, err := Parse(input)
	require.NoError(t, err)

	out, err := m.Render()
	require.NoError(t, err)

	again, err := Parse(out)
	require.NoError(t, err)
	out2, err := again.Render()
	require.NoError(t, err)
	require.Equal(t, out, out2)
}

func TestSerialize_SortsKeys(t *testing.T) {
	out, err := Serialize(map[string]any{"zebra": 1, "alpha": "x"}, "\n")
	require.NoError(t, err)
	require.Equal(t, "alpha: x\nzebra: 1\n", string(out))
}

func TestSerialize_NestedAndSequences(t *testing.T) {
	out, err := Serialize(map[string]any{
		"tags": []string{"odata", "api"},
		"meta": map[string]any{"draft": false},
	}, "\n")
	require.NoError(t, err)
	require.Equal(t, "meta:\n  draft: false\ntags:\n  - odata\n  - api\n", string(out))
}
