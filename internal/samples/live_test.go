package samples

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestURLs(t *testing.T) {
	body := []byte("# Eksempler\n\n```bash\ncurl \"https://oda.ft.dk/api/Sag?%24top=5\"\n```\n\n" +
		"```python\nresp = requests.get('https://oda.ft.dk/api/Afstemning?%24expand=Stemme')\n```\n\n" +
		"```bash\n# samme URL igen\ncurl \"https://oda.ft.dk/api/Sag?%24top=5\"\n```\n")

	urls := URLs(body)
	require.Equal(t, []string{
		"https://oda.ft.dk/api/Afstemning?%24expand=Stemme",
		"https://oda.ft.dk/api/Sag?%24top=5",
	}, urls)
}

func TestURLs_IgnoresProseLinks(t *testing.T) {
	body := []byte("Se [dokumentationen](https://oda.ft.dk/) for detaljer.\n")
	require.Empty(t, URLs(body))
}

func TestLiveCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/dead" {
			http.Error(w, "gone", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	require.NoError(t, LiveCheck(context.Background(), srv.Client(), srv.URL+"/ok"))

	err := LiveCheck(context.Background(), srv.Client(), srv.URL+"/dead")
	require.ErrorContains(t, err, "HTTP 404")
}

func TestLiveCheck_MethodNotAllowedIsFine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no HEAD here", http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	require.NoError(t, LiveCheck(context.Background(), srv.Client(), srv.URL))
}
