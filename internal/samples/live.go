package samples

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/odadocs/odadoc/internal/markdown"
)

// sampleURL matches absolute HTTP(S) URLs inside sample bodies. Trailing
// quote/bracket characters belong to the surrounding code, not the URL.
var sampleURL = regexp.MustCompile(`https?://[^\s"'` + "`" + `<>)\]]+`)

// URLs returns the distinct request URLs used by the code samples of a
// Markdown body, sorted for stable output.
func URLs(body []byte) []string {
	seen := map[string]bool{}
	for _, block := range markdown.ExtractCodeBlocks(body) {
		for _, raw := range sampleURL.FindAllString(block.Body, -1) {
			u := strings.TrimRight(raw, ".,;:")
			seen[u] = true
		}
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// LiveCheck sends a HEAD request to a sample URL. A sample URL with a
// literal "$" is left to the static check; the request here reports whether
// the documented endpoint answers at all.
func LiveCheck(ctx context.Context, client *http.Client, rawURL string) error {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "odadoc-samples/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// HEAD is not universally supported; 405 means the URL exists.
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusMethodNotAllowed {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return nil
}
