// Package odata is a small typed client for the Danish Parliament's public
// OData 3.0 endpoint at https://oda.ft.dk/api/. The verify command uses it to
// check that the entity sets the documentation describes actually exist and
// answer queries.
//
// The endpoint has one famous quirk the whole documentation revolves around:
// OData system options must be sent with the dollar sign percent-encoded
// (%24filter, %24top, ...); a literal $ yields HTTP 400. url.Values encoding
// produces %24 already, so every request built here is safe.
package odata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://oda.ft.dk/api/"

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("odata: %s returned HTTP %d", e.URL, e.StatusCode)
}

// Envelope is the OData 3.0 JSON response wrapper.
type Envelope struct {
	Metadata string            `json:"odata.metadata"`
	Count    string            `json:"odata.count"`
	NextLink string            `json:"odata.nextLink"`
	Value    []json.RawMessage `json:"value"`
}

// Client issues queries against an OData endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for the given endpoint (DefaultBaseURL when
// empty).
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "odadoc",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches one page of an entity set.
func (c *Client) Get(ctx context.Context, entitySet string, q Query) (*Envelope, error) {
	u := c.baseURL + url.PathEscape(entitySet)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return c.fetch(ctx, u)
}

// Next fetches the page behind an odata.nextLink.
func (c *Client) Next(ctx context.Context, nextLink string) (*Envelope, error) {
	return c.fetch(ctx, nextLink)
}

// All fetches every page of a query, following odata.nextLink, and returns
// the concatenated values. Use a $top in the query (or a ctx deadline) to
// bound the walk; some entity sets hold hundreds of thousands of rows.
func (c *Client) All(ctx context.Context, entitySet string, q Query) ([]json.RawMessage, error) {
	env, err := c.Get(ctx, entitySet, q)
	if err != nil {
		return nil, err
	}
	values := env.Value
	for env.NextLink != "" {
		if env, err = c.Next(ctx, env.NextLink); err != nil {
			return values, err
		}
		values = append(values, env.Value...)
	}
	return values, nil
}

// Probe checks that an entity set exists and answers queries, using the
// cheapest request the endpoint supports.
func (c *Client) Probe(ctx context.Context, entitySet string) error {
	_, err := c.Get(ctx, entitySet, Query{Top: 1})
	return err
}

func (c *Client) fetch(ctx context.Context, u string) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", u, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: u, Body: string(body)}
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", u, err)
	}
	return &env, nil
}

// Cases fetches one page of Sag rows.
func (c *Client) Cases(ctx context.Context, q Query) ([]Sag, string, error) {
	return decodePage[Sag](c, ctx, "Sag", q)
}

// Actors fetches one page of Aktør rows.
func (c *Client) Actors(ctx context.Context, q Query) ([]Aktør, string, error) {
	return decodePage[Aktør](c, ctx, "Aktør", q)
}

// VotingSessions fetches one page of Afstemning rows.
func (c *Client) VotingSessions(ctx context.Context, q Query) ([]Afstemning, string, error) {
	return decodePage[Afstemning](c, ctx, "Afstemning", q)
}

// Votes fetches one page of Stemme rows.
func (c *Client) Votes(ctx context.Context, q Query) ([]Stemme, string, error) {
	return decodePage[Stemme](c, ctx, "Stemme", q)
}

func decodePage[T any](c *Client, ctx context.Context, entitySet string, q Query) ([]T, string, error) {
	env, err := c.Get(ctx, entitySet, q)
	if err != nil {
		return nil, "", err
	}
	out := make([]T, 0, len(env.Value))
	for _, raw := range env.Value {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, "", fmt.Errorf("decode %s row: %w", entitySet, err)
		}
		out = append(out, item)
	}
	return out, env.NextLink, nil
}
