package linkverify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/odadocs/odadoc/internal/config"
	"github.com/odadocs/odadoc/internal/metrics"
)

// PageMetadata identifies one rendered page to verify.
type PageMetadata struct {
	SourcePath         string // markdown source, absolute
	SourceRelativePath string // relative to the docs dir
	Section            string
	Title              string
	HTMLPath           string // rendered HTML file
	RenderedPath       string // path relative to the output dir
	PageURL            string // full URL of the page
	ContentHash        string // fingerprint for skip-unchanged
	BuildID            string
	BuildTime          time.Time
}

// Result summarizes one verification run.
type Result struct {
	mu           sync.Mutex
	PagesChecked int
	PagesSkipped int
	LinksChecked int
	CacheHits    int
	Broken       []*BrokenLinkEvent
}

func (r *Result) addBroken(ev *BrokenLinkEvent) {
	r.mu.Lock()
	r.Broken = append(r.Broken, ev)
	r.mu.Unlock()
}

func (r *Result) countLink() {
	r.mu.Lock()
	r.LinksChecked++
	r.mu.Unlock()
}

func (r *Result) countCacheHit() {
	r.mu.Lock()
	r.CacheHits++
	r.mu.Unlock()
}

// Service verifies the links of a rendered site: internal links against the
// output tree, external links over HTTP with bounded concurrency and a
// result cache.
type Service struct {
	cfg        *config.VerifyConfig
	siteDir    string
	baseURL    string
	cache      Cache
	httpClient *http.Client
	recorder   metrics.Recorder

	mu      sync.Mutex
	running bool
	linkSem chan struct{}
	pageSem chan struct{}
}

// NewService creates a verification service. A configured NATS URL selects
// the shared JetStream cache; otherwise results are cached in-process for
// the lifetime of the service.
func NewService(cfg *config.VerifyConfig, siteDir, baseURL string, recorder metrics.Recorder) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("link verification is disabled")
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	var cache Cache
	if cfg.NATS.URL != "" {
		natsCache, err := NewNATSClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("create nats cache: %w", err)
		}
		cache = natsCache
	} else {
		ttl, _ := time.ParseDuration(cfg.CacheTTL)
		failureTTL, _ := time.ParseDuration(cfg.CacheTTLFailures)
		cache = NewMemoryCache(ttl, failureTTL)
	}

	timeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		timeout = 10 * time.Second
	}

	// Clone keeps proxy support from HTTP_PROXY / HTTPS_PROXY / NO_PROXY.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !cfg.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	return &Service{
		cfg:        cfg,
		siteDir:    siteDir,
		baseURL:    baseURL,
		cache:      cache,
		httpClient: httpClient,
		recorder:   recorder,
		linkSem:    make(chan struct{}, maxConcurrent),
		pageSem:    make(chan struct{}, min(maxConcurrent, 4)),
	}, nil
}

// VerifyPages verifies all links in the given pages. Only one run may be
// active per service at a time.
func (s *Service) VerifyPages(ctx context.Context, pages []*PageMetadata) (*Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, errors.New("verification already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	slog.Info("Starting link verification", "page_count", len(pages))

	delay, err := time.ParseDuration(s.cfg.RateLimitDelay)
	if err != nil {
		delay = 100 * time.Millisecond
	}

	result := &Result{}
	var pagesWG sync.WaitGroup
	for _, page := range pages {
		select {
		case <-ctx.Done():
			pagesWG.Wait()
			return result, ctx.Err()
		default:
		}

		time.Sleep(delay)

		select {
		case <-ctx.Done():
			pagesWG.Wait()
			return result, ctx.Err()
		case s.pageSem <- struct{}{}:
		}
		pagesWG.Add(1)
		go func(page *PageMetadata) {
			defer pagesWG.Done()
			defer func() { <-s.pageSem }()
			s.verifyPage(ctx, page, result)
		}(page)
	}
	pagesWG.Wait()

	slog.Info("Link verification completed",
		"pages", result.PagesChecked,
		"skipped", result.PagesSkipped,
		"links", result.LinksChecked,
		"broken", len(result.Broken))
	return result, nil
}

func (s *Service) verifyPage(ctx context.Context, page *PageMetadata, result *Result) {
	// Unchanged pages keep their previous verdicts.
	if page.ContentHash != "" {
		if cached, err := s.cache.GetPageHash(ctx, page.RenderedPath); err == nil && cached == page.ContentHash {
			slog.Debug("Skipping unchanged page", "path", page.RenderedPath)
			result.mu.Lock()
			result.PagesSkipped++
			result.mu.Unlock()
			return
		}
	}
	result.mu.Lock()
	result.PagesChecked++
	result.mu.Unlock()

	links, err := ExtractLinks(page.HTMLPath, s.baseURL, s.cfg.InternalHosts)
	if err != nil {
		slog.Warn("Failed to extract links", "path", page.HTMLPath, "error", err)
		return
	}
	slog.Debug("Extracted links", "path", page.RenderedPath, "link_count", len(links))

	var linksWG sync.WaitGroup
	for _, link := range links {
		if !ShouldVerify(link) {
			continue
		}

		select {
		case <-ctx.Done():
			linksWG.Wait()
			return
		case s.linkSem <- struct{}{}:
		}
		linksWG.Add(1)
		go func(link *Link) {
			defer linksWG.Done()
			defer func() { <-s.linkSem }()
			s.verifyLink(ctx, link, page, result)
		}(link)
	}
	linksWG.Wait()

	if page.ContentHash != "" && ctx.Err() == nil {
		if err := s.cache.SetPageHash(ctx, page.RenderedPath, page.ContentHash); err != nil {
			slog.Debug("Failed to cache page hash", "path", page.RenderedPath, "error", err)
		}
	}
}

func (s *Service) verifyLink(ctx context.Context, link *Link, page *PageMetadata, result *Result) {
	result.countLink()

	// Internal links resolve against the output tree, no HTTP involved.
	if link.IsInternal {
		if err := s.checkInternalLink(link.URL); err != nil {
			s.recorder.IncLinkChecked(false, false)
			s.handleBrokenLink(ctx, link.URL, link, page, 0, err.Error(), nil, result)
		} else {
			s.recorder.IncLinkChecked(false, true)
		}
		return
	}

	cached, err := s.cache.GetCachedResult(ctx, link.URL)
	if err != nil {
		slog.Debug("Cache lookup error", "url", link.URL, "error", err)
	} else if cached != nil && s.cache.IsCacheValid(cached) {
		result.countCacheHit()
		s.recorder.IncLinkCacheHit()
		if !cached.IsValid {
			s.handleBrokenLink(ctx, link.URL, link, page, cached.Status, cached.Error, cached, result)
		}
		return
	}

	start := time.Now()
	status, verifyErr := s.checkExternalLink(ctx, link.URL)
	s.recorder.ObserveLinkCheckDuration(time.Since(start))
	s.recorder.IncLinkChecked(true, verifyErr == nil)

	entry := &CacheEntry{
		URL:         link.URL,
		Status:      status,
		IsValid:     verifyErr == nil,
		LastChecked: time.Now(),
	}
	if verifyErr != nil {
		entry.Error = verifyErr.Error()
		trackFailure(entry, cached)
		s.handleBrokenLink(ctx, link.URL, link, page, status, verifyErr.Error(), entry, result)
	}
	if err := s.cache.SetCachedResult(ctx, entry); err != nil {
		slog.Warn("Failed to update link cache", "url", link.URL, "error", err)
	}
}

// checkInternalLink maps a site-relative URL back to a file in the output
// tree. Clean URLs render to directory indexes, so /om/ and /om both mean
// om/index.html.
func (s *Service) checkInternalLink(linkURL string) error {
	u, err := url.Parse(linkURL)
	if err != nil {
		return fmt.Errorf("unparseable url: %w", err)
	}
	p := u.Path
	if base, err := url.Parse(s.baseURL); err == nil && base.Path != "" && base.Path != "/" {
		p = strings.TrimPrefix(p, strings.TrimSuffix(base.Path, "/"))
	}
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		p = "index.html"
	}

	candidates := []string{p}
	if strings.HasSuffix(p, "/") {
		candidates = []string{p + "index.html"}
	} else if filepath.Ext(p) == "" {
		candidates = []string{p + "/index.html", p + ".html"}
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(filepath.Join(s.siteDir, filepath.FromSlash(candidate))); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no file for %s in output tree", u.Path)
}

func (s *Service) checkExternalLink(ctx context.Context, linkURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, linkURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "odadoc-linkverify/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// 401/403/405 mean the URL exists but wants credentials or a different
	// method; those are not broken links.
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusMethodNotAllowed:
		return resp.StatusCode, nil
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp.StatusCode, nil
}

func trackFailure(entry *CacheEntry, cached *CacheEntry) {
	if cached != nil {
		entry.FailureCount = cached.FailureCount + 1
		entry.FirstFailedAt = cached.FirstFailedAt
	} else {
		entry.FailureCount = 1
	}
	if entry.FirstFailedAt.IsZero() {
		entry.FirstFailedAt = time.Now()
	}
	entry.ConsecutiveFail = true
}

func (s *Service) handleBrokenLink(ctx context.Context, absoluteURL string, link *Link, page *PageMetadata, status int, errorMsg string, cached *CacheEntry, result *Result) {
	event := &BrokenLinkEvent{
		URL:        absoluteURL,
		Status:     status,
		Error:      errorMsg,
		IsInternal: link.IsInternal,

		SourcePath:         page.SourcePath,
		SourceRelativePath: page.SourceRelativePath,
		Section:            page.Section,
		Title:              page.Title,
		RenderedPath:       page.RenderedPath,
		PageURL:            page.PageURL,

		BuildID:   page.BuildID,
		BuildTime: page.BuildTime,
	}
	if cached != nil {
		event.FailureCount = cached.FailureCount
		event.FirstFailedAt = cached.FirstFailedAt
		event.LastChecked = cached.LastChecked
	}

	result.addBroken(event)

	if err := s.cache.PublishBrokenLink(ctx, event); err != nil {
		slog.Error("Failed to publish broken link event", "url", absoluteURL, "error", err)
	}
	slog.Warn("Broken link detected",
		"url", absoluteURL,
		"source", page.RenderedPath,
		"status", status,
		"error", errorMsg)
}

// Close releases the cache connection.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
