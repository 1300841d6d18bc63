package linkverify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/odadocs/odadoc/internal/config"
)

// NATSClient is the shared Cache implementation: verification results and
// page hashes live in a JetStream KV bucket, broken links are published as
// events. Several builders (or scheduled runs) can share one bucket.
type NATSClient struct {
	conn       *nats.Conn
	js         jetstream.JetStream
	kv         jetstream.KeyValue
	subject    string
	ttl        time.Duration
	failureTTL time.Duration
}

// NewNATSClient connects to the configured NATS server and opens (or
// creates) the KV bucket.
func NewNATSClient(cfg *config.VerifyConfig) (*NATSClient, error) {
	if cfg == nil || cfg.NATS.URL == "" {
		return nil, errors.New("nats url is not configured")
	}

	conn, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	ttl, _ := time.ParseDuration(cfg.CacheTTL)
	failureTTL, _ := time.ParseDuration(cfg.CacheTTLFailures)

	c := &NATSClient{
		conn:       conn,
		js:         js,
		subject:    cfg.NATS.Subject,
		ttl:        ttl,
		failureTTL: failureTTL,
	}
	if err := c.initBucket(cfg.NATS.KVBucket); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("NATS link cache ready",
		"url", cfg.NATS.URL,
		"subject", c.subject,
		"kv_bucket", cfg.NATS.KVBucket)
	return c, nil
}

func (c *NATSClient) initBucket(bucket string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := c.js.KeyValue(ctx, bucket)
	if err == nil {
		c.kv = kv
		return nil
	}

	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Link verification cache",
		MaxBytes:    100 * 1024 * 1024,
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("create kv bucket %s: %w", bucket, err)
	}
	c.kv = kv
	return nil
}

func (c *NATSClient) GetCachedResult(ctx context.Context, url string) (*CacheEntry, error) {
	entry, err := c.kv.Get(ctx, cacheKey(url))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	var cached CacheEntry
	if err := json.Unmarshal(entry.Value(), &cached); err != nil {
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	return &cached, nil
}

func (c *NATSClient) SetCachedResult(ctx context.Context, entry *CacheEntry) error {
	entry.LastChecked = time.Now()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if _, err := c.kv.Put(ctx, cacheKey(entry.URL), data); err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// IsCacheValid applies the TTLs; the KV store itself keeps entries
// indefinitely, staleness is decided on read.
func (c *NATSClient) IsCacheValid(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	ttl := c.ttl
	if !entry.IsValid {
		ttl = c.failureTTL
	}
	return time.Since(entry.LastChecked) < ttl
}

func (c *NATSClient) GetPageHash(ctx context.Context, path string) (string, error) {
	entry, err := c.kv.Get(ctx, pageHashKey(path))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get page hash: %w", err)
	}
	return string(entry.Value()), nil
}

func (c *NATSClient) SetPageHash(ctx context.Context, path string, hash string) error {
	if _, err := c.kv.Put(ctx, pageHashKey(path), []byte(hash)); err != nil {
		return fmt.Errorf("put page hash: %w", err)
	}
	return nil
}

// PublishBrokenLink publishes a broken link event on the configured subject.
func (c *NATSClient) PublishBrokenLink(ctx context.Context, event *BrokenLinkEvent) error {
	event.Timestamp = time.Now()
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal broken link event: %w", err)
	}
	if _, err := c.js.Publish(ctx, c.subject, data); err != nil {
		return fmt.Errorf("publish broken link event: %w", err)
	}
	slog.Debug("Published broken link event", "url", event.URL, "source", event.RenderedPath)
	return nil
}

func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// KV keys may not contain '/', ' ' or other URL characters; hex-encode the
// payload and keep a short prefix per keyspace.
func cacheKey(url string) string     { return "link." + hex.EncodeToString([]byte(url)) }
func pageHashKey(path string) string { return "page." + hex.EncodeToString([]byte(path)) }
