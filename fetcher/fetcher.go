// Package fetcher issues single-URL HTTP GETs through a colly collector.
package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config controls fetcher behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// CacheSize bounds the in-memory body cache. Zero disables caching.
	CacheSize int
}

// Metrics receives fetch instrumentation callbacks.
type Metrics interface {
	IncRequest(phase string)
	ObserveDuration(d time.Duration)
	IncCacheHit()
}

// Fetcher fetches page bodies. It is safe for concurrent use: each Fetch
// runs on its own collector so response handlers never share state.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
	cache     *lru.Cache[string, []byte]
	metrics   Metrics
}

// New builds a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	var cache *lru.Cache[string, []byte]
	if cfg.CacheSize > 0 {
		var err error
		cache, err = lru.New[string, []byte](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create fetch cache: %w", err)
		}
	}

	return &Fetcher{
		cfg:       cfg,
		transport: newHTTPTransport(cfg.Timeout),
		cache:     cache,
	}, nil
}

// SetMetrics attaches instrumentation. Pass before the first Fetch.
func (f *Fetcher) SetMetrics(m Metrics) {
	f.metrics = m
}

// WithTransport replaces the HTTP transport, used by tests to install
// mock responders.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.transport = rt
}

// Fetch executes an HTTP GET and returns the response body. Non-success
// statuses and transport failures yield a classified error carrying the
// URL. There are no retries.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		if body, ok := f.cache.Get(url); ok {
			if f.metrics != nil {
				f.metrics.IncCacheHit()
			}
			return body, nil
		}
	}

	if f.metrics != nil {
		f.metrics.IncRequest("fetch")
	}

	var (
		body     []byte
		fetchErr error
	)
	collector := f.newCollector()
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = classifyError(err, statusCode)
	})

	start := time.Now()
	if err := f.runCollector(ctx, collector, url); err != nil {
		// The OnError hook saw the response and classified with the
		// status code; prefer that over the bare Visit error. On
		// cancellation the collector may still be running, so leave
		// fetchErr alone.
		if ctx.Err() == nil && fetchErr != nil {
			err = fetchErr
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, fetchErr)
	}
	if f.metrics != nil {
		f.metrics.ObserveDuration(time.Since(start))
	}

	if f.cache != nil {
		f.cache.Add(url, body)
	}
	return body, nil
}

func (f *Fetcher) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.Async(false),
		colly.UserAgent(f.cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(f.cfg.Timeout)
	c.WithTransport(f.transport)
	return c
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return classifyError(err, 0)
		}
		return nil
	}
}

func newHTTPTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}
