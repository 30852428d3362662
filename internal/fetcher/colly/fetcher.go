// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/zvezda-crawler/internal/crawler"
	"github.com/JakeFAU/zvezda-crawler/internal/metrics"
)

// DefaultUserAgent identifies requests as a desktop browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/88.0.4324.182 Safari/537.36"

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Pauser throttles requests after each fetch attempt.
type Pauser interface {
	Pause(ctx context.Context)
}

// Fetcher implements crawler.Fetcher using the Colly collector. Only HTTP 200
// counts as success; every attempt is followed by a pause.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	pacer         Pauser
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. pacer may be nil to disable throttling.
func New(cfg Config, pacer Pauser, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(
		colly.Async(false),
		colly.UserAgent(cfg.UserAgent),
	)
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	// Non-2xx responses are classified here rather than by colly.
	c.ParseHTTPErrorResponse = true
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		pacer:         pacer,
		logger:        logger,
	}
}

// Fetch executes a single HTTP GET. Any status other than 200 yields a
// *crawler.BadStatusCodeError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (crawler.Page, error) {
	defer f.pause(ctx)

	var (
		result   crawler.Page
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, rawURL, &result, &fetchErr)

	start := time.Now()
	err := f.runCollector(ctx, collector, rawURL, &fetchErr)
	if err != nil {
		if ctx.Err() != nil {
			return crawler.Page{}, err
		}
		metrics.ObserveFetch(result.StatusCode)
		f.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return crawler.Page{}, err
	}
	metrics.ObserveFetch(result.StatusCode)
	f.logger.Debug("fetched",
		zap.String("url", rawURL),
		zap.Int("status_code", result.StatusCode),
		zap.Int("bytes", len(result.Body)),
		zap.Duration("duration", time.Since(start)),
	)

	if result.StatusCode != http.StatusOK {
		return crawler.Page{}, &crawler.BadStatusCodeError{URL: rawURL, StatusCode: result.StatusCode}
	}
	return result, nil
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	rawURL string,
	result *crawler.Page,
	fetchErr *error,
) {
	hooks.OnResponse(func(r *colly.Response) {
		finalURL := rawURL
		if r.Request != nil && r.Request.URL != nil {
			finalURL = r.Request.URL.String()
		}
		*result = crawler.Page{
			URL:        rawURL,
			FinalURL:   finalURL,
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, rawURL string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch %s canceled: %w", rawURL, ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("fetch %s: %w", rawURL, *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("fetch %s: %w", rawURL, err)
		}
		return nil
	}
}

func (f *Fetcher) pause(ctx context.Context) {
	if f.pacer != nil {
		f.pacer.Pause(ctx)
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
	}
}
