package crawler

import (
	"context"
	"fmt"
)

// Page is the result returned by a Fetcher implementation.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// HTML returns the page body as text.
func (p Page) HTML() string {
	return string(p.Body)
}

// BaseURL returns the URL relative links on the page resolve against.
func (p Page) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// Fetcher fetches a URL and returns its body. It is the only network I/O
// point of the pipeline.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// PageStore persists listing pages fetched while crawling.
type PageStore interface {
	SaveListingPage(ctx context.Context, id int, body []byte) error
}

// Config holds the settings for one crawl run. It is passed by value into
// the Engine.
type Config struct {
	Seeds           []string
	TotalArticleCap int
	// PerSeedCap bounds the number of article links accepted from a single
	// listing page. Zero disables the bound.
	PerSeedCap int
	// MaxPages bounds the number of listing pages fetched. Zero means no bound.
	MaxPages int
	// LastPageID is the highest listing page id already in use. The first
	// page saved by this run gets LastPageID+1.
	LastPageID int
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if len(c.Seeds) == 0 {
		return fmt.Errorf("at least one seed URL is required")
	}
	if c.TotalArticleCap <= 0 {
		return fmt.Errorf("total article cap must be > 0")
	}
	if c.PerSeedCap < 0 {
		return fmt.Errorf("per-seed cap must be >= 0")
	}
	if c.PerSeedCap > c.TotalArticleCap {
		return fmt.Errorf("per-seed cap %d exceeds total article cap %d", c.PerSeedCap, c.TotalArticleCap)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages must be >= 0")
	}
	if c.LastPageID < 0 {
		return fmt.Errorf("last page id must be >= 0")
	}
	return nil
}

// Result summarises a finished crawl.
type Result struct {
	// ArticleURLs holds accepted article URLs in discovery order.
	ArticleURLs  []string
	PagesFetched int
	SeedsSkipped int
	// LastPageID is the highest listing page id allocated so far, including
	// ids from earlier runs.
	LastPageID int
}
