package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/zvezda-crawler/internal/metrics"
)

// Engine walks listing pages breadth-first, feeding discovered links into a
// Frontier until the article cap is reached or the seeds run out.
//
// Per seed the engine moves READY -> FETCHING -> EXTRACTING (or SKIPPED when
// the fetch fails) -> READY, and stops in DONE.
type Engine struct {
	cfg     Config
	fetcher Fetcher
	links   *LinkExtractor
	pages   PageStore
	logger  *zap.Logger

	// nextPageID is only advanced by successful fetches.
	nextPageID int
}

// NewEngine wires an Engine. pages may be nil to skip listing page persistence.
func NewEngine(cfg Config, fetcher Fetcher, links *LinkExtractor, pages PageStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		fetcher:    fetcher,
		links:      links,
		pages:      pages,
		logger:     logger,
		nextPageID: cfg.LastPageID,
	}
}

// Run crawls from the configured seeds into frontier. Fetch failures skip the
// offending seed; only cancellation and storage failures abort the run.
func (e *Engine) Run(ctx context.Context, frontier *Frontier) (Result, error) {
	var res Result
	if err := e.cfg.Validate(); err != nil {
		return res, fmt.Errorf("invalid crawl config: %w", err)
	}
	for _, seed := range e.cfg.Seeds {
		frontier.OfferSeed(seed)
	}

	for !frontier.IsFull() {
		if e.cfg.MaxPages > 0 && res.PagesFetched >= e.cfg.MaxPages {
			e.logger.Info("page budget exhausted", zap.Int("max_pages", e.cfg.MaxPages))
			break
		}
		if err := ctx.Err(); err != nil {
			return e.finish(res, frontier), fmt.Errorf("crawl interrupted: %w", err)
		}
		seed, ok := frontier.NextSeed()
		if !ok {
			break
		}

		page, err := e.fetcher.Fetch(ctx, seed)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return e.finish(res, frontier), fmt.Errorf("crawl interrupted: %w", err)
			}
			res.SeedsSkipped++
			metrics.ObserveSeedSkipped()
			e.logger.Warn("seed skipped", zap.String("url", seed), zap.Error(err))
			continue
		}

		if err := e.visit(ctx, frontier, page); err != nil {
			return e.finish(res, frontier), err
		}
		res.PagesFetched++
	}

	res = e.finish(res, frontier)
	e.logger.Info("crawl finished",
		zap.Int("articles", len(res.ArticleURLs)),
		zap.Int("pages_fetched", res.PagesFetched),
		zap.Int("seeds_skipped", res.SeedsSkipped),
		zap.Int("seeds_pending", frontier.Pending()),
	)
	return res, nil
}

func (e *Engine) visit(ctx context.Context, frontier *Frontier, page Page) error {
	e.nextPageID++
	pageID := e.nextPageID
	if e.pages != nil {
		if err := e.pages.SaveListingPage(ctx, pageID, page.Body); err != nil {
			return fmt.Errorf("save listing page %d: %w", pageID, err)
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		e.logger.Warn("unparseable listing page", zap.String("url", page.URL), zap.Error(err))
		return nil
	}
	if base, err := url.Parse(page.BaseURL()); err == nil {
		doc.Url = base
	}

	accepted := 0
	for _, link := range e.links.ExtractArticleLinks(doc, frontier) {
		if e.cfg.PerSeedCap > 0 && accepted >= e.cfg.PerSeedCap {
			break
		}
		if frontier.OfferArticle(link) {
			accepted++
			metrics.ObserveArticleAccepted()
		}
		if frontier.IsFull() {
			break
		}
	}

	queued := 0
	for _, link := range e.links.ExtractSeedLinks(doc, frontier) {
		// Article-shaped links stay out of the seed queue so a page that hit
		// its per-seed cap does not burn them as listings.
		if e.links.IsArticleURL(link) {
			continue
		}
		if frontier.OfferSeed(link) {
			queued++
		}
	}

	e.logger.Debug("listing page processed",
		zap.Int("page_id", pageID),
		zap.String("url", page.URL),
		zap.Int("articles_accepted", accepted),
		zap.Int("seeds_queued", queued),
	)
	return nil
}

func (e *Engine) finish(res Result, frontier *Frontier) Result {
	urls := frontier.ArticleURLs()
	if len(urls) > e.cfg.TotalArticleCap {
		urls = urls[:e.cfg.TotalArticleCap]
	}
	res.ArticleURLs = urls
	res.LastPageID = e.nextPageID
	return res
}
