// Package app wires the crawl pipeline: it prepares the artifact store, runs
// the crawler, parses every discovered article and writes a run report.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/zvezda-crawler/internal/article"
	"github.com/JakeFAU/zvezda-crawler/internal/artifact"
	"github.com/JakeFAU/zvezda-crawler/internal/clock/system"
	"github.com/JakeFAU/zvezda-crawler/internal/config"
	"github.com/JakeFAU/zvezda-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/zvezda-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/zvezda-crawler/internal/id/uuid"
	"github.com/JakeFAU/zvezda-crawler/internal/metrics"
	"github.com/JakeFAU/zvezda-crawler/internal/storage"
	"github.com/JakeFAU/zvezda-crawler/internal/storage/local"
	"github.com/JakeFAU/zvezda-crawler/internal/storage/memory"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// RunReport summarises one pipeline run. It is written as run_report.json.
type RunReport struct {
	RunID         string           `json:"run_id"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at"`
	ArticlesFound int              `json:"articles_found"`
	PagesFetched  int              `json:"pages_fetched"`
	SeedsSkipped  int              `json:"seeds_skipped"`
	Succeeded     []int            `json:"succeeded"`
	Failed        []ArticleFailure `json:"failed"`
}

// ArticleFailure records why article ID could not be processed.
type ArticleFailure struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Error string `json:"error"`
}

// App holds the long-lived services of one pipeline.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	blobs   storage.Provider
	store   *artifact.Store
	fetcher crawler.Fetcher
	ids     IDGenerator
	clock   Clock
}

// Option customises App construction.
type Option func(*App)

// WithFetcher replaces the colly fetcher.
func WithFetcher(f crawler.Fetcher) Option {
	return func(a *App) { a.fetcher = f }
}

// WithStorage replaces the configured blob store.
func WithStorage(p storage.Provider) Option {
	return func(a *App) { a.blobs = p }
}

// WithIDGenerator replaces the UUID run id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(a *App) { a.ids = g }
}

// WithClock replaces the wall clock used for report timestamps.
func WithClock(c Clock) Option {
	return func(a *App) { a.clock = c }
}

// New builds the services described by cfg. Storage directories are created
// here, before any fetch happens.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:    cfg,
		logger: logger,
		ids:    uuid.New(),
		clock:  system.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.blobs == nil {
		blobs, err := newBlobStore(cfg.Storage)
		if err != nil {
			return nil, err
		}
		a.blobs = blobs
	}
	a.store = artifact.New(a.blobs)

	if a.fetcher == nil {
		pacer := crawler.NewPacer(cfg.Fetcher.MinDelay, cfg.Fetcher.MaxDelay)
		a.fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Fetcher.UserAgent,
			Timeout:   cfg.Fetcher.Timeout,
		}, pacer, logger)
	}
	return a, nil
}

func newBlobStore(cfg config.StorageConfig) (storage.Provider, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewBlobStore(), nil
	case config.BackendLocal, "":
		blobs, err := local.New(local.Config{BaseDir: cfg.Root})
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		for _, dir := range []string{"articles", "pages"} {
			if err := os.MkdirAll(filepath.Join(cfg.Root, dir), 0o750); err != nil {
				return nil, fmt.Errorf("prepare storage: %w", err)
			}
		}
		return blobs, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Storage exposes the blob store artifacts are written to.
func (a *App) Storage() storage.Provider {
	return a.blobs
}

// Run crawls for article URLs, then parses each one under the next free
// article ids. A failing article is recorded in the report and the batch
// moves on.
func (a *App) Run(ctx context.Context) (RunReport, error) {
	runID, err := a.ids.NewID()
	if err != nil {
		return RunReport{}, err
	}
	report := RunReport{
		RunID:     runID,
		StartedAt: a.clock.Now(),
		Succeeded: []int{},
		Failed:    []ArticleFailure{},
	}
	logger := a.logger.With(zap.String("run_id", runID))

	counters, err := a.store.LoadCounters(ctx)
	if err != nil {
		return report, err
	}

	frontier := crawler.NewFrontier(a.cfg.Crawl.TotalArticles)
	if err := a.preloadSeen(frontier, logger); err != nil {
		return report, err
	}

	links, err := crawler.NewLinkExtractor(a.cfg.Site.BaseURL)
	if err != nil {
		return report, err
	}
	settings := a.cfg.CrawlSettings()
	settings.LastPageID = counters.LastPageID
	engine := crawler.NewEngine(settings, a.fetcher, links, a.store, logger)
	res, crawlErr := engine.Run(ctx, frontier)
	report.PagesFetched = res.PagesFetched
	report.SeedsSkipped = res.SeedsSkipped
	report.ArticlesFound = len(res.ArticleURLs)

	// Reserve every id handed out before anything else can fail, so an
	// interrupted run never causes a later one to overwrite its files.
	firstArticleID := counters.LastArticleID + 1
	updated := counters
	updated.LastPageID = max(updated.LastPageID, res.LastPageID)
	if crawlErr == nil {
		updated.LastArticleID += len(res.ArticleURLs)
	}
	if updated != counters {
		if err := a.store.SaveCounters(context.WithoutCancel(ctx), updated); err != nil {
			return report, err
		}
	}
	if crawlErr != nil {
		return report, crawlErr
	}

	if err := a.store.SaveURLList(ctx, artifact.RunFile(runID, artifact.ArticleURLsFile), res.ArticleURLs); err != nil {
		return report, err
	}
	if err := a.store.SaveURLList(ctx, artifact.SeenURLsFile, frontier.KnownArticleURLs()); err != nil {
		return report, err
	}

	parser := article.NewParser(a.fetcher, a.store, logger)
	for i, articleURL := range res.ArticleURLs {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("parse interrupted: %w", err)
		}
		id := firstArticleID + i
		if err := a.processArticle(ctx, parser, articleURL, id); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, fmt.Errorf("parse interrupted: %w", err)
			}
			report.Failed = append(report.Failed, ArticleFailure{ID: id, URL: articleURL, Error: err.Error()})
			metrics.ObserveArticle(metrics.ArticleFailed)
			logger.Warn("article failed", zap.Int("id", id), zap.String("url", articleURL), zap.Error(err))
			continue
		}
		report.Succeeded = append(report.Succeeded, id)
		metrics.ObserveArticle(metrics.ArticleSucceeded)
	}

	report.FinishedAt = a.clock.Now()
	if err := a.store.SaveJSON(ctx, artifact.RunFile(runID, artifact.RunReportFile), report); err != nil {
		return report, err
	}

	logger.Info("run finished",
		zap.Int("articles_found", report.ArticlesFound),
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("seeds_skipped", report.SeedsSkipped),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (a *App) processArticle(ctx context.Context, parser *article.Parser, articleURL string, id int) error {
	rec, err := parser.Parse(ctx, articleURL, id)
	if err != nil {
		return err
	}
	if err := parser.SaveRaw(ctx, rec); err != nil {
		return err
	}
	return parser.SaveMeta(ctx, rec)
}

// preloadSeen loads article URLs accepted by earlier runs so they are not
// accepted again. A missing file is treated as empty.
func (a *App) preloadSeen(frontier *crawler.Frontier, logger *zap.Logger) error {
	path := a.cfg.Crawler.SeenURLsFile
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("seen urls file not found; starting fresh", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seen urls: %w", err)
	}
	urls, err := artifact.ParseURLList(data)
	if err != nil {
		return err
	}
	frontier.Preload(urls)
	logger.Info("preloaded seen urls", zap.String("path", path), zap.Int("count", len(urls)))
	return nil
}
