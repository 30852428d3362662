package article

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/zvezda-crawler/internal/artifact"
	"github.com/JakeFAU/zvezda-crawler/internal/crawler"
)

// TitleSuffix is appended to every page title by the site template.
const TitleSuffix = " - Звезда Алтая"

// FooterParagraphs is the number of trailing <p> elements the site template
// appends to every article. They are dropped from the body as-is; there is no
// smarter boilerplate detection.
const FooterParagraphs = 3

// Selectors for the article template.
const (
	dateSelector   = "span.mg-blog-date"
	authorSelector = "h4.media-heading a"
)

// Parser fetches article pages, extracts records and exposes the per-id
// persistence operations.
type Parser struct {
	fetcher crawler.Fetcher
	store   *artifact.Store
	logger  *zap.Logger
}

// NewParser wires a Parser.
func NewParser(fetcher crawler.Fetcher, store *artifact.Store, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
	}
}

// Parse fetches rawURL, stores the page HTML as id and extracts the record.
func (p *Parser) Parse(ctx context.Context, rawURL string, id int) (Record, error) {
	page, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Record{}, fmt.Errorf("article %d: %w", id, err)
	}
	if err := p.store.SavePage(ctx, id, page.Body); err != nil {
		return Record{}, fmt.Errorf("article %d: %w", id, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return Record{}, fmt.Errorf("article %d: parse html: %w", id, err)
	}
	rec, err := Extract(doc)
	if err != nil {
		return Record{}, fmt.Errorf("article %d (%s): %w", id, rawURL, err)
	}
	rec.ID = id
	rec.URL = rawURL

	p.logger.Debug("article parsed",
		zap.Int("id", id),
		zap.String("url", rawURL),
		zap.String("title", rec.Title),
		zap.Int("body_chars", len([]rune(rec.Body))),
	)
	return rec, nil
}

// Extract reads title, date, author and body from an article document.
func Extract(doc *goquery.Document) (Record, error) {
	rawDate := strings.TrimSpace(doc.Find(dateSelector).First().Text())
	if rawDate == "" {
		return Record{}, fmt.Errorf("%w: no %s element", ErrDateParse, dateSelector)
	}
	date, err := NormalizeDate(rawDate)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Title:         extractTitle(doc),
		Author:        strings.TrimSpace(doc.Find(authorSelector).First().Text()),
		PublishedDate: date,
		Body:          extractBody(doc),
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return strings.TrimSuffix(title, TitleSuffix)
}

// extractBody joins the text of every paragraph except the last
// FooterParagraphs with single spaces.
func extractBody(doc *goquery.Document) string {
	paragraphs := doc.Find("p")
	keep := paragraphs.Length() - FooterParagraphs
	if keep <= 0 {
		return ""
	}
	parts := make([]string, 0, keep)
	paragraphs.Slice(0, keep).Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(s.Text()))
	})
	return strings.Join(parts, " ")
}

// SaveRaw stores the record body as N_raw.txt.
func (p *Parser) SaveRaw(ctx context.Context, rec Record) error {
	return p.store.SaveRaw(ctx, rec.ID, rec.Body)
}

// SaveMeta stores url, title, date and author as N_meta.json.
func (p *Parser) SaveMeta(ctx context.Context, rec Record) error {
	return p.store.SaveMeta(ctx, rec.ID, rec.Meta())
}

// LoadMeta reads N_meta.json back into a record without body.
func (p *Parser) LoadMeta(ctx context.Context, id int) (Record, error) {
	meta, err := p.store.LoadMeta(ctx, id)
	if err != nil {
		return Record{}, err
	}
	return recordFromMeta(id, meta)
}

// LoadRawText reads N_raw.txt.
func (p *Parser) LoadRawText(ctx context.Context, id int) (string, error) {
	return p.store.LoadRawText(ctx, id)
}

// SaveProcessed stores the output of an external text processing stage.
func (p *Parser) SaveProcessed(ctx context.Context, id int, text string) error {
	return p.store.SaveProcessed(ctx, id, text)
}
