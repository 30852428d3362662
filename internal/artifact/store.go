// Package artifact lays out crawl artifacts on a blob store. Every article id
// N owns four independent objects under articles/: N_page.html, N_raw.txt,
// N_meta.json and N_processed.txt. Listing pages fetched while crawling are
// kept as pages/N.html. Ids are unique across runs sharing a store; the
// highest ids in use are kept in ids.json. Per-run files live under
// runs/<run id>/.
package artifact

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/JakeFAU/zvezda-crawler/internal/storage"
)

// Object names. SeenURLsFile and CountersFile sit at the store root; the
// others are per run, see RunFile.
const (
	ArticleURLsFile = "article_urls.txt"
	SeenURLsFile    = "seen_urls.txt"
	RunReportFile   = "run_report.json"
	CountersFile    = "ids.json"
)

const (
	articlesDir = "articles"
	pagesDir    = "pages"
	runsDir     = "runs"

	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json"
)

// Meta is the on-disk shape of N_meta.json.
type Meta struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Date   string `json:"date"`
	Author string `json:"author"`
}

// Counters records the highest article and listing page ids allocated in a
// store.
type Counters struct {
	LastArticleID int `json:"last_article_id"`
	LastPageID    int `json:"last_page_id"`
}

// Store reads and writes artifacts keyed by id. Writes overwrite any earlier
// object of the same kind for that id.
type Store struct {
	blobs storage.Provider
}

// New wraps a blob store.
func New(blobs storage.Provider) *Store {
	return &Store{blobs: blobs}
}

// SaveListingPage stores the HTML of a crawled listing page.
func (s *Store) SaveListingPage(ctx context.Context, id int, body []byte) error {
	return s.put(ctx, path.Join(pagesDir, fmt.Sprintf("%d.html", id)), contentTypeHTML, body)
}

// SavePage stores the fetched HTML of article id.
func (s *Store) SavePage(ctx context.Context, id int, body []byte) error {
	return s.put(ctx, articlePath(id, "page.html"), contentTypeHTML, body)
}

// SaveRaw stores the extracted body text of article id.
func (s *Store) SaveRaw(ctx context.Context, id int, text string) error {
	return s.put(ctx, articlePath(id, "raw.txt"), contentTypeText, []byte(text))
}

// LoadRawText returns the extracted body text of article id.
func (s *Store) LoadRawText(ctx context.Context, id int) (string, error) {
	data, err := s.get(ctx, articlePath(id, "raw.txt"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveMeta stores the metadata of article id.
func (s *Store) SaveMeta(ctx context.Context, id int, meta Meta) error {
	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta %d: %w", id, err)
	}
	return s.put(ctx, articlePath(id, "meta.json"), contentTypeJSON, payload)
}

// LoadMeta returns the metadata of article id.
func (s *Store) LoadMeta(ctx context.Context, id int) (Meta, error) {
	data, err := s.get(ctx, articlePath(id, "meta.json"))
	if err != nil {
		return Meta{}, err
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("decode meta %d: %w", id, err)
	}
	return meta, nil
}

// SaveProcessed stores post-processed text for article id.
func (s *Store) SaveProcessed(ctx context.Context, id int, text string) error {
	return s.put(ctx, articlePath(id, "processed.txt"), contentTypeText, []byte(text))
}

// LoadProcessed returns post-processed text for article id.
func (s *Store) LoadProcessed(ctx context.Context, id int) (string, error) {
	data, err := s.get(ctx, articlePath(id, "processed.txt"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveURLList writes urls one per line to name.
func (s *Store) SaveURLList(ctx context.Context, name string, urls []string) error {
	var buf bytes.Buffer
	for _, u := range urls {
		buf.WriteString(u)
		buf.WriteByte('\n')
	}
	return s.put(ctx, name, contentTypeText, buf.Bytes())
}

// LoadURLList reads a list written by SaveURLList, skipping blank lines.
func (s *Store) LoadURLList(ctx context.Context, name string) ([]string, error) {
	data, err := s.get(ctx, name)
	if err != nil {
		return nil, err
	}
	return ParseURLList(data)
}

// SaveJSON writes v as indented JSON to name.
func (s *Store) SaveJSON(ctx context.Context, name string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return s.put(ctx, name, contentTypeJSON, payload)
}

// RunFile names a per-run object.
func RunFile(runID, name string) string {
	return path.Join(runsDir, runID, name)
}

// LoadCounters returns the stored id counters. A store without ids.json
// starts from zero.
func (s *Store) LoadCounters(ctx context.Context) (Counters, error) {
	data, err := s.blobs.GetObject(ctx, CountersFile)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return Counters{}, nil
	}
	if err != nil {
		return Counters{}, fmt.Errorf("read %s: %w", CountersFile, err)
	}
	var c Counters
	if err := json.Unmarshal(data, &c); err != nil {
		return Counters{}, fmt.Errorf("decode %s: %w", CountersFile, err)
	}
	return c, nil
}

// SaveCounters persists the id counters.
func (s *Store) SaveCounters(ctx context.Context, c Counters) error {
	return s.SaveJSON(ctx, CountersFile, c)
}

// ParseURLList splits a newline separated URL list.
func ParseURLList(data []byte) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan url list: %w", err)
	}
	return urls, nil
}

func (s *Store) put(ctx context.Context, name, contentType string, data []byte) error {
	if _, err := s.blobs.PutObject(ctx, name, contentType, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.blobs.GetObject(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func articlePath(id int, kind string) string {
	return path.Join(articlesDir, fmt.Sprintf("%d_%s", id, kind))
}
