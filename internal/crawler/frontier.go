package crawler

import (
	"slices"
	"sync"
)

// Frontier is the crawl's dedup and queue state. The seen set prevents
// duplicate enqueue or accept within a run and only ever grows. Articles
// known from earlier runs are kept apart so they block acceptance without
// hiding listing pages.
type Frontier struct {
	mu       sync.Mutex
	totalCap int
	seen     map[string]struct{}
	known    map[string]struct{}
	articles []string
	pending  []string
}

// NewFrontier creates an empty frontier accepting at most totalCap articles.
func NewFrontier(totalCap int) *Frontier {
	return &Frontier{
		totalCap: totalCap,
		seen:     make(map[string]struct{}),
		known:    make(map[string]struct{}),
	}
}

// Preload records article URLs accepted by earlier runs. They are never
// accepted again, but OfferSeed ignores them.
func (f *Frontier) Preload(urls []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range urls {
		if u != "" {
			f.known[u] = struct{}{}
		}
	}
}

// OfferSeed queues a listing URL unless it has been seen before.
func (f *Frontier) OfferSeed(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rawURL == "" {
		return false
	}
	if _, ok := f.seen[rawURL]; ok {
		return false
	}
	f.seen[rawURL] = struct{}{}
	f.pending = append(f.pending, rawURL)
	return true
}

// OfferArticle accepts an article URL unless it has been seen before or the
// total cap is reached. It reports whether the URL was accepted.
func (f *Frontier) OfferArticle(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rawURL == "" || len(f.articles) >= f.totalCap {
		return false
	}
	if _, ok := f.seen[rawURL]; ok {
		return false
	}
	if _, ok := f.known[rawURL]; ok {
		return false
	}
	f.seen[rawURL] = struct{}{}
	f.articles = append(f.articles, rawURL)
	return true
}

// NextSeed pops the oldest pending listing URL.
func (f *Frontier) NextSeed() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return "", false
	}
	next := f.pending[0]
	f.pending[0] = ""
	f.pending = f.pending[1:]
	return next, true
}

// IsFull reports whether the total article cap has been reached.
func (f *Frontier) IsFull() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.articles) >= f.totalCap
}

// Seen reports whether rawURL was queued or accepted in this run, or
// preloaded from an earlier one.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[rawURL]; ok {
		return true
	}
	_, ok := f.known[rawURL]
	return ok
}

// Pending returns the number of queued listing URLs.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// ArticleURLs returns a copy of the accepted article URLs in discovery order.
func (f *Frontier) ArticleURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.articles)
}

// KnownArticleURLs returns the preloaded article URLs together with those
// accepted in this run, sorted. Listing URLs are not included, so the list
// can be preloaded into a later run.
func (f *Frontier) KnownArticleURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.known)+len(f.articles))
	for u := range f.known {
		out = append(out, u)
	}
	out = append(out, f.articles...)
	slices.Sort(out)
	return slices.Compact(out)
}
