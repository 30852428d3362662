package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSiteURL is the news site crawled when no other base is configured.
const DefaultSiteURL = "https://www.zvezdaaltaya.ru"

// KnownURLs answers whether a URL has already been discovered.
type KnownURLs interface {
	Seen(rawURL string) bool
}

// LinkExtractor classifies anchors on a listing page as article links or
// further listing (seed) links, based on the site's URL shape.
//
// Articles live under /YYYY/MM/<slug>. Day archives (/YYYY/MM/DD) share that
// prefix but are listings, so they are never classified as articles.
type LinkExtractor struct {
	article    *regexp.Regexp
	dayArchive *regexp.Regexp
	site       *regexp.Regexp
}

// NewLinkExtractor builds the URL patterns for the site rooted at baseURL.
func NewLinkExtractor(baseURL string) (*LinkExtractor, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("site base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse site base URL: %w", err)
	}
	quoted := regexp.QuoteMeta(base)
	return &LinkExtractor{
		article:    regexp.MustCompile(`^` + quoted + `/\d{4}/\d{2}/.+`),
		dayArchive: regexp.MustCompile(`^` + quoted + `/\d{4}/\d{2}/\d{2}(/|$)`),
		site:       regexp.MustCompile(`^` + quoted + `/.+`),
	}, nil
}

// IsArticleURL reports whether rawURL has the article shape.
func (x *LinkExtractor) IsArticleURL(rawURL string) bool {
	return x.article.MatchString(rawURL) && !x.dayArchive.MatchString(rawURL)
}

// IsSiteURL reports whether rawURL belongs to the crawled site.
func (x *LinkExtractor) IsSiteURL(rawURL string) bool {
	return x.site.MatchString(rawURL)
}

// ExtractArticleLinks returns article links on doc that known has not seen,
// in encounter order. A link repeated on the same page is returned once.
func (x *LinkExtractor) ExtractArticleLinks(doc *goquery.Document, known KnownURLs) []string {
	return x.collect(doc, known, x.IsArticleURL)
}

// ExtractSeedLinks returns site links on doc that known has not seen, in
// encounter order. A link repeated on the same page is returned once.
func (x *LinkExtractor) ExtractSeedLinks(doc *goquery.Document, known KnownURLs) []string {
	return x.collect(doc, known, x.IsSiteURL)
}

func (x *LinkExtractor) collect(doc *goquery.Document, known KnownURLs, keep func(string) bool) []string {
	if doc == nil {
		return nil
	}
	var out []string
	onPage := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := resolveHref(doc.Url, href)
		if !ok || !keep(link) {
			return
		}
		if _, dup := onPage[link]; dup {
			return
		}
		onPage[link] = struct{}{}
		if known != nil && known.Seen(link) {
			return
		}
		out = append(out, link)
	})
	return out
}

// resolveHref makes href absolute against base and drops the fragment.
func resolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	ref.Fragment = ""
	ref.RawFragment = ""
	return ref.String(), true
}
