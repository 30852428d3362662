// Package article turns a single article page into a normalized record and
// persists it through the artifact store.
package article

import (
	"fmt"
	"time"

	"github.com/JakeFAU/zvezda-crawler/internal/artifact"
)

// DateLayout is the calendar date format used in N_meta.json.
const DateLayout = "2006-01-02"

// Record is the normalized representation of one parsed article.
type Record struct {
	ID     int
	URL    string
	Title  string
	Author string
	// PublishedDate carries no time component (midnight UTC).
	PublishedDate time.Time
	Body          string
}

// Meta converts the record into its metadata file shape.
func (r Record) Meta() artifact.Meta {
	date := ""
	if !r.PublishedDate.IsZero() {
		date = r.PublishedDate.Format(DateLayout)
	}
	return artifact.Meta{
		URL:    r.URL,
		Title:  r.Title,
		Date:   date,
		Author: r.Author,
	}
}

// recordFromMeta rebuilds a record (without body) from stored metadata.
func recordFromMeta(id int, meta artifact.Meta) (Record, error) {
	rec := Record{
		ID:     id,
		URL:    meta.URL,
		Title:  meta.Title,
		Author: meta.Author,
	}
	if meta.Date != "" {
		date, err := time.ParseInLocation(DateLayout, meta.Date, time.UTC)
		if err != nil {
			return Record{}, fmt.Errorf("meta %d: %w: %w", id, ErrDateParse, err)
		}
		rec.PublishedDate = date
	}
	return rec, nil
}
