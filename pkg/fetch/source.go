package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dtnitsch/news-clipper/models"
)

// Source produces one crawl batch per scrape pass. Implementations are
// listing-only: they never fetch article bodies, which is the crawl
// phase's job so that body fetches can be deduplicated and pooled.
type Source interface {
	ID() string
	Scrape(ctx context.Context, limit int) (models.CrawlBatch, error)
}

// New builds a Source from its config entry.
func New(cfg models.SourceConfig, f *Fetcher) (Source, error) {
	switch cfg.Kind {
	case "rss":
		return newRSSSource(cfg), nil
	case "html":
		return newHTMLSource(cfg, f), nil
	default:
		return nil, fmt.Errorf("source %q has unknown kind %q", cfg.ID, cfg.Kind)
	}
}

// parseListingDate normalizes the free-form date strings sources publish.
// An unparseable date is dropped rather than failing the entry; the
// collection date still anchors the article in time.
func parseListingDate(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return ""
	}
	return t.Format(models.DateFormat)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.DateFormat)
}
