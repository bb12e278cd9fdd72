package fetch

import (
	"context"
	"fmt"

	"github.com/dtnitsch/news-clipper/models"
	"github.com/mmcdole/gofeed"
)

// rssSource scrapes an RSS or Atom feed listing.
type rssSource struct {
	cfg    models.SourceConfig
	parser *gofeed.Parser
}

func newRSSSource(cfg models.SourceConfig) *rssSource {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &rssSource{cfg: cfg, parser: parser}
}

func (s *rssSource) ID() string {
	return s.cfg.ID
}

func (s *rssSource) Scrape(ctx context.Context, limit int) (models.CrawlBatch, error) {
	batch := models.CrawlBatch{SourceID: s.cfg.ID}

	feed, err := s.parser.ParseURLWithContext(s.cfg.URL, ctx)
	if err != nil {
		return batch, fmt.Errorf("failed to parse feed %s: %w", s.cfg.URL, err)
	}

	for _, item := range feed.Items {
		if limit > 0 && len(batch.Entries) >= limit {
			break
		}
		published := formatDate(item.PublishedParsed)
		if published == "" {
			published = parseListingDate(item.Published)
		}
		batch.Entries = append(batch.Entries, models.BatchEntry{
			URL:         item.Link,
			Title:       item.Title,
			PublishedAt: published,
		})
	}
	return batch, nil
}
