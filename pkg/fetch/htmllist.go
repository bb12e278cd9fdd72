package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/news-clipper/models"
)

// htmlSource scrapes an article listing straight off an HTML page using
// the selectors from its config entry.
type htmlSource struct {
	cfg     models.SourceConfig
	fetcher *Fetcher
}

func newHTMLSource(cfg models.SourceConfig, f *Fetcher) *htmlSource {
	return &htmlSource{cfg: cfg, fetcher: f}
}

func (s *htmlSource) ID() string {
	return s.cfg.ID
}

func (s *htmlSource) Scrape(ctx context.Context, limit int) (models.CrawlBatch, error) {
	batch := models.CrawlBatch{SourceID: s.cfg.ID}

	doc, err := s.fetcher.GetDocument(ctx, s.cfg.URL)
	if err != nil {
		return batch, err
	}

	base, err := url.Parse(s.cfg.URL)
	if err != nil {
		return batch, fmt.Errorf("invalid source URL %s: %w", s.cfg.URL, err)
	}

	linkSel := s.cfg.LinkSelector
	if linkSel == "" {
		linkSel = "a"
	}

	doc.Find(s.cfg.ItemSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if limit > 0 && len(batch.Entries) >= limit {
			return false
		}

		link := item.Find(linkSel).First()
		if item.Is(linkSel) {
			link = item
		}
		href, _ := link.Attr("href")

		title := link.Text()
		if s.cfg.TitleSelector != "" {
			title = item.Find(s.cfg.TitleSelector).First().Text()
		}

		var published string
		if s.cfg.DateSelector != "" {
			published = parseListingDate(strings.TrimSpace(item.Find(s.cfg.DateSelector).First().Text()))
		}

		// Malformed items (no href) still produce an entry; the
		// reconciliation step drops and counts them.
		batch.Entries = append(batch.Entries, models.BatchEntry{
			URL:         resolveURL(base, href),
			Title:       strings.TrimSpace(title),
			PublishedAt: published,
		})
		return true
	})

	return batch, nil
}

// resolveURL makes listing hrefs absolute against the listing page URL.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
