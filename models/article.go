// Package models defines the data structures shared across the pipeline.
package models

import "time"

// CrawlMode controls how a run treats previously seen articles.
type CrawlMode string

const (
	// CrawlModeIncremental processes only new or changed work.
	CrawlModeIncremental CrawlMode = "incremental"
	// CrawlModeFull refetches and reclassifies everything.
	CrawlModeFull CrawlMode = "full"
)

// DateFormat is the layout used for collection dates throughout the store.
const DateFormat = "2006-01-02"

// Key uniquely identifies an article in the store.
type Key struct {
	SourceID string
	URL      string
}

// MatchResult records one subscriber's classification of one article.
// ContentHash pins the result to the content version it was computed
// against; a refetch that changes the hash invalidates the result.
type MatchResult struct {
	Matched     bool
	KeywordsHit []string
	ContentHash string
	EvaluatedAt time.Time
}

// Article is one row of the Article Store. CollectedAt is the date the
// listing was first observed and is never refreshed on re-sighting, so
// the same-day notification window cannot re-admit old articles.
type Article struct {
	SourceID    string
	URL         string
	Title       string
	CollectedAt string // DateFormat, first sighting only
	PublishedAt string // DateFormat, from the source listing when available
	CacheKey    string // empty until the body has been fetched
	ContentHash string // hash of the cached raw body
	Parsed      bool
	Language    string // ISO 639-1, informational only
	MatchState  map[string]MatchResult
}

// Key returns the article's primary key.
func (a *Article) Key() Key {
	return Key{SourceID: a.SourceID, URL: a.URL}
}

// BatchEntry is one listing tuple produced by a source scrape.
type BatchEntry struct {
	URL         string
	Title       string
	PublishedAt string // DateFormat, may be empty
}

// CrawlBatch is the output of one scrape pass over one source.
// It is ephemeral: the reconciliation step consumes it entirely.
type CrawlBatch struct {
	SourceID string
	Entries  []BatchEntry
}

// Subscriber is a recipient with a keyword list and source subscriptions.
// Loaded once from configuration and immutable for the run.
type Subscriber struct {
	ID       string   `yaml:"id"`
	Email    string   `yaml:"email"`
	Keywords []string `yaml:"keywords"`
	Sources  []string `yaml:"sources"`
}

// SubscribesTo reports whether the subscriber follows the given source.
func (s Subscriber) SubscribesTo(sourceID string) bool {
	for _, id := range s.Sources {
		if id == sourceID {
			return true
		}
	}
	return false
}
