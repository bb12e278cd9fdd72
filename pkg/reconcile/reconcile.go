// Package reconcile merges freshly scraped crawl batches into the Article
// Store and decides what work the rest of the run still owes: which bodies
// to fetch and which (article, subscriber) pairs to classify. It is pure
// in-memory logic; all I/O happens in the callers.
package reconcile

import (
	"github.com/dtnitsch/news-clipper/models"
	"github.com/dtnitsch/news-clipper/pkg/db"
)

// Summary counts what one merge pass did, for the run report.
type Summary struct {
	NewArticles    int
	SeenArticles   int
	DroppedEntries int // malformed tuples (missing URL), logged and skipped
	Duplicates     int // same URL seen again this run (mirrors or repeats)
}

// Plan is the fetch work left after merging. Keys appear at most once.
type Plan struct {
	Fetch   []models.Key
	Summary Summary
}

// Merge folds crawl batches into the store. Batches must be given in
// config-file source order: when two sources list the same URL in one run,
// the first source claims it and later sightings are dropped as
// duplicates, which keeps the outcome reproducible.
//
// Full mode marks every merged article for refetch and clears its match
// state so every subscriber is re-evaluated. Incremental mode fetches only
// articles that are unseen or still missing a parsed body; articles
// already parsed keep their classifications untouched.
//
// collected_at is set on first sighting only and never refreshed, so an
// old article re-listed by a source cannot re-enter the same-day
// notification window.
func Merge(st *db.Store, batches []models.CrawlBatch, mode models.CrawlMode, runDate string) Plan {
	var plan Plan
	claimed := make(map[string]string) // url -> source that claimed it this run

	for _, batch := range batches {
		for _, entry := range batch.Entries {
			if entry.URL == "" {
				plan.Summary.DroppedEntries++
				continue
			}
			if _, taken := claimed[entry.URL]; taken {
				plan.Summary.Duplicates++
				continue
			}
			claimed[entry.URL] = batch.SourceID

			k := models.Key{SourceID: batch.SourceID, URL: entry.URL}
			_, seen := st.Get(k)

			st.Upsert(models.Article{
				SourceID:    batch.SourceID,
				URL:         entry.URL,
				Title:       entry.Title,
				CollectedAt: runDate,
				PublishedAt: entry.PublishedAt,
			})

			if !seen {
				plan.Summary.NewArticles++
				plan.Fetch = append(plan.Fetch, k)
				continue
			}
			plan.Summary.SeenArticles++

			switch mode {
			case models.CrawlModeFull:
				st.ClearMatches(k)
				plan.Fetch = append(plan.Fetch, k)
			default:
				// Incremental: refetch only if the body never made it in.
				if a, _ := st.Get(k); !a.Parsed && a.CacheKey == "" {
					plan.Fetch = append(plan.Fetch, k)
				}
			}
		}
	}
	return plan
}

// Pair is one outstanding classification: a subscriber who follows the
// article's source but has no match-state entry for it yet.
type Pair struct {
	Key        models.Key
	Subscriber models.Subscriber
}

// PendingEvaluations selects every (article, subscriber) pair that still
// needs classification. Articles without a parsed body are skipped; they
// stay pending and are retried on the next run. Because the selection is
// driven by missing match-state entries rather than article age, a
// subscriber newly added to a source picks up that source's whole backlog
// exactly once, with no refetch.
func PendingEvaluations(st *db.Store, subscribers []models.Subscriber) []Pair {
	var pairs []Pair
	for _, a := range st.All() {
		if !a.Parsed {
			continue
		}
		for _, sub := range subscribers {
			if !sub.SubscribesTo(a.SourceID) {
				continue
			}
			if _, done := a.MatchState[sub.ID]; done {
				continue
			}
			pairs = append(pairs, Pair{Key: a.Key(), Subscriber: sub})
		}
	}
	return pairs
}
