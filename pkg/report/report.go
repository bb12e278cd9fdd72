// Package report builds per-subscriber views of the day's matched
// articles and renders them as a machine-readable JSON export and an HTML
// report page.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dtnitsch/news-clipper/models"
	"github.com/dtnitsch/news-clipper/pkg/db"
)

// MatchedArticle is one matched row as shown to a subscriber.
type MatchedArticle struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	SourceID    string   `json:"source"`
	CollectedAt string   `json:"collected_at"`
	PublishedAt string   `json:"published_at,omitempty"`
	Language    string   `json:"language,omitempty"`
	KeywordsHit []string `json:"keywords_hit"`
}

// SubscriberReport groups one subscriber's matches for the run date.
type SubscriberReport struct {
	SubscriberID string           `json:"subscriber_id"`
	Email        string           `json:"email"`
	Articles     []MatchedArticle `json:"articles"`
}

// Export is the machine-readable output consumed downstream.
type Export struct {
	RunDate     string             `json:"run_date"`
	Subscribers []SubscriberReport `json:"subscribers"`
}

// Build selects each subscriber's notification set: articles that matched
// their keywords AND were first collected on the run date. Matches found
// on older articles (incremental backfill, newly added subscribers) stay
// recorded in the store but are deliberately excluded, which is what
// prevents re-notification across runs.
func Build(st *db.Store, subscribers []models.Subscriber, runDate string) Export {
	export := Export{RunDate: runDate}

	for _, sub := range subscribers {
		rep := SubscriberReport{
			SubscriberID: sub.ID,
			Email:        sub.Email,
			Articles:     []MatchedArticle{},
		}
		for _, a := range st.All() {
			if !sub.SubscribesTo(a.SourceID) {
				continue
			}
			if a.CollectedAt != runDate {
				continue
			}
			res, ok := a.MatchState[sub.ID]
			if !ok || !res.Matched {
				continue
			}
			rep.Articles = append(rep.Articles, MatchedArticle{
				Title:       a.Title,
				URL:         a.URL,
				SourceID:    a.SourceID,
				CollectedAt: a.CollectedAt,
				PublishedAt: a.PublishedAt,
				Language:    a.Language,
				KeywordsHit: res.KeywordsHit,
			})
		}
		export.Subscribers = append(export.Subscribers, rep)
	}
	return export
}

// WriteJSON writes the export to <dir>/<prefix>_matched_<date>.json.
func WriteJSON(dir, prefix string, export Export) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_matched_%s.json", prefix, export.RunDate))

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}
