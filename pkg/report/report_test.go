package report

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/dtnitsch/news-clipper/models"
	"github.com/dtnitsch/news-clipper/pkg/db"
)

func setupTestStore(t *testing.T) *db.Store {
	t.Helper()

	database, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	st, err := database.LoadStore()
	if err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	return st
}

func addMatchedArticle(t *testing.T, st *db.Store, sourceID, url, title, collectedAt, subID string, hits []string) {
	t.Helper()

	k := models.Key{SourceID: sourceID, URL: url}
	st.Upsert(models.Article{SourceID: sourceID, URL: url, Title: title, CollectedAt: collectedAt})
	st.SetContent(k, "cachekey-"+url, "hash-"+url)
	st.SetParsed(k, title, "en")
	st.SetMatch(k, subID, models.MatchResult{
		Matched:     len(hits) > 0,
		KeywordsHit: hits,
		ContentHash: "hash-" + url,
	})
}

func TestBuild_OnlyTodaysMatches(t *testing.T) {
	st := setupTestStore(t)
	alice := models.Subscriber{ID: "alice", Email: "alice@example.com", Keywords: []string{"election"}, Sources: []string{"hn"}}

	addMatchedArticle(t, st, "hn", "https://example.com/today", "Today's match", "2026-08-30", "alice", []string{"election"})
	addMatchedArticle(t, st, "hn", "https://example.com/old", "Backfilled match", "2026-08-01", "alice", []string{"election"})
	addMatchedArticle(t, st, "hn", "https://example.com/miss", "No match", "2026-08-30", "alice", nil)

	export := Build(st, []models.Subscriber{alice}, "2026-08-30")

	if export.RunDate != "2026-08-30" {
		t.Errorf("RunDate = %q, want %q", export.RunDate, "2026-08-30")
	}
	if len(export.Subscribers) != 1 {
		t.Fatalf("subscriber count = %d, want 1", len(export.Subscribers))
	}
	rep := export.Subscribers[0]
	if len(rep.Articles) != 1 {
		t.Fatalf("article count = %d, want 1 (today's match only)", len(rep.Articles))
	}
	if rep.Articles[0].URL != "https://example.com/today" {
		t.Errorf("article URL = %q, want today's match", rep.Articles[0].URL)
	}
}

func TestBuild_NoRenotificationNextDay(t *testing.T) {
	st := setupTestStore(t)
	alice := models.Subscriber{ID: "alice", Email: "alice@example.com", Keywords: []string{"election"}, Sources: []string{"hn"}}

	addMatchedArticle(t, st, "hn", "https://example.com/a", "Match", "2026-08-30", "alice", []string{"election"})

	day1 := Build(st, []models.Subscriber{alice}, "2026-08-30")
	if len(day1.Subscribers[0].Articles) != 1 {
		t.Fatalf("day 1 article count = %d, want 1", len(day1.Subscribers[0].Articles))
	}

	day2 := Build(st, []models.Subscriber{alice}, "2026-08-31")
	if len(day2.Subscribers[0].Articles) != 0 {
		t.Errorf("day 2 article count = %d, want 0 (already notified)", len(day2.Subscribers[0].Articles))
	}
}

func TestBuild_RespectsSubscriptions(t *testing.T) {
	st := setupTestStore(t)
	alice := models.Subscriber{ID: "alice", Keywords: []string{"go"}, Sources: []string{"hn"}}

	addMatchedArticle(t, st, "lobsters", "https://example.com/a", "Match elsewhere", "2026-08-30", "alice", []string{"go"})

	export := Build(st, []models.Subscriber{alice}, "2026-08-30")
	if len(export.Subscribers[0].Articles) != 0 {
		t.Errorf("article count = %d, want 0 for unsubscribed source", len(export.Subscribers[0].Articles))
	}
}

func TestBuild_EverySubscriberPresent(t *testing.T) {
	st := setupTestStore(t)
	subs := []models.Subscriber{
		{ID: "alice", Sources: []string{"hn"}},
		{ID: "bob", Sources: []string{"hn"}},
	}

	export := Build(st, subs, "2026-08-30")
	if len(export.Subscribers) != 2 {
		t.Fatalf("subscriber count = %d, want 2", len(export.Subscribers))
	}
	for _, rep := range export.Subscribers {
		if rep.Articles == nil {
			t.Errorf("subscriber %s has nil Articles, want empty slice", rep.SubscriberID)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	export := Export{
		RunDate: "2026-08-30",
		Subscribers: []SubscriberReport{{
			SubscriberID: "alice",
			Email:        "alice@example.com",
			Articles: []MatchedArticle{{
				Title:       "Match",
				URL:         "https://example.com/a",
				SourceID:    "hn",
				CollectedAt: "2026-08-30",
				KeywordsHit: []string{"election"},
			}},
		}},
	}

	path, err := WriteJSON(dir, "news", export)
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if !strings.HasSuffix(path, "news_matched_2026-08-30.json") {
		t.Errorf("path = %q, want news_matched_2026-08-30.json suffix", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	var got Export
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if got.RunDate != "2026-08-30" {
		t.Errorf("RunDate = %q, want %q", got.RunDate, "2026-08-30")
	}
	if len(got.Subscribers) != 1 || got.Subscribers[0].SubscriberID != "alice" {
		t.Errorf("Subscribers = %+v, want alice", got.Subscribers)
	}
}

func TestWriteHTML(t *testing.T) {
	dir := t.TempDir()
	export := Export{
		RunDate: "2026-08-30",
		Subscribers: []SubscriberReport{
			{
				SubscriberID: "alice",
				Articles: []MatchedArticle{{
					Title:       "Tariff talks resume",
					URL:         "https://example.com/a",
					SourceID:    "hn",
					KeywordsHit: []string{"tariff"},
				}},
			},
			{
				SubscriberID: "bob",
				Articles:     []MatchedArticle{},
			},
		},
	}

	path, err := WriteHTML(dir, "news", export)
	if err != nil {
		t.Fatalf("WriteHTML() error = %v", err)
	}
	if !strings.HasSuffix(path, "news_report_2026-08-30.html") {
		t.Errorf("path = %q, want news_report_2026-08-30.html suffix", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, "Tariff talks resume") {
		t.Error("report missing matched article title")
	}
	if !strings.Contains(html, "No matches today.") {
		t.Error("report missing empty state for bob")
	}
	if !strings.Contains(html, "2026-08-30") {
		t.Error("report missing run date")
	}
}
