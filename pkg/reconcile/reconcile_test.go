package reconcile

import (
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

func TestMerge_NewArticles(t *testing.T) {
	st := setupTestStore(t)

	batches := []models.CrawlBatch{{
		SourceID: "hn",
		Entries: []models.BatchEntry{
			{URL: "https://example.com/a", Title: "A"},
			{URL: "https://example.com/b", Title: "B", PublishedAt: "2026-08-29"},
		},
	}}

	plan := Merge(st, batches, models.CrawlModeIncremental, "2026-08-30")

	if plan.Summary.NewArticles != 2 {
		t.Errorf("NewArticles = %d, want 2", plan.Summary.NewArticles)
	}
	if len(plan.Fetch) != 2 {
		t.Errorf("len(Fetch) = %d, want 2", len(plan.Fetch))
	}
	a, ok := st.Get(models.Key{SourceID: "hn", URL: "https://example.com/b"})
	if !ok {
		t.Fatal("merged article not in store")
	}
	if a.CollectedAt != "2026-08-30" {
		t.Errorf("CollectedAt = %q, want %q", a.CollectedAt, "2026-08-30")
	}
	if a.PublishedAt != "2026-08-29" {
		t.Errorf("PublishedAt = %q, want %q", a.PublishedAt, "2026-08-29")
	}
}

func TestMerge_DropsMalformedEntries(t *testing.T) {
	st := setupTestStore(t)

	batches := []models.CrawlBatch{{
		SourceID: "hn",
		Entries: []models.BatchEntry{
			{URL: "", Title: "No link"},
			{URL: "https://example.com/a", Title: "A"},
		},
	}}

	plan := Merge(st, batches, models.CrawlModeIncremental, "2026-08-30")

	if plan.Summary.DroppedEntries != 1 {
		t.Errorf("DroppedEntries = %d, want 1", plan.Summary.DroppedEntries)
	}
	if plan.Summary.NewArticles != 1 {
		t.Errorf("NewArticles = %d, want 1", plan.Summary.NewArticles)
	}
	if st.Len() != 1 {
		t.Errorf("store Len() = %d, want 1", st.Len())
	}
}

func TestMerge_MirroredURLFirstSourceWins(t *testing.T) {
	st := setupTestStore(t)

	url := "https://example.com/shared"
	batches := []models.CrawlBatch{
		{SourceID: "hn", Entries: []models.BatchEntry{{URL: url, Title: "Shared"}}},
		{SourceID: "lobsters", Entries: []models.BatchEntry{{URL: url, Title: "Shared"}}},
	}

	plan := Merge(st, batches, models.CrawlModeIncremental, "2026-08-30")

	if plan.Summary.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", plan.Summary.Duplicates)
	}
	if _, ok := st.Get(models.Key{SourceID: "hn", URL: url}); !ok {
		t.Error("first-listed source did not claim the URL")
	}
	if _, ok := st.Get(models.Key{SourceID: "lobsters", URL: url}); ok {
		t.Error("second source claimed an already-claimed URL")
	}
}

func TestMerge_IncrementalSkipsParsedArticles(t *testing.T) {
	st := setupTestStore(t)
	k := models.Key{SourceID: "hn", URL: "https://example.com/a"}

	st.Upsert(models.Article{SourceID: k.SourceID, URL: k.URL, CollectedAt: "2026-08-29"})
	st.SetContent(k, "cachekey1", "hash1")
	st.SetParsed(k, "Title", "en")
	st.SetMatch(k, "alice", models.MatchResult{Matched: true, ContentHash: "hash1"})

	batches := []models.CrawlBatch{{
		SourceID: "hn",
		Entries:  []models.BatchEntry{{URL: k.URL, Title: "Title"}},
	}}
	plan := Merge(st, batches, models.CrawlModeIncremental, "2026-08-30")

	if plan.Summary.SeenArticles != 1 {
		t.Errorf("SeenArticles = %d, want 1", plan.Summary.SeenArticles)
	}
	if len(plan.Fetch) != 0 {
		t.Errorf("len(Fetch) = %d, want 0 for an already-parsed article", len(plan.Fetch))
	}
	a, _ := st.Get(k)
	if len(a.MatchState) != 1 {
		t.Error("incremental merge dropped existing match state")
	}
	if a.CollectedAt != "2026-08-29" {
		t.Errorf("CollectedAt = %q, want first-sighting date %q", a.CollectedAt, "2026-08-29")
	}
}

func TestMerge_IncrementalRetriesUnfetchedBody(t *testing.T) {
	st := setupTestStore(t)
	k := models.Key{SourceID: "hn", URL: "https://example.com/a"}

	// Seen on a previous run but the body fetch never succeeded.
	st.Upsert(models.Article{SourceID: k.SourceID, URL: k.URL, CollectedAt: "2026-08-29"})

	batches := []models.CrawlBatch{{
		SourceID: "hn",
		Entries:  []models.BatchEntry{{URL: k.URL}},
	}}
	plan := Merge(st, batches, models.CrawlModeIncremental, "2026-08-30")

	if len(plan.Fetch) != 1 {
		t.Errorf("len(Fetch) = %d, want 1 retry for missing body", len(plan.Fetch))
	}
}

func TestMerge_FullModeRefetchesAndClears(t *testing.T) {
	st := setupTestStore(t)
	k := models.Key{SourceID: "hn", URL: "https://example.com/a"}

	st.Upsert(models.Article{SourceID: k.SourceID, URL: k.URL, CollectedAt: "2026-08-29"})
	st.SetContent(k, "cachekey1", "hash1")
	st.SetParsed(k, "Title", "en")
	st.SetMatch(k, "alice", models.MatchResult{Matched: true, ContentHash: "hash1"})

	batches := []models.CrawlBatch{{
		SourceID: "hn",
		Entries:  []models.BatchEntry{{URL: k.URL}},
	}}
	plan := Merge(st, batches, models.CrawlModeFull, "2026-08-30")

	if len(plan.Fetch) != 1 {
		t.Errorf("len(Fetch) = %d, want 1 in full mode", len(plan.Fetch))
	}
	a, _ := st.Get(k)
	if len(a.MatchState) != 0 {
		t.Error("full mode kept stale match state")
	}
	if a.Parsed {
		t.Error("full mode kept Parsed = true")
	}
}

func TestPendingEvaluations_NewSubscriberPicksUpBacklog(t *testing.T) {
	st := setupTestStore(t)

	old := models.Key{SourceID: "hn", URL: "https://example.com/old"}
	st.Upsert(models.Article{SourceID: old.SourceID, URL: old.URL, CollectedAt: "2026-08-01"})
	st.SetContent(old, "cachekey1", "hash1")
	st.SetParsed(old, "Old article", "en")

	alice := models.Subscriber{ID: "alice", Keywords: []string{"go"}, Sources: []string{"hn"}}
	st.SetMatch(old, "alice", models.MatchResult{Matched: false, ContentHash: "hash1"})

	// Bob joins later, subscribed to the same source.
	bob := models.Subscriber{ID: "bob", Keywords: []string{"rust"}, Sources: []string{"hn"}}

	pairs := PendingEvaluations(st, []models.Subscriber{alice, bob})
	if len(pairs) != 1 {
		t.Fatalf("len(pairs) = %d, want 1", len(pairs))
	}
	if pairs[0].Subscriber.ID != "bob" {
		t.Errorf("pending subscriber = %q, want %q", pairs[0].Subscriber.ID, "bob")
	}
	if pairs[0].Key != old {
		t.Errorf("pending key = %v, want %v", pairs[0].Key, old)
	}

	// Once bob's evaluation is recorded, nothing is pending.
	st.SetMatch(old, "bob", models.MatchResult{Matched: false, ContentHash: "hash1"})
	if pairs := PendingEvaluations(st, []models.Subscriber{alice, bob}); len(pairs) != 0 {
		t.Errorf("len(pairs) after evaluation = %d, want 0", len(pairs))
	}
}

func TestPendingEvaluations_SkipsUnparsedAndUnsubscribed(t *testing.T) {
	st := setupTestStore(t)

	unparsed := models.Key{SourceID: "hn", URL: "https://example.com/a"}
	st.Upsert(models.Article{SourceID: unparsed.SourceID, URL: unparsed.URL, CollectedAt: "2026-08-30"})

	other := models.Key{SourceID: "lobsters", URL: "https://example.com/b"}
	st.Upsert(models.Article{SourceID: other.SourceID, URL: other.URL, CollectedAt: "2026-08-30"})
	st.SetContent(other, "cachekey2", "hash2")
	st.SetParsed(other, "Title", "en")

	alice := models.Subscriber{ID: "alice", Keywords: []string{"go"}, Sources: []string{"hn"}}
	pairs := PendingEvaluations(st, []models.Subscriber{alice})
	if len(pairs) != 0 {
		t.Errorf("len(pairs) = %d, want 0 (unparsed article, unsubscribed source)", len(pairs))
	}
}

func TestMerge_Idempotent(t *testing.T) {
	st := setupTestStore(t)

	batches := []models.CrawlBatch{{
		SourceID: "hn",
		Entries:  []models.BatchEntry{{URL: "https://example.com/a", Title: "A"}},
	}}
	Merge(st, batches, models.CrawlModeIncremental, "2026-08-30")
	k := models.Key{SourceID: "hn", URL: "https://example.com/a"}
	st.SetContent(k, "cachekey1", "hash1")
	st.SetParsed(k, "A", "en")

	plan := Merge(st, batches, models.CrawlModeIncremental, "2026-08-30")
	if plan.Summary.NewArticles != 0 {
		t.Errorf("second merge NewArticles = %d, want 0", plan.Summary.NewArticles)
	}
	if len(plan.Fetch) != 0 {
		t.Errorf("second merge len(Fetch) = %d, want 0", len(plan.Fetch))
	}
	if st.Len() != 1 {
		t.Errorf("store Len() = %d, want 1", st.Len())
	}
}
