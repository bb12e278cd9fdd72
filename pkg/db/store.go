package db

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dtnitsch/news-clipper/models"
)

// Store is the in-memory working set of the Article Store. It is loaded
// once per run, mutated by the reconciliation and match phases, and
// written back at phase boundaries with Save. Save is the only global
// synchronization point: a crash mid-phase leaves the last committed
// state visible.
type Store struct {
	db       *DB
	articles map[models.Key]*models.Article
	ids      map[models.Key]int64
	dirty    map[models.Key]bool
}

// LoadStore reads every article and its match state into memory.
// Any row that cannot be decoded makes the whole load fail with
// ErrCorruptStore; rows are never silently dropped.
func (db *DB) LoadStore() (*Store, error) {
	st := &Store{
		db:       db,
		articles: make(map[models.Key]*models.Article),
		ids:      make(map[models.Key]int64),
		dirty:    make(map[models.Key]bool),
	}

	rows, err := db.Query(`
		SELECT article_id, source_id, url, title, collected_at, published_at,
		       cache_key, content_hash, parsed, language
		FROM articles
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	defer rows.Close()

	byID := make(map[int64]*models.Article)
	for rows.Next() {
		var id int64
		a := &models.Article{MatchState: make(map[string]models.MatchResult)}
		err := rows.Scan(&id, &a.SourceID, &a.URL, &a.Title, &a.CollectedAt,
			&a.PublishedAt, &a.CacheKey, &a.ContentHash, &a.Parsed, &a.Language)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
		k := a.Key()
		if _, exists := st.articles[k]; exists {
			return nil, fmt.Errorf("%w: duplicate row for %s %s", ErrCorruptStore, a.SourceID, a.URL)
		}
		st.articles[k] = a
		st.ids[k] = id
		byID[id] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	mrows, err := db.Query(`
		SELECT article_id, subscriber_id, matched, keywords_hit, content_hash, evaluated_at
		FROM match_state
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	defer mrows.Close()

	for mrows.Next() {
		var (
			id       int64
			subID    string
			res      models.MatchResult
			keywords string
		)
		if err := mrows.Scan(&id, &subID, &res.Matched, &keywords, &res.ContentHash, &res.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
		if err := json.Unmarshal([]byte(keywords), &res.KeywordsHit); err != nil {
			return nil, fmt.Errorf("%w: bad keywords_hit for article %d: %v", ErrCorruptStore, id, err)
		}
		a, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: match row for unknown article %d", ErrCorruptStore, id)
		}
		a.MatchState[subID] = res
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	return st, nil
}

// Len returns the number of articles in the working set.
func (s *Store) Len() int {
	return len(s.articles)
}

// Get looks up an article by primary key.
func (s *Store) Get(k models.Key) (*models.Article, bool) {
	a, ok := s.articles[k]
	return a, ok
}

// All returns every article, sorted by (source_id, url) so that every
// phase iterates the store in a deterministic order.
func (s *Store) All() []*models.Article {
	out := make([]*models.Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].URL < out[j].URL
	})
	return out
}

// Upsert merges a partial update into the working set by primary key.
// Only fields present in the incoming article overwrite; match-state
// entries for subscribers not mentioned in the update are preserved, and
// collected_at is kept from the first sighting.
func (s *Store) Upsert(in models.Article) {
	k := in.Key()
	existing, ok := s.articles[k]
	if !ok {
		a := in
		if a.MatchState == nil {
			a.MatchState = make(map[string]models.MatchResult)
		}
		s.articles[k] = &a
		s.dirty[k] = true
		return
	}

	if in.Title != "" {
		existing.Title = in.Title
	}
	if existing.CollectedAt == "" {
		existing.CollectedAt = in.CollectedAt
	}
	if in.PublishedAt != "" {
		existing.PublishedAt = in.PublishedAt
	}
	if in.CacheKey != "" {
		existing.CacheKey = in.CacheKey
	}
	if in.ContentHash != "" {
		existing.ContentHash = in.ContentHash
	}
	if in.Language != "" {
		existing.Language = in.Language
	}
	for subID, res := range in.MatchState {
		existing.MatchState[subID] = res
	}
	s.dirty[k] = true
}

// SetContent records a freshly fetched body. When the content hash
// changes, existing match state is pinned to a stale version and must be
// invalidated; an unchanged hash keeps classifications intact so they are
// never re-evaluated. Returns true if the content changed.
func (s *Store) SetContent(k models.Key, cacheKey, contentHash string) bool {
	a, ok := s.articles[k]
	if !ok {
		return false
	}
	changed := a.ContentHash != "" && a.ContentHash != contentHash
	if changed {
		a.MatchState = make(map[string]models.MatchResult)
		a.Parsed = false
	}
	a.CacheKey = cacheKey
	a.ContentHash = contentHash
	s.dirty[k] = true
	return changed
}

// SetParsed records the result of text extraction for an article.
func (s *Store) SetParsed(k models.Key, title, language string) {
	a, ok := s.articles[k]
	if !ok {
		return
	}
	if title != "" {
		a.Title = title
	}
	if language != "" {
		a.Language = language
	}
	a.Parsed = true
	s.dirty[k] = true
}

// SetMatch records a subscriber's classification of an article.
func (s *Store) SetMatch(k models.Key, subscriberID string, res models.MatchResult) {
	a, ok := s.articles[k]
	if !ok {
		return
	}
	a.MatchState[subscriberID] = res
	s.dirty[k] = true
}

// ClearMatches drops every subscriber classification for an article,
// forcing full re-evaluation. Used by full-mode reconciliation.
func (s *Store) ClearMatches(k models.Key) {
	a, ok := s.articles[k]
	if !ok {
		return
	}
	if len(a.MatchState) > 0 {
		a.MatchState = make(map[string]models.MatchResult)
	}
	a.Parsed = false
	s.dirty[k] = true
}

// Save writes all modified articles and their match state back to SQLite
// in a single transaction. Commit-or-rollback is the store's atomicity
// guarantee: a failed save leaves the previously committed state visible.
func (s *Store) Save() error {
	if len(s.dirty) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save transaction: %w", err)
	}
	defer tx.Rollback()

	keys := make([]models.Key, 0, len(s.dirty))
	for k := range s.dirty {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SourceID != keys[j].SourceID {
			return keys[i].SourceID < keys[j].SourceID
		}
		return keys[i].URL < keys[j].URL
	})

	for _, k := range keys {
		a := s.articles[k]
		id, exists := s.ids[k]
		if exists {
			_, err = tx.Exec(`
				UPDATE articles
				SET title = ?, collected_at = ?, published_at = ?, cache_key = ?,
				    content_hash = ?, parsed = ?, language = ?, updated_at = CURRENT_TIMESTAMP
				WHERE article_id = ?
			`, a.Title, a.CollectedAt, a.PublishedAt, a.CacheKey, a.ContentHash, a.Parsed, a.Language, id)
			if err != nil {
				return fmt.Errorf("failed to update article %s: %w", a.URL, err)
			}
		} else {
			result, err := tx.Exec(`
				INSERT INTO articles (source_id, url, title, collected_at, published_at,
				                      cache_key, content_hash, parsed, language)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, a.SourceID, a.URL, a.Title, a.CollectedAt, a.PublishedAt, a.CacheKey, a.ContentHash, a.Parsed, a.Language)
			if err != nil {
				return fmt.Errorf("failed to insert article %s: %w", a.URL, err)
			}
			id, err = result.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get article ID: %w", err)
			}
			s.ids[k] = id
		}

		if _, err := tx.Exec("DELETE FROM match_state WHERE article_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear match state for article %s: %w", a.URL, err)
		}
		subIDs := make([]string, 0, len(a.MatchState))
		for subID := range a.MatchState {
			subIDs = append(subIDs, subID)
		}
		sort.Strings(subIDs)
		for _, subID := range subIDs {
			res := a.MatchState[subID]
			keywords, err := json.Marshal(res.KeywordsHit)
			if err != nil {
				return fmt.Errorf("failed to encode keywords for article %s: %w", a.URL, err)
			}
			evaluatedAt := res.EvaluatedAt
			if evaluatedAt.IsZero() {
				evaluatedAt = time.Now().UTC()
			}
			_, err = tx.Exec(`
				INSERT INTO match_state (article_id, subscriber_id, matched, keywords_hit, content_hash, evaluated_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, id, subID, res.Matched, string(keywords), res.ContentHash, evaluatedAt)
			if err != nil {
				return fmt.Errorf("failed to save match state for article %s: %w", a.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save transaction: %w", err)
	}
	s.dirty = make(map[models.Key]bool)
	return nil
}
