package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Articles table: one row per (source_id, url), the durable record of
-- every article ever seen. Rows are created on first sighting and never
-- deleted by the pipeline.
CREATE TABLE IF NOT EXISTS articles (
    article_id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id TEXT NOT NULL,
    url TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    collected_at TEXT NOT NULL,
    published_at TEXT NOT NULL DEFAULT '',
    cache_key TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    parsed BOOLEAN NOT NULL DEFAULT 0,
    language TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(source_id, url)
);

CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source_id);
CREATE INDEX IF NOT EXISTS idx_articles_collected ON articles(collected_at);
CREATE INDEX IF NOT EXISTS idx_articles_parsed ON articles(parsed) WHERE parsed = 0;

-- Match state: per-subscriber classification of an article, pinned to the
-- content version it was evaluated against. keywords_hit is a JSON array.
CREATE TABLE IF NOT EXISTS match_state (
    article_id INTEGER NOT NULL,
    subscriber_id TEXT NOT NULL,
    matched BOOLEAN NOT NULL,
    keywords_hit TEXT NOT NULL DEFAULT '[]',
    content_hash TEXT NOT NULL DEFAULT '',
    evaluated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (article_id) REFERENCES articles(article_id) ON DELETE CASCADE,
    UNIQUE(article_id, subscriber_id)
);

CREATE INDEX IF NOT EXISTS idx_match_article ON match_state(article_id);
CREATE INDEX IF NOT EXISTS idx_match_subscriber ON match_state(subscriber_id);
CREATE INDEX IF NOT EXISTS idx_match_matched ON match_state(matched) WHERE matched = 1;
`
