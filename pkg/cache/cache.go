// Package cache is the Content Cache: raw fetched page bodies and their
// extracted text, stored on disk under a stable per-article key.
package cache

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no content is cached under a key.
var ErrNotFound = errors.New("content not cached")

// Cache is a file-based content store. There is no TTL: staleness policy
// belongs to the reconciliation step, not here.
type Cache struct {
	dir string
}

// New creates a Cache rooted at dir, creating the directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key derives the cache key for an article. It hashes source and URL
// together so the same URL mirrored by two sources gets distinct entries,
// and repeated fetches of the same article overwrite rather than duplicate.
func Key(sourceID, url string) string {
	hash := sha256.Sum256([]byte(sourceID + "\n" + url))
	return fmt.Sprintf("%x", hash)
}

// Hash returns the content-version hash used to detect changed bodies.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%x", sum)
}

// Put stores the raw page body under key, overwriting any previous version.
func (c *Cache) Put(key string, content []byte) error {
	if err := os.WriteFile(c.rawPath(key), content, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Get retrieves the raw page body for key, or ErrNotFound.
func (c *Cache) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(c.rawPath(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read from cache: %w", err)
	}
	return data, nil
}

// PutText stores the extracted plain text for key, alongside the raw body.
func (c *Cache) PutText(key string, text string) error {
	if err := os.WriteFile(c.textPath(key), []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write extracted text: %w", err)
	}
	return nil
}

// GetText retrieves the extracted plain text for key, or ErrNotFound.
func (c *Cache) GetText(key string) (string, error) {
	data, err := os.ReadFile(c.textPath(key))
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read extracted text: %w", err)
	}
	return string(data), nil
}

func (c *Cache) rawPath(key string) string {
	return filepath.Join(c.dir, key+".html")
}

func (c *Cache) textPath(key string) string {
	return filepath.Join(c.dir, key+".txt")
}
