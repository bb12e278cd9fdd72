package crawl

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dtnitsch/news-clipper/models"
	"github.com/dtnitsch/news-clipper/pkg/cache"
	"github.com/dtnitsch/news-clipper/pkg/fetch"
)

// job is one article body to fetch into the Content Cache.
type job struct {
	key models.Key
}

// result is the outcome of one body fetch. Results are applied to the
// store by the single collecting goroutine, so store writes for a key are
// never interleaved.
type result struct {
	key         models.Key
	cacheKey    string
	contentHash string
	err         error
}

// fetchBodies downloads the planned article bodies through a worker pool
// and writes each into the Content Cache. The plan's keys are unique, so
// no two workers ever write the same cache entry.
func fetchBodies(ctx context.Context, logger *slog.Logger, f *fetch.Fetcher, c *cache.Cache, keys []models.Key, workerCount int) []result {
	if workerCount < 1 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	jobs := make(chan job, len(keys))
	results := make(chan result, len(keys))

	for w := 1; w <= workerCount; w++ {
		wg.Add(1)
		go worker(ctx, w, logger, f, c, &wg, jobs, results)
	}

	for _, k := range keys {
		jobs <- job{key: k}
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]result, 0, len(keys))
	for r := range results {
		out = append(out, r)
	}
	return out
}

func worker(ctx context.Context, id int, logger *slog.Logger, f *fetch.Fetcher, c *cache.Cache, wg *sync.WaitGroup, jobs <-chan job, results chan<- result) {
	defer wg.Done()
	for j := range jobs {
		r := result{key: j.key}

		body, err := f.Get(ctx, j.key.URL)
		if err != nil {
			logger.Warn("body fetch failed", "worker_id", id, "source", j.key.SourceID, "url", j.key.URL, "error", err)
			r.err = err
			results <- r
			continue
		}

		key := cache.Key(j.key.SourceID, j.key.URL)
		if err := c.Put(key, body); err != nil {
			logger.Error("cache write failed", "worker_id", id, "url", j.key.URL, "error", err)
			r.err = err
			results <- r
			continue
		}

		r.cacheKey = key
		r.contentHash = cache.Hash(body)
		results <- r
	}
}
