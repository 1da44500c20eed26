package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketResponses = []byte("responses")

type cacheEntry struct {
	StoredAt time.Time       `json:"stored_at"`
	Body     json.RawMessage `json:"body"`
}

// CacheStats summarizes the contents of a [ResponseCache].
type CacheStats struct {
	Entries int   `json:"entries"`
	Expired int   `json:"expired"`
	Bytes   int64 `json:"bytes"`
}

// ResponseCache persists successful metadata API bodies in a bolt database, keyed by endpoint and query
// (credentials excluded). Entries older than the TTL are treated as misses.
//
// A nil *ResponseCache is valid and caches nothing.
type ResponseCache struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// OpenResponseCache opens (creating if needed) the cache database at path.
func OpenResponseCache(path string, ttl time.Duration) (*ResponseCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResponses)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &ResponseCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Close releases the underlying database.
func (c *ResponseCache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

func (c *ResponseCache) fresh(e cacheEntry) bool {
	return c.ttl <= 0 || c.now().Sub(e.StoredAt) < c.ttl
}

// Get returns the cached body for key if present and unexpired.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}

	var body []byte
	_ = c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketResponses).Get([]byte(key))
		if data == nil {
			return nil
		}
		var e cacheEntry
		if err := json.Unmarshal(data, &e); err != nil || !c.fresh(e) {
			return nil
		}
		body = append([]byte(nil), e.Body...)
		return nil
	})
	return body, body != nil
}

// Put stores body under key.
func (c *ResponseCache) Put(key string, body []byte) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(cacheEntry{StoredAt: c.now(), Body: body})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResponses).Put([]byte(key), data)
	})
}

// Clear removes every entry.
func (c *ResponseCache) Clear() error {
	if c == nil {
		return nil
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketResponses); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketResponses)
		return err
	})
}

// Prune removes expired entries and returns how many were removed.
func (c *ResponseCache) Prune() (int, error) {
	if c == nil {
		return 0, nil
	}

	removed := 0
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResponses)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var e cacheEntry
			if json.Unmarshal(v, &e) != nil || !c.fresh(e) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Stats counts entries, expired entries, and stored bytes.
func (c *ResponseCache) Stats() (CacheStats, error) {
	var stats CacheStats
	if c == nil {
		return stats, nil
	}

	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResponses).ForEach(func(k, v []byte) error {
			stats.Entries++
			stats.Bytes += int64(len(v))
			var e cacheEntry
			if json.Unmarshal(v, &e) != nil || !c.fresh(e) {
				stats.Expired++
			}
			return nil
		})
	})
	return stats, err
}
