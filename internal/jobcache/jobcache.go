// Package jobcache stores fetched job descriptions in a local BoltDB
// file so repeated pipeline runs do not re-download the same posting.
// Entries are zlib-compressed and expire after a configurable TTL.
package jobcache

import (
	"bytes"
	"compress/zlib"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketJobs = []byte("jobs")

// entry is the stored record for one job URL
type entry struct {
	URL       string    `json:"url"`
	Body      []byte    `json:"body"` // zlib-compressed description text
	CreatedAt time.Time `json:"created_at"`
}

// Cache is a TTL cache of job description text keyed by job URL
type Cache struct {
	db  *bolt.DB
	ttl time.Duration

	now func() time.Time
}

// Open opens (or creates) the cache file
func Open(path string, ttl time.Duration) (*Cache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketJobs)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached description for a job URL. Expired entries are
// deleted on read and reported as a miss.
func (c *Cache) Get(url string) (string, bool, error) {
	key := cacheKey(url)

	var text string
	var found bool

	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		data := b.Get(key)
		if data == nil {
			return nil
		}

		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			// Corrupt record, drop it
			return b.Delete(key)
		}

		if c.now().Sub(e.CreatedAt) > c.ttl {
			return b.Delete(key)
		}

		decompressed, err := decompress(e.Body)
		if err != nil {
			return b.Delete(key)
		}

		text = decompressed
		found = true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache: %w", err)
	}

	return text, found, nil
}

// Put stores a job description
func (c *Cache) Put(url, description string) error {
	compressed, err := compress(description)
	if err != nil {
		return fmt.Errorf("failed to compress description: %w", err)
	}

	data, err := json.Marshal(entry{
		URL:       url,
		Body:      compressed,
		CreatedAt: c.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).Put(cacheKey(url), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Cleanup removes all expired entries and returns how many were deleted
func (c *Cache) Cleanup() (int, error) {
	deleted := 0
	cutoff := c.now().Add(-c.ttl)

	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)

		var toDelete [][]byte
		cur := b.Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				toDelete = append(toDelete, append([]byte{}, k...))
				continue
			}
			if e.CreatedAt.Before(cutoff) {
				toDelete = append(toDelete, append([]byte{}, k...))
			}
		}

		for _, k := range toDelete {
			if err := b.Delete(k); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("failed to clean cache: %w", err)
	}

	return deleted, nil
}

func cacheKey(url string) []byte {
	sum := sha256.Sum256([]byte(url))
	return []byte(hex.EncodeToString(sum[:]))
}

func compress(s string) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) (string, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
