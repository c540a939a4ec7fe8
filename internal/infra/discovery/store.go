package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	snapshotBucketName = "discovery"
	signatureKey       = "__signature"
	reservedPrefix     = "__"
)

// ErrStoreClosed is returned by store operations after Close.
var ErrStoreClosed = errors.New("discovery store is closed")

// Store persists cache snapshots so a restart can serve tools without
// re-dialing every server.
type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
}

// OpenStore opens or creates the snapshot database at path.
func OpenStore(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure snapshot dir: %w", err)
	}
	options := &bolt.Options{Timeout: time.Second}
	base, err := bolt.Open(trimmed, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := base.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucketName))
		return err
	}); err != nil {
		_ = base.Close()
		return nil, fmt.Errorf("ensure snapshot bucket: %w", err)
	}
	return &Store{db: base, path: trimmed}, nil
}

// Close releases the database. Further calls are no-ops.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Save replaces the persisted snapshot with the given signature and
// entries.
func (s *Store) Save(signature string, entries map[string]PersistedEntry) error {
	return s.update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(snapshotBucketName)); err != nil {
			return fmt.Errorf("reset snapshot bucket: %w", err)
		}
		bucket, err := tx.CreateBucket([]byte(snapshotBucketName))
		if err != nil {
			return fmt.Errorf("create snapshot bucket: %w", err)
		}
		if err := bucket.Put([]byte(signatureKey), []byte(signature)); err != nil {
			return fmt.Errorf("write signature: %w", err)
		}
		for key, entry := range entries {
			encoded, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("encode entry %s: %w", key, err)
			}
			if err := bucket.Put([]byte(key), encoded); err != nil {
				return fmt.Errorf("write entry %s: %w", key, err)
			}
		}
		return nil
	})
}

// Load reads the persisted snapshot. A fresh database yields an empty
// signature and no entries.
func (s *Store) Load() (string, map[string]PersistedEntry, error) {
	var signature string
	entries := map[string]PersistedEntry{}
	err := s.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucketName))
		if bucket == nil {
			return nil
		}
		if value := bucket.Get([]byte(signatureKey)); len(value) > 0 {
			signature = string(value)
		}
		return bucket.ForEach(func(key, value []byte) error {
			if value == nil || strings.HasPrefix(string(key), reservedPrefix) {
				return nil
			}
			var entry PersistedEntry
			if err := json.Unmarshal(value, &entry); err != nil {
				return fmt.Errorf("decode entry %s: %w", string(key), err)
			}
			entries[string(key)] = entry
			return nil
		})
	})
	if err != nil {
		return "", nil, err
	}
	return signature, entries, nil
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(fn)
}
