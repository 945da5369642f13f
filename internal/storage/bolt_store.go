package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	entryBucket      = "calls"
	metaBucket       = "meta"
	lastCleanupKey   = "last_cleanup"
	expiryValueBytes = 8
)

// boltJournal implements a Journal backed by BoltDB. Values are an 8-byte
// big-endian expiry followed by the JSON-encoded entry. The time of the last
// cleanup is kept in the meta bucket so the cadence survives restarts.
type boltJournal struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	entryTTL        time.Duration
	cleanupInterval time.Duration
}

func openBolt(path string, opts Options) (Journal, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	var last int64
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(entryBucket)); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return err
		}
		if v := meta.Get([]byte(lastCleanupKey)); len(v) == expiryValueBytes {
			last = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	j := &boltJournal{
		db:              db,
		entryTTL:        opts.EntryTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	j.lastCleanup.Store(last)
	return j, nil
}

// Close closes the BoltDB store.
func (b *boltJournal) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Record stores e until the entry TTL elapses.
func (b *boltJournal) Record(e Entry) error {
	if b == nil || b.db == nil {
		return nil
	}
	if e.ID == "" {
		return errors.New("journal entry id is empty")
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	buf := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(now.Add(b.entryTTL).Unix()))
	buf = append(buf, payload...)

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(entryBucket))
		if bucket == nil {
			return fmt.Errorf("journal bucket missing")
		}
		return bucket.Put([]byte(e.ID), buf)
	})
}

// Recent returns up to n unexpired entries, newest first.
func (b *boltJournal) Recent(n int) ([]Entry, error) {
	if b == nil || b.db == nil || n <= 0 {
		return nil, nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	out := make([]Entry, 0, n)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(entryBucket))
		if bucket == nil {
			return fmt.Errorf("journal bucket missing")
		}
		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < n; k, v = cursor.Prev() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				continue
			}
			var e Entry
			if err := json.Unmarshal(v[expiryValueBytes:], &e); err != nil {
				return fmt.Errorf("decode journal entry %s: %w", k, err)
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// maybeCleanupExpired removes expired entries once per cleanup interval. A
// journal that was never cleaned up is cleaned on first use.
func (b *boltJournal) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(entryBucket))
		if bucket == nil {
			return fmt.Errorf("journal bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}

		meta := tx.Bucket([]byte(metaBucket))
		if meta == nil {
			return fmt.Errorf("journal meta bucket missing")
		}
		stamp := make([]byte, expiryValueBytes)
		binary.BigEndian.PutUint64(stamp, uint64(now.Unix()))
		return meta.Put([]byte(lastCleanupKey), stamp)
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
