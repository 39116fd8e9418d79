package buffer

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	boltInfra "github.com/fastygo/taskboard/internal/infrastructure/bolt"
)

// Store wraps BoltDB to persist snapshots while the primary backend is unavailable.
// Only the newest snapshot per key is kept: every write overwrites the whole value.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "buffer"
	}
	db, err := boltInfra.Open(path, bucket)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Enqueue stores an item, replacing any older snapshot for the same key.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.normalize()
	item.bucketKey = []byte(buildKey(item))

	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if err := deleteWhere(b, func(existing Item) bool { return existing.Key == item.Key }); err != nil {
			return err
		}
		return b.Put(item.bucketKey, payload)
	})
}

// GetBatch returns up to limit items without removing them, oldest first
// within each priority.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Remove deletes the provided item from the buffer. A newer snapshot for the
// same key enqueued after item was read is left in place.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(item.bucketKey) == 0 {
		return s.db.Update(func(tx *bolt.Tx) error {
			return deleteWhere(tx.Bucket(s.bucket), func(existing Item) bool { return existing.ID == item.ID })
		})
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(item.bucketKey)
	})
}

// Has reports whether item is still buffered. It is false once the item was
// removed, discarded or superseded by a newer snapshot for the same key.
func (s *Store) Has(item Item) (bool, error) {
	if s == nil || s.db == nil {
		return false, bolt.ErrDatabaseNotOpen
	}
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if len(item.bucketKey) > 0 {
			v := b.Get(item.bucketKey)
			if v == nil {
				return nil
			}
			var existing Item
			if err := json.Unmarshal(v, &existing); err != nil {
				return err
			}
			found = existing.ID == item.ID
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var existing Item
			if err := json.Unmarshal(v, &existing); err != nil {
				continue
			}
			if existing.ID == item.ID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

// Requeue re-inserts an item after bumping its timestamp, unless a newer
// snapshot for the same key has arrived in the meantime.
func (s *Store) Requeue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.Timestamp = time.Now()
	item.normalize()
	item.bucketKey = []byte(buildKey(item))

	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var existing Item
			if err := json.Unmarshal(v, &existing); err != nil {
				continue
			}
			if existing.Key == item.Key && existing.ID != item.ID {
				return nil
			}
		}
		if err := deleteWhere(b, func(existing Item) bool { return existing.ID == item.ID }); err != nil {
			return err
		}
		return b.Put(item.bucketKey, payload)
	})
}

// Size returns the number of buffered items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes items older than the provided timestamp.
func (s *Store) Cleanup(olderThan time.Time) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return deleteWhere(tx.Bucket(s.bucket), func(item Item) bool { return item.Timestamp.Before(olderThan) })
	})
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func deleteWhere(b *bolt.Bucket, match func(Item) bool) error {
	var doomed [][]byte
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var item Item
		if err := json.Unmarshal(v, &item); err != nil {
			continue
		}
		if match(item) {
			doomed = append(doomed, append([]byte(nil), k...))
		}
	}
	for _, k := range doomed {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func buildKey(item Item) string {
	return fmt.Sprintf("%d_%020d_%s", item.Priority, item.Timestamp.UnixNano(), item.ID)
}

// DiscardKey removes every buffered snapshot for key.
func (s *Store) DiscardKey(key string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return deleteWhere(tx.Bucket(s.bucket), func(item Item) bool { return item.Key == key })
	})
}
