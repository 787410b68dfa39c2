package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket   = []byte("config")   // Store version, timestamps, store id
	MessagesBucket = []byte("messages") // CBOR records keyed by message id
)

// Config keys
var (
	ConfigVersion = []byte("version")
	ConfigCreated = []byte("created")
	ConfigStoreID = []byte("store_id")
)

// DefaultTTL is how long an unread message is kept.
const DefaultTTL = 24 * time.Hour

var (
	// ErrNotFound is returned for unknown, already consumed and expired ids.
	ErrNotFound = errors.New("message not found")
	// ErrNotAStore is returned by OpenExisting for a database without the
	// message store layout.
	ErrNotAStore = errors.New("not a message store")
)

// Storage provides BBolt-based storage for one-time messages
type Storage struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens or creates a message store. A non-positive ttl keeps messages
// until they are read.
func Open(path string, ttl time.Duration) (*Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db, ttl: ttl, now: time.Now}
	if err := s.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenExisting opens a store created by Open. Unlike Open it never creates
// a file or buckets.
func OpenExisting(path string, ttl time.Duration) (*Storage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db, ttl: ttl, now: time.Now}
	initialized, err := s.IsInitialized()
	if err != nil {
		db.Close()
		return nil, err
	}
	if !initialized {
		db.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotAStore, path)
	}
	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the bucket structure. It is a no-op on an existing store.
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, MessagesBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}
		created, _ := s.now().MarshalBinary()
		return config.Put(ConfigCreated, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// GetOrCreateStoreID retrieves the store id, generating one on first use.
func (s *Storage) GetOrCreateStoreID() (string, error) {
	var id string
	err := s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if data := config.Get(ConfigStoreID); data != nil {
			id = string(data)
			return nil
		}
		id = uuid.NewString()
		return config.Put(ConfigStoreID, []byte(id))
	})
	return id, err
}

// Put stores payload under a fresh random id.
func (s *Storage) Put(ctx context.Context, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := s.now()
	rec := Record{Payload: payload, Created: now}
	if s.ttl > 0 {
		rec.Expires = now.Add(s.ttl)
	}
	data, err := rec.MarshalBinary()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(MessagesBucket).Put([]byte(id), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store message: %w", err)
	}
	return id, nil
}

// Take returns the payload stored under id and deletes it in the same
// transaction, so a message can be read once.
func (s *Storage) Take(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		payload []byte
		expired bool
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		messages := tx.Bucket(MessagesBucket)
		data := messages.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		var rec Record
		if err := rec.UnmarshalBinary(data); err != nil {
			return err
		}
		if err := messages.Delete([]byte(id)); err != nil {
			return err
		}
		expired = rec.Expired(s.now())
		payload = rec.Payload
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrNotFound
	}
	return payload, nil
}

// Purge deletes expired and unreadable records and returns how many went.
func (s *Storage) Purge(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := s.now()
	var purged int
	err := s.db.Update(func(tx *bolt.Tx) error {
		messages := tx.Bucket(MessagesBucket)

		var stale [][]byte
		err := messages.ForEach(func(k, v []byte) error {
			var rec Record
			if err := rec.UnmarshalBinary(v); err != nil || rec.Expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := messages.Delete(k); err != nil {
				return err
			}
		}
		purged = len(stale)
		return nil
	})
	return purged, err
}

// Count returns the number of stored messages, expired ones included.
func (s *Storage) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(MessagesBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after purging to reclaim disk space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	// Create new database
	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	// Copy all buckets
	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	// Reopen database
	s.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
