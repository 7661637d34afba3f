package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var bucketSession = []byte("session") // key -> raw value

// boltStorage implements Storage using BoltDB.
type boltStorage struct {
	db *bolt.DB
	mu sync.RWMutex
}

// NewBolt opens (creating if needed) a BoltDB-backed store at path.
func NewBolt(path string) (Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketSession)
		return createErr
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session bucket: %w", err)
	}

	return &boltStorage{db: db}, nil
}

// Get implements Storage.Get.
func (s *boltStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSession).Get([]byte(key))
		if data != nil {
			value = make([]byte, len(data))
			copy(value, data)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set implements Storage.Set.
func (s *boltStorage) Set(key string, value []byte) error {
	return s.SetMulti(map[string][]byte{key: value})
}

// SetMulti implements Storage.SetMulti. All keys are written in one
// transaction.
func (s *boltStorage) SetMulti(values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		for key, value := range values {
			if err := b.Put([]byte(key), value); err != nil {
				return fmt.Errorf("failed to store %s: %w", key, err)
			}
		}
		return nil
	})
}

// Delete implements Storage.Delete.
func (s *boltStorage) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		for _, key := range keys {
			if err := b.Delete([]byte(key)); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
		}
		return nil
	})
}

// Close implements Storage.Close.
func (s *boltStorage) Close() error {
	return s.db.Close()
}
