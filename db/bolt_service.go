package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var snapshotBucket = []byte("snapshots")

// BoltService stores the snapshot in a local bbolt file, for deployments
// without a Redis server.
type BoltService struct {
	db  *bbolt.DB
	key []byte
}

// OpenBoltService opens (or creates) the database file at path.
func OpenBoltService(path, key string) (*BoltService, error) {
	if key == "" {
		key = DefaultSnapshotKey
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	bdb, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt file %s: %w", path, err)
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltService{db: bdb, key: []byte(key)}, nil
}

func (s *BoltService) Load(_ context.Context) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(snapshotBucket).Get(s.key)
		if v == nil {
			return ErrNoSnapshot
		}
		// v is only valid inside the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltService) Save(_ context.Context, data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put(s.key, data)
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot to bolt: %w", err)
	}
	return nil
}

func (s *BoltService) Close() error {
	return s.db.Close()
}
