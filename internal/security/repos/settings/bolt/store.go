package bolt

import (
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
)

var (
	bucketSettings = []byte("settings")
	keyAutoUpdate  = []byte("cd_security_auto_update")
)

// Store persists plugin settings in a bbolt file. Writes are serialized by
// bbolt's single-writer transactions.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the settings database at path.
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSettings)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init settings bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// AutoUpdate returns the persisted "Enable Automatic Updates" flag.
// An unset flag reads as false.
func (s *Store) AutoUpdate() (bool, error) {
	var enabled bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSettings)
		if b == nil {
			return nil
		}
		v := b.Get(keyAutoUpdate)
		enabled = len(v) == 1 && v[0] == 1
		return nil
	})
	return enabled, err
}

// SetAutoUpdate persists the flag.
func (s *Store) SetAutoUpdate(enabled bool) error {
	v := []byte{0}
	if enabled {
		v[0] = 1
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSettings)
		if err != nil {
			return err
		}
		return b.Put(keyAutoUpdate, v)
	})
}
