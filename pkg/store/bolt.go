package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("basket")

// Bolt stores keys in a single bbolt bucket. bbolt transactions serialize
// writers, so no extra locking is needed.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory for bolt store: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			// v is only valid inside the transaction
			value, found = string(v), true
		}
		return nil
	})
	if err == bolt.ErrDatabaseNotOpen {
		err = ErrClosed
	}
	return value, found, err
}

func (b *Bolt) Set(ctx context.Context, key, value string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err == bolt.ErrDatabaseNotOpen {
		return ErrClosed
	}
	return err
}

// Keys walks the bucket in byte order, which is already ascending.
func (b *Bolt) Keys(ctx context.Context, pattern string) ([]string, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}

	var keys []string
	err = b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		prefix := []byte(literalPrefix(pattern))
		for k, _ := c.Seek(prefix); k != nil; k, _ = c.Next() {
			if len(prefix) > 0 && !hasPrefix(k, prefix) {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if g.Match(string(k)) {
				keys = append(keys, string(k))
			}
		}
		return nil
	})
	if err == bolt.ErrDatabaseNotOpen {
		return nil, ErrClosed
	}
	return keys, err
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

// literalPrefix returns the part of a glob pattern before its first
// metacharacter.
func literalPrefix(pattern string) string {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '[', '{', '\\':
			return pattern[:i]
		}
	}
	return pattern
}

func hasPrefix(k, prefix []byte) bool {
	return len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix)
}
