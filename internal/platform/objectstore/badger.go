package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps objects in an embedded badger database. It serves local
// development and single-node deployments without Supabase.
type BadgerStore struct {
	db     *badger.DB
	bucket string
}

// OpenBadger opens (or creates) a store at dir. An empty dir opens an
// in-memory store.
func OpenBadger(dir, bucket string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store failed: %w", err)
	}
	return &BadgerStore{db: db, bucket: bucket}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Upload(ctx context.Context, path string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(path), data)
	})
	if err != nil {
		return fmt.Errorf("badger put %s failed: %w", path, err)
	}
	return nil
}

func (s *BadgerStore) Download(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(path))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s failed: %w", path, err)
	}
	return data, nil
}

func (s *BadgerStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := s.key("")
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			entries = append(entries, Entry{
				Name: strings.TrimPrefix(string(item.Key()), string(prefix)),
				Size: item.ValueSize(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list failed: %w", err)
	}
	return entries, nil
}

// EnsureBucket is a no-op; buckets are key prefixes.
func (s *BadgerStore) EnsureBucket(context.Context) error {
	return nil
}

func (s *BadgerStore) key(path string) []byte {
	return []byte(s.bucket + "/" + strings.TrimLeft(path, "/"))
}
