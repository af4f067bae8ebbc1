package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/mostaks/kwr-dashboard-server/internal/util"
)

// Entity provides generic document operations for one collection.
// Reads hit the database directly; writes are staged on a WriteBatch.
type Entity[T any] struct {
	store   *Store
	prefix  string
	idFn    func(*T) string
	indexes []Index[T]
}

// Index defines a secondary equality index on an entity. An index value
// maps to at most one document id; index fields are the collection's
// dedup keys. Empty values are not indexed.
type Index[T any] struct {
	name   string
	keyGen func(*T) string
}

// NewEntity creates an Entity for type T stored under prefix.
func NewEntity[T any](s *Store, prefix string, idFn func(*T) string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix, idFn: idFn}
}

// WithIndex adds a secondary index to the entity.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *Entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *Entity[T]) indexKey(name, value string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value)
}

// Get retrieves a document by id. Returns ErrNotFound if absent.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc T
	err := e.store.db.View(func(txn *badger.Txn) error {
		return e.getInTxn(txn, id, &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (e *Entity[T]) getInTxn(txn *badger.Txn, id string, dest *T) error {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get key: %w", err)
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, dest); err != nil {
			return fmt.Errorf("failed to unmarshal document: %w", err)
		}
		return nil
	})
}

// GetByIndex retrieves the document whose index value equals value.
// Returns ErrNotFound when no document matches.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if value == "" {
		return nil, ErrEmptyIndexValue
	}

	var doc T
	err := e.store.db.View(func(txn *badger.Txn) error {
		id, err := e.resolveIndex(txn, indexName, value)
		if err != nil {
			return err
		}
		return e.getInTxn(txn, id, &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (e *Entity[T]) resolveIndex(txn *badger.Txn, indexName, value string) (string, error) {
	item, err := txn.Get(e.indexKey(indexName, value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get index key: %w", err)
	}
	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}

// GetByIndexValues bulk-resolves documents for a set of index values,
// the store-side analog of a "field in set" query. Values are processed
// in chunks of chunkSize, one read transaction per chunk, so a large
// keyword list never turns into per-name point queries. Values with no
// matching document are simply absent from the result map.
func (e *Entity[T]) GetByIndexValues(ctx context.Context, indexName string, values []string, chunkSize int) (map[string]*T, error) {
	found := make(map[string]*T)

	for chunk := range util.Chunks(values, chunkSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := e.store.db.View(func(txn *badger.Txn) error {
			for _, value := range chunk {
				if value == "" {
					continue
				}
				if _, ok := found[value]; ok {
					continue
				}
				id, err := e.resolveIndex(txn, indexName, value)
				if errors.Is(err, ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				var doc T
				if err := e.getInTxn(txn, id, &doc); err != nil {
					if errors.Is(err, ErrNotFound) {
						// Dangling index entry; treat the value as absent.
						continue
					}
					return err
				}
				found[value] = &doc
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return found, nil
}

// List returns an iterator over all documents in the collection.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				// Skip index keys.
				key := string(it.Item().Key())
				if strings.HasPrefix(key[len(e.prefix):], "idx:") {
					continue
				}

				var doc T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &doc)
				})
				if err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&doc, nil) {
					return nil // consumer stopped early
				}
			}
			return nil
		})
	}
}

// Stage adds a full-document write to the batch, including index
// maintenance. prev is the previously persisted version (nil on create);
// index entries whose value changed are deleted before the new ones are
// set, so renames never leave stale equality entries behind.
func (e *Entity[T]) Stage(b *WriteBatch, doc, prev *T) error {
	docID := e.idFn(doc)
	if docID == "" {
		return fmt.Errorf("cannot stage document without id")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	b.set(e.key(docID), data)

	for _, idx := range e.indexes {
		newValue := idx.keyGen(doc)
		if prev != nil {
			if oldValue := idx.keyGen(prev); oldValue != "" && oldValue != newValue {
				b.delete(e.indexKey(idx.name, oldValue))
			}
		}
		if newValue != "" {
			b.set(e.indexKey(idx.name, newValue), []byte(docID))
		}
	}
	return nil
}

// StageDelete adds deletion of a document and its index entries to the batch.
func (e *Entity[T]) StageDelete(b *WriteBatch, doc *T) {
	b.delete(e.key(e.idFn(doc)))
	for _, idx := range e.indexes {
		if value := idx.keyGen(doc); value != "" {
			b.delete(e.indexKey(idx.name, value))
		}
	}
}
