package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// WriteBatch accumulates staged writes in memory and commits them in a
// single Badger transaction: either every staged write lands or none do.
// Nothing touches the database until Commit.
//
// Later writes to the same key win, matching merge-upsert staging where a
// document may be re-staged within one reconciliation.
type WriteBatch struct {
	store *Store
	ops   []stagedOp
}

type stagedOp struct {
	key    []byte
	value  []byte
	delete bool
}

// NewBatch creates an empty write batch.
func (s *Store) NewBatch() *WriteBatch {
	return &WriteBatch{store: s}
}

func (b *WriteBatch) set(key, value []byte) {
	b.ops = append(b.ops, stagedOp{key: key, value: value})
}

func (b *WriteBatch) delete(key []byte) {
	b.ops = append(b.ops, stagedOp{key: key, delete: true})
}

// Count returns the number of staged operations.
func (b *WriteBatch) Count() int {
	return len(b.ops)
}

// Commit applies all staged operations atomically. The batch is spent
// afterwards and must not be reused.
func (b *WriteBatch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(b.ops) == 0 {
		return nil
	}

	err := b.store.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			if op.delete {
				if err := txn.Delete(op.key); err != nil {
					return fmt.Errorf("batch delete: %w", err)
				}
				continue
			}
			if err := txn.Set(op.key, op.value); err != nil {
				return fmt.Errorf("batch set: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	if b.store.logger != nil {
		b.store.logger.LogAttrs(context.Background(), slog.LevelDebug, "batch committed",
			slog.Int("ops", len(b.ops)),
		)
	}

	b.ops = nil
	return nil
}
