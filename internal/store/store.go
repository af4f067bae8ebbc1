// Package store persists the entity pool in a Badger key-value database.
//
// Documents are JSON values under "<collection>:<id>" keys. Equality lookups
// go through secondary index keys ("<collection>:idx:<name>:<value>" → id),
// which is how the dedup-by-name pool queries stay O(1): keywords by name,
// tags by (category, name), tag categories by name, dashboards by
// (name, suffix), clients by suffix.
//
// Writes are staged on a WriteBatch and committed in a single Badger
// transaction, so a reconciliation either lands completely or not at all.
package store

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/mostaks/kwr-dashboard-server/internal/domain"
	"github.com/mostaks/kwr-dashboard-server/internal/util"
)

// indexSep separates components of composite index values. Unit separator:
// cannot appear in trimmed user-supplied names.
const indexSep = "\x1f"

// Store wraps a Badger database instance with typed entity collections.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Clients       *Entity[domain.Client]
	Dashboards    *Entity[domain.Dashboard]
	TagCategories *Entity[domain.TagCategory]
	Tags          *Entity[domain.Tag]
	Keywords      *Entity[domain.Keyword]
}

// New opens the database at path and initializes the entity collections.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Badger's internal logging is noisy
	opts.SyncWrites = true // survive crashes without corrupt pool state

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	s.initEntities()

	if logger != nil {
		logger.Info("database opened", "path", path)
	}

	return s, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("closing database")
	}
	return s.db.Close()
}

func (s *Store) initEntities() {
	s.Clients = NewEntity(s, "client:", func(c *domain.Client) string { return c.ID }).
		WithIndex("suffix", func(c *domain.Client) string { return c.Suffix })

	s.Dashboards = NewEntity(s, "dashboard:", func(d *domain.Dashboard) string { return d.ID }).
		WithIndex("nameSuffix", func(d *domain.Dashboard) string {
			return DashboardKey(d.Name, d.Suffix)
		})

	s.TagCategories = NewEntity(s, "tagCategory:", func(c *domain.TagCategory) string { return c.ID }).
		WithIndex("name", func(c *domain.TagCategory) string { return util.CleanName(c.Name) })

	s.Tags = NewEntity(s, "tag:", func(t *domain.Tag) string { return t.ID }).
		WithIndex("categoryName", func(t *domain.Tag) string {
			return TagKey(t.TagCategory, t.Name)
		})

	s.Keywords = NewEntity(s, "keyword:", func(k *domain.Keyword) string { return k.ID }).
		WithIndex("name", func(k *domain.Keyword) string { return util.CleanName(k.Name) })
}

// DashboardKey builds the (name, suffix) equality value dashboards are
// upserted by. The name is compared trimmed.
func DashboardKey(name, suffix string) string {
	name = util.CleanName(name)
	if name == "" || strings.TrimSpace(suffix) == "" {
		return ""
	}
	return name + indexSep + suffix
}

// TagKey builds the (category, value) equality value tags are deduplicated
// by. The same value name under two categories is two distinct tags.
func TagKey(category, name string) string {
	if category == "" || name == "" {
		return ""
	}
	return category + indexSep + name
}
