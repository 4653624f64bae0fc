// README: Persistence adapter for recent searches and bookmarks over the key-value substrate.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"zekken/internal/kv"
	"zekken/internal/observability"
)

const (
	RecentSearchesKey = "zekkenRecentSearches"
	BookmarksKey      = "zekkenBookmarkedLocations"
)

// Store reads and writes whole collections. Read and parse failures are logged and
// yield an empty collection so a corrupt record never blocks a session.
type Store struct {
	kv  kv.Store
	log *slog.Logger
}

func NewStore(kvs kv.Store, log *slog.Logger) *Store {
	return &Store{kv: kvs, log: log}
}

func (s *Store) LoadRecent(ctx context.Context) []SearchParams {
	var out []SearchParams
	for _, p := range load[SearchParams](ctx, s, RecentSearchesKey) {
		if len(out) == MaxRecentSearches {
			break
		}
		if validateParams(p) != nil {
			continue
		}
		p = normalizeParams(p)
		if slices.ContainsFunc(out, p.SameSearch) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Store) SaveRecent(ctx context.Context, recent []SearchParams) error {
	return save(ctx, s, RecentSearchesKey, recent)
}

func (s *Store) LoadBookmarks(ctx context.Context) []Bookmark {
	var out []Bookmark
	for _, b := range load[Bookmark](ctx, s, BookmarksKey) {
		if b.ID == "" || normalize(b.Address) == "" || bookmarkIndex(out, b.Address) >= 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (s *Store) SaveBookmarks(ctx context.Context, bookmarks []Bookmark) error {
	return save(ctx, s, BookmarksKey, bookmarks)
}

func load[T any](ctx context.Context, s *Store, key string) []T {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		observability.StoreFailuresTotal.WithLabelValues("read").Inc()
		s.log.Warn("could not read stored collection", "key", key, "err", err)
		return nil
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		observability.StoreFailuresTotal.WithLabelValues("parse").Inc()
		s.log.Warn("could not parse stored collection", "key", key, "err", err)
		return nil
	}
	return out
}

func save[T any](ctx context.Context, s *Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		observability.StoreFailuresTotal.WithLabelValues("write").Inc()
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
