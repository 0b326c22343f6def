// Package aggregate holds loaded articles grouped by calendar day.
package aggregate

import (
	"slices"
	"sync"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/domain"
)

// DefaultFreshWindow is the trailing recency window used by MergeFresh callers that have no
// better bound.
const DefaultFreshWindow = 30 * time.Second

// Store maps DateKeys to buckets ordered newest first. Every mutation runs to completion
// under the write lock; after Close all mutations are no-ops.
type Store struct {
	mu      sync.RWMutex
	loc     *time.Location
	buckets map[domain.DateKey][]domain.Article
	ids     map[string]domain.DateKey
	closed  bool
}

// NewStore creates an empty store that derives DateKeys in loc (UTC when nil).
func NewStore(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		loc:     loc,
		buckets: make(map[domain.DateKey][]domain.Article),
		ids:     make(map[string]domain.DateKey),
	}
}

// ReplaceAll discards every bucket and regroups articles. Invalid and repeated
// articles are dropped. It returns the number of articles kept.
func (s *Store) ReplaceAll(articles []domain.Article) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}

	s.buckets = make(map[domain.DateKey][]domain.Article)
	s.ids = make(map[string]domain.DateKey)

	touched := make(map[domain.DateKey]struct{})
	kept := 0
	for _, a := range articles {
		if key, ok := s.admitLocked(a); ok {
			s.buckets[key] = append(s.buckets[key], a)
			touched[key] = struct{}{}
			kept++
		}
	}
	s.sortLocked(touched)
	return kept
}

// MergeAppend inserts valid articles not already present. Merging the same page twice
// is a no-op the second time. It returns the inserted articles.
func (s *Store) MergeAppend(articles []domain.Article) []domain.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	touched := make(map[domain.DateKey]struct{})
	var inserted []domain.Article
	for _, a := range articles {
		if key, ok := s.admitLocked(a); ok {
			s.buckets[key] = append(s.buckets[key], a)
			touched[key] = struct{}{}
			inserted = append(inserted, a)
		}
	}
	s.sortLocked(touched)
	return inserted
}

// MergeFresh behaves like MergeAppend restricted to articles published after now-window.
// Matches are placed at the front of their bucket before the bucket is re-sorted.
// It returns the inserted articles, newest first.
func (s *Store) MergeFresh(articles []domain.Article, now time.Time, window time.Duration) []domain.Article {
	if window <= 0 {
		window = DefaultFreshWindow
	}
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	fresh := make(map[domain.DateKey][]domain.Article)
	var inserted []domain.Article
	for _, a := range articles {
		if !a.PublishedAt.After(cutoff) {
			continue
		}
		if key, ok := s.admitLocked(a); ok {
			fresh[key] = append(fresh[key], a)
			inserted = append(inserted, a)
		}
	}

	touched := make(map[domain.DateKey]struct{}, len(fresh))
	for key, items := range fresh {
		s.buckets[key] = append(items, s.buckets[key]...)
		touched[key] = struct{}{}
	}
	s.sortLocked(touched)

	slices.SortStableFunc(inserted, newestFirst)
	return inserted
}

// SortedDateKeys returns every key with a non-empty bucket, newest day first.
func (s *Store) SortedDateKeys() []domain.DateKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]domain.DateKey, 0, len(s.buckets))
	for key, bucket := range s.buckets {
		if len(bucket) > 0 {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b domain.DateKey) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	return keys
}

// Bucket returns a copy of the articles for key.
func (s *Store) Bucket(key domain.DateKey) []domain.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.buckets[key])
}

// Contains reports whether an article id is already held.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of articles held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Location returns the reference location used for DateKeys.
func (s *Store) Location() *time.Location { return s.loc }

// Close tears the store down; later mutations are ignored while reads keep working.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// admitLocked checks validity and uniqueness, reserving the id on success.
func (s *Store) admitLocked(a domain.Article) (domain.DateKey, bool) {
	if a.Validate() != nil || a.ID == "" {
		return "", false
	}
	if _, dup := s.ids[a.ID]; dup {
		return "", false
	}
	key := domain.KeyFor(a.PublishedAt, s.loc)
	s.ids[a.ID] = key
	return key, true
}

func (s *Store) sortLocked(keys map[domain.DateKey]struct{}) {
	for key := range keys {
		slices.SortStableFunc(s.buckets[key], newestFirst)
	}
}

func newestFirst(a, b domain.Article) int {
	return b.PublishedAt.Compare(a.PublishedAt)
}
