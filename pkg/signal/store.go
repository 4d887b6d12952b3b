package signal

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scorealign/pkg/cache"
	"github.com/matzehuels/scorealign/pkg/errors"
	"github.com/matzehuels/scorealign/pkg/observability"
)

// Store loads signal levels and keeps them for the process lifetime.
type Store struct {
	source Source
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger

	mu     sync.Mutex
	levels map[int]*Table
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCache caches raw level bytes in c under keys from keyer.
func WithCache(c cache.Cache, keyer cache.Keyer, ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.cache, s.keyer, s.ttl = c, keyer, ttl
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a store reading from source.
func NewStore(source Source, opts ...StoreOption) *Store {
	s := &Store{
		source: source,
		cache:  cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
		ttl:    cache.TTLSignal,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		levels: make(map[int]*Table),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the table of level, fetching it on first use.
//
// Lookup order is the in-memory table, then the byte cache, then the source.
// A failed fetch is not remembered, so a later call retries.
func (s *Store) Load(ctx context.Context, level int) (*Table, error) {
	if err := errors.ValidateLevel(level); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.levels[level]; ok {
		return t, nil
	}

	key := s.keyer.SignalKey(s.source.Name(), level)
	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		if t, err := Parse(bytes.NewReader(data)); err == nil {
			observability.Cache().OnCacheHit(ctx, "signal")
			s.levels[level] = t
			return t, nil
		}
		_ = s.cache.Delete(ctx, key)
	} else if err != nil {
		s.logger.Warn("signal cache read failed", "level", level, "error", err)
	}
	observability.Cache().OnCacheMiss(ctx, "signal")

	data, err := s.source.Fetch(ctx, level)
	if err != nil {
		if errors.IsFatalLoad(err) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeSignalLoad, err, "level %d", level)
	}
	t, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("signal cache write failed", "level", level, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "signal", len(data))
	}

	s.logger.Debug("loaded signal level", "level", level, "samples", t.Len(), "minima", len(t.Minima()))
	s.levels[level] = t
	return t, nil
}

// SourceName returns the name of the underlying source.
func (s *Store) SourceName() string { return s.source.Name() }

// Loaded returns the ids of the levels held in memory.
func (s *Store) Loaded() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.levels))
	for l := range s.levels {
		out = append(out, l)
	}
	return out
}

// Forget drops a level from memory so the next Load reads the cache or the
// source again.
func (s *Store) Forget(level int) {
	s.mu.Lock()
	delete(s.levels, level)
	s.mu.Unlock()
}
