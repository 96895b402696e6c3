// Package badgercache implements the persistent CacheStore on BadgerDB,
// so CLI invocations reuse GET responses across processes.
package badgercache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/conductor/internal/common"
)

// Entry is one cached response.
type Entry struct {
	Key       string `badgerhold:"key"`
	Body      []byte
	ExpiresAt time.Time
}

// Store manages the Badger database connection behind the response cache.
type Store struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// Open creates (or reopens) the persistent cache at config.Path.
func Open(config *common.BadgerConfig, logger arbor.ILogger) (*Store, error) {
	// If reset_on_startup is enabled, delete the existing database
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("Deleting existing cache database (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to delete cache directory")
			}
		}
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Opening Badger cache database")

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}

	return &Store{
		store:  store,
		logger: logger,
	}, nil
}

// Get returns the cached body for key; expired entries are dropped and
// reported as misses.
func (s *Store) Get(key string) ([]byte, bool) {
	var entry Entry
	if err := s.store.Get(key, &entry); err != nil {
		if err != badgerhold.ErrNotFound {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to read cache entry")
		}
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		s.Delete(key)
		return nil, false
	}
	return entry.Body, true
}

func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	entry := Entry{
		Key:       key,
		Body:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.store.Upsert(key, &entry); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to store cache entry")
	}
}

func (s *Store) Delete(key string) {
	if err := s.store.Delete(key, &Entry{}); err != nil && err != badgerhold.ErrNotFound {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete cache entry")
	}
}

// Sweep removes expired entries. Returns how many were dropped.
func (s *Store) Sweep() (int, error) {
	var expired []Entry
	query := badgerhold.Where("ExpiresAt").Lt(time.Now())
	if err := s.store.Find(&expired, query); err != nil {
		return 0, fmt.Errorf("failed to query expired cache entries: %w", err)
	}
	dropped := 0
	for _, entry := range expired {
		if err := s.store.Delete(entry.Key, &Entry{}); err != nil && err != badgerhold.ErrNotFound {
			s.logger.Warn().Err(err).Str("key", entry.Key).Msg("Failed to delete expired cache entry")
			continue
		}
		dropped++
	}
	if dropped > 0 {
		s.logger.Debug().Int("dropped", dropped).Msg("Swept expired cache entries")
	}
	return dropped, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
