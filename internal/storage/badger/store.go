// Package badger provides BadgerHold-based storage for finassist.
package badger

import (
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
)

// Store wraps a BadgerHold database and exposes the typed storage areas.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger

	holdings *holdingStorage
	users    *userStorage
	market   *marketCacheStorage
}

// NewStore opens a BadgerHold store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerHold store opened")

	s := &Store{db: db, logger: logger}
	s.holdings = &holdingStorage{store: s}
	s.users = &userStorage{store: s}
	s.market = &marketCacheStorage{store: s}
	return s, nil
}

// Holdings returns the holding storage area
func (s *Store) Holdings() interfaces.HoldingStorage {
	return s.holdings
}

// Users returns the user storage area
func (s *Store) Users() interfaces.UserStorage {
	return s.users
}

// MarketCache returns the market data cache area
func (s *Store) MarketCache() interfaces.MarketCacheStorage {
	return s.market
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure Store implements StorageManager
var _ interfaces.StorageManager = (*Store)(nil)
