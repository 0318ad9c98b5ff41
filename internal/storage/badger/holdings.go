package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

type holdingStorage struct {
	store *Store
}

func (s *holdingStorage) GetHolding(_ context.Context, username, ticker string) (*models.Holding, error) {
	var h models.Holding
	key := username + "/" + ticker
	if err := s.store.db.Get(key, &h); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s for user %s", models.ErrHoldingNotFound, ticker, username)
		}
		return nil, fmt.Errorf("failed to get holding %s: %w", key, err)
	}
	return &h, nil
}

func (s *holdingStorage) SaveHolding(_ context.Context, holding *models.Holding) error {
	if err := s.store.db.Upsert(holding.Key(), holding); err != nil {
		return fmt.Errorf("failed to save holding %s: %w", holding.Key(), err)
	}
	return nil
}

func (s *holdingStorage) DeleteHolding(_ context.Context, username, ticker string) error {
	key := username + "/" + ticker
	err := s.store.db.Delete(key, models.Holding{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete holding %s: %w", key, err)
	}
	return nil
}

func (s *holdingStorage) ListHoldings(_ context.Context, username string) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := s.store.db.Find(&holdings, badgerhold.Where("Username").Eq(username)); err != nil {
		return nil, fmt.Errorf("failed to list holdings for %s: %w", username, err)
	}
	return holdings, nil
}

func (s *holdingStorage) ListAllHoldings(_ context.Context) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := s.store.db.Find(&holdings, nil); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}
