package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

type userStorage struct {
	store *Store
}

func (s *userStorage) GetUser(_ context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.store.db.Get(username, &u); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("user %q: %w", username, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return &u, nil
}

func (s *userStorage) SaveUser(_ context.Context, user *models.User) error {
	if err := s.store.db.Upsert(user.Username, user); err != nil {
		return fmt.Errorf("failed to save user %q: %w", user.Username, err)
	}
	return nil
}
