// Package users manages accounts, daily message quotas, and watchlists.
package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

// Service implements UserService over badger storage
type Service struct {
	storage   interfaces.StorageManager
	logger    *common.Logger
	freeQuota int
	now       func() time.Time
}

// NewService creates a new user service. freeQuota is the number of assistant
// messages a free-tier account may send per calendar day.
func NewService(storage interfaces.StorageManager, freeQuota int, logger *common.Logger) *Service {
	return &Service{
		storage:   storage,
		logger:    logger,
		freeQuota: freeQuota,
		now:       time.Now,
	}
}

// Register creates a new free-tier account
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("username must be 3-32 lowercase letters, digits, or underscores")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	if _, err := s.storage.Users().GetUser(ctx, username); err == nil {
		return nil, fmt.Errorf("username %q is taken", username)
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Tier:         models.TierFree,
		QuotaDay:     s.today(),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.storage.Users().SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", username).Msg("User registered")
	return user, nil
}

// Authenticate verifies credentials and returns the account
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	user, err := s.storage.Users().GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, fmt.Errorf("invalid username or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid username or password")
	}
	return user, nil
}

// CheckQuota reports whether the user may send another assistant message
// today. Pro accounts are unlimited. The counter resets lazily when the
// stored day falls behind the current date.
func (s *Service) CheckQuota(ctx context.Context, username string) (bool, string, error) {
	user, err := s.storage.Users().GetUser(ctx, username)
	if err != nil {
		return false, "", err
	}

	if user.Tier == models.TierPro {
		return true, "pro tier, unlimited", nil
	}

	used := user.QuotaUsed
	if user.QuotaDay != s.today() {
		used = 0
	}
	if used >= s.freeQuota {
		return false, fmt.Sprintf("daily limit of %d messages reached", s.freeQuota), nil
	}
	return true, fmt.Sprintf("%d of %d messages used today", used, s.freeQuota), nil
}

// IncrementUsage counts one completed assistant round trip against the
// daily quota. Pro accounts are not counted.
func (s *Service) IncrementUsage(ctx context.Context, username string) error {
	user, err := s.storage.Users().GetUser(ctx, username)
	if err != nil {
		return err
	}
	if user.Tier == models.TierPro {
		return nil
	}

	today := s.today()
	if user.QuotaDay != today {
		user.QuotaDay = today
		user.QuotaUsed = 0
	}
	user.QuotaUsed++
	return s.storage.Users().SaveUser(ctx, user)
}

// UpgradeToPro lifts the daily quota for the account
func (s *Service) UpgradeToPro(ctx context.Context, username string) error {
	user, err := s.storage.Users().GetUser(ctx, username)
	if err != nil {
		return err
	}
	if user.Tier == models.TierPro {
		return nil
	}
	user.Tier = models.TierPro
	if err := s.storage.Users().SaveUser(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Str("username", username).Msg("User upgraded to pro")
	return nil
}

// AddToWatchlist tracks a ticker for the user. Idempotent.
func (s *Service) AddToWatchlist(ctx context.Context, username, ticker string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	user, err := s.storage.Users().GetUser(ctx, username)
	if err != nil {
		return err
	}
	if user.OnWatchlist(ticker) {
		return nil
	}
	user.Watchlist = append(user.Watchlist, ticker)
	return s.storage.Users().SaveUser(ctx, user)
}

// RemoveFromWatchlist stops tracking a ticker. Removing an untracked ticker
// is not an error.
func (s *Service) RemoveFromWatchlist(ctx context.Context, username, ticker string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	user, err := s.storage.Users().GetUser(ctx, username)
	if err != nil {
		return err
	}
	kept := user.Watchlist[:0]
	for _, t := range user.Watchlist {
		if t != ticker {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(user.Watchlist) {
		return nil
	}
	user.Watchlist = kept
	return s.storage.Users().SaveUser(ctx, user)
}

// GetWatchlist returns the user's tracked tickers
func (s *Service) GetWatchlist(ctx context.Context, username string) ([]string, error) {
	user, err := s.storage.Users().GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(user.Watchlist))
	copy(out, user.Watchlist)
	return out, nil
}

func (s *Service) today() string {
	return s.now().UTC().Format("2006-01-02")
}

// Ensure Service implements UserService
var _ interfaces.UserService = (*Service)(nil)
