package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandokurniawan23/finassist/internal/common"
	"github.com/fernandokurniawan23/finassist/internal/interfaces"
	"github.com/fernandokurniawan23/finassist/internal/models"
)

type memUserStore struct {
	data map[string]models.User
}

func (m *memUserStore) GetUser(_ context.Context, username string) (*models.User, error) {
	u, ok := m.data[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, models.ErrUserNotFound)
	}
	return &u, nil
}

func (m *memUserStore) SaveUser(_ context.Context, user *models.User) error {
	m.data[user.Username] = *user
	return nil
}

type memStorage struct {
	users *memUserStore
}

func (m *memStorage) Holdings() interfaces.HoldingStorage        { return nil }
func (m *memStorage) Users() interfaces.UserStorage              { return m.users }
func (m *memStorage) MarketCache() interfaces.MarketCacheStorage { return nil }
func (m *memStorage) Close() error                               { return nil }

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(&memStorage{users: &memUserStore{data: make(map[string]models.User)}}, 5, common.NewSilentLogger())
	return svc
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice_01", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, "alice_01", user.Username, "usernames are lowercased")
	assert.Equal(t, models.TierFree, user.Tier)

	got, err := svc.Authenticate(ctx, "ALICE_01", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, "alice_01", got.Username)

	_, err = svc.Authenticate(ctx, "alice_01", "wrong-password")
	assert.Error(t, err)

	_, err = svc.Authenticate(ctx, "nobody", "s3cret-password")
	assert.Error(t, err)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ab", "s3cret-password")
	assert.Error(t, err, "username too short")

	_, err = svc.Register(ctx, "has spaces", "s3cret-password")
	assert.Error(t, err)

	_, err = svc.Register(ctx, "alice", "short")
	assert.Error(t, err, "password too short")

	_, err = svc.Register(ctx, "alice", "s3cret-password")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "another-password")
	assert.Error(t, err, "duplicate username")
}

func TestQuota_CountsAndExhausts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s3cret-password")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ok, _, err := svc.CheckQuota(ctx, "alice")
		require.NoError(t, err)
		require.True(t, ok, "message %d should be allowed", i+1)
		require.NoError(t, svc.IncrementUsage(ctx, "alice"))
	}

	ok, status, err := svc.CheckQuota(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, status, "daily limit")
}

func TestQuota_ResetsOnDateChange(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	day := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }

	_, err := svc.Register(ctx, "alice", "s3cret-password")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.IncrementUsage(ctx, "alice"))
	}
	ok, _, err := svc.CheckQuota(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok)

	// Next calendar day: counter resets lazily
	svc.now = func() time.Time { return day.AddDate(0, 0, 1) }
	ok, status, err := svc.CheckQuota(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, status, "0 of 5")
}

func TestQuota_ProIsUnlimited(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s3cret-password")
	require.NoError(t, err)
	require.NoError(t, svc.UpgradeToPro(ctx, "alice"))

	for i := 0; i < 20; i++ {
		require.NoError(t, svc.IncrementUsage(ctx, "alice"))
	}

	ok, status, err := svc.CheckQuota(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, status, "pro")
}

func TestWatchlist(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s3cret-password")
	require.NoError(t, err)

	require.NoError(t, svc.AddToWatchlist(ctx, "alice", "bbca.jk"))
	require.NoError(t, svc.AddToWatchlist(ctx, "alice", "BBCA.JK"), "adding twice is idempotent")
	require.NoError(t, svc.AddToWatchlist(ctx, "alice", "AAPL"))

	list, err := svc.GetWatchlist(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"BBCA.JK", "AAPL"}, list)

	require.NoError(t, svc.RemoveFromWatchlist(ctx, "alice", "BBCA.JK"))
	require.NoError(t, svc.RemoveFromWatchlist(ctx, "alice", "NOTTHERE"), "removing an untracked ticker is not an error")

	list, err = svc.GetWatchlist(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, list)

	assert.Error(t, svc.AddToWatchlist(ctx, "alice", "  "))
}
