package models

import "time"

// Tier gates daily assistant usage
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// User is a registered account with quota tracking. The quota counter resets
// when QuotaDay falls behind the current date.
type User struct {
	Username     string    `json:"username" badgerhold:"key"`
	PasswordHash []byte    `json:"-"`
	Tier         Tier      `json:"tier"`
	QuotaUsed    int       `json:"quota_used"`
	QuotaDay     string    `json:"quota_day"` // YYYY-MM-DD of the last counted message
	Watchlist    []string  `json:"watchlist,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OnWatchlist reports whether the ticker is already tracked
func (u *User) OnWatchlist(ticker string) bool {
	for _, t := range u.Watchlist {
		if t == ticker {
			return true
		}
	}
	return false
}
