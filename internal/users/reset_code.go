package users

import (
	"context"
	"time"

	"github.com/isgnet/devreg/internal/store"
)

// ResetCode is a pending password reset keyed by email. Only the HMAC of the
// mailed code is kept.
type ResetCode struct {
	UserID    uint   `redis:"user_id" json:"user_id"`
	CodeHash  string `redis:"code_hash" json:"code_hash"`
	Attempts  int    `redis:"attempts" json:"attempts"`
	ExpiresAt int64  `redis:"expires_at" json:"expires_at"`
}

func (c *ResetCode) IsExpired() bool {
	return time.Now().Unix() > c.ExpiresAt
}

type resetCodeStore struct {
	store.Store[ResetCode]
}

func (s *resetCodeStore) IncreaseAttempts(ctx context.Context, email string) (int, error) {
	attempts, err := s.IncrAttr(ctx, email, "attempts", 1)
	return int(attempts), err
}

func newResetCodeStore(storage store.Storage, keyPrefix string) *resetCodeStore {
	return &resetCodeStore{
		Store: store.New[ResetCode](storage, keyPrefix),
	}
}
