package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates no state has been persisted for the feed yet.
	ErrNotFound = errors.New("storage: state not found")
	// ErrNotConfigured indicates the storage backend was not initialised.
	ErrNotConfigured = errors.New("storage: backend not configured")
)

// FeedState is the last observed amount of one feed.
type FeedState struct {
	AmountMillions float64   `json:"amountMillions"`
	ObservedAt     time.Time `json:"observedAt"`
}

// StateStore is a per-key get/put store for feed state. Keys are feed names.
type StateStore interface {
	GetState(ctx context.Context, feed string) (FeedState, error)
	PutState(ctx context.Context, feed string, state FeedState) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// LoadAmount returns the last persisted amount for feed. A missing key is
// reported as 0 with no error; any other read failure is returned alongside 0
// so callers can log it and carry on.
func LoadAmount(ctx context.Context, store StateStore, feed string) (float64, error) {
	if store == nil {
		return 0, ErrNotConfigured
	}
	state, err := store.GetState(ctx, feed)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return state.AmountMillions, nil
}
