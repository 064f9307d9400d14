// Package coordination serialises work and hands out code numbers across API
// instances. Redis backs both concerns when configured; otherwise the process
// local implementations are used.
package coordination

import (
	"context"
	"errors"
	"time"
)

// Obtain gives up with ErrNotObtained after lockRetries attempts spaced by
// lockBackoff, whichever backend holds the lock.
const (
	lockRetries = 50
	lockBackoff = 100 * time.Millisecond
)

var ErrNotObtained = errors.New("lock not obtained")

// Locker grants exclusive, expiring ownership of a key.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// Sequencer returns monotonically increasing numbers per scope.
type Sequencer interface {
	Next(ctx context.Context, scope string) (int64, error)
	// Resync raises the counter of scope to the highest number already in use.
	Resync(ctx context.Context, scope string) error
}

// FloorFunc reports the highest number already persisted for scope.
type FloorFunc func(scope string) (int64, error)
