package coordination

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is a keyed mutex for single instance deployments. The ttl is
// ignored since the process owns every lock it hands out.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}

	retries int
	backoff time.Duration
}

func NewLocalLocker() *LocalLocker {
	return NewLocalLockerWithRetry(lockRetries, lockBackoff)
}

// NewLocalLockerWithRetry waits at most retries*backoff for a held key.
func NewLocalLockerWithRetry(retries int, backoff time.Duration) *LocalLocker {
	return &LocalLocker{
		slots:   make(map[string]chan struct{}),
		retries: retries,
		backoff: backoff,
	}
}

func (l *LocalLocker) Obtain(ctx context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	if err := l.acquire(ctx, slot); err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}

func (l *LocalLocker) acquire(ctx context.Context, slot chan struct{}) error {
	for attempt := 0; ; attempt++ {
		select {
		case slot <- struct{}{}:
			return nil
		default:
		}

		if attempt >= l.retries {
			return ErrNotObtained
		}

		select {
		case <-time.After(l.backoff):
		case <-ctx.Done():
			return ErrNotObtained
		}
	}
}
