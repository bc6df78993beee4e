package services

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RoundTimer is a cancellable countdown. The expiry callback runs at most
// once, on its own goroutine, unless Cancel wins the race first. Cancel is
// idempotent and a no-op after natural expiry.
type RoundTimer struct {
	cancel chan struct{}
	once   sync.Once
}

// StartRoundTimer schedules onExpire to run after d. The clock is injected
// so tests can drive expiry with a fake.
func StartRoundTimer(clock clockwork.Clock, d time.Duration, onExpire func()) *RoundTimer {
	t := &RoundTimer{cancel: make(chan struct{})}

	go func() {
		select {
		case <-clock.After(d):
			onExpire()
		case <-t.cancel:
		}
	}()

	return t
}

func (t *RoundTimer) Cancel() {
	t.once.Do(func() { close(t.cancel) })
}
