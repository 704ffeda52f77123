package auth

import (
	"sync"
	"time"
)

// ResendTimer is the cancellable cooldown between OTP requests. Starting it
// again cancels the running countdown.
type ResendTimer struct {
	period time.Duration
	now    func() time.Time

	mu       sync.Mutex
	deadline time.Time
	timer    *time.Timer
}

func NewResendTimer(period time.Duration) *ResendTimer {
	return &ResendTimer{period: period, now: time.Now}
}

// Start begins a new countdown. The returned channel is closed when this
// countdown runs out; it is never closed if the countdown is cancelled.
func (t *ResendTimer) Start() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()

	done := make(chan struct{})
	t.deadline = t.now().Add(t.period)
	var fired *time.Timer
	fired = time.AfterFunc(t.period, func() {
		t.mu.Lock()
		current := t.timer == fired
		if current {
			t.timer = nil
		}
		t.mu.Unlock()
		if current {
			close(done)
		}
	})
	t.timer = fired
	return done
}

// Remaining is the time left before a resend is allowed.
func (t *ResendTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil {
		return 0
	}
	left := t.deadline.Sub(t.now())
	if left < 0 {
		return 0
	}
	return left
}

func (t *ResendTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *ResendTimer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.deadline = time.Time{}
}
