package store

import (
	"sync"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/google/uuid"
)

const (
	DefaultToastDuration = 3 * time.Second
	DefaultMaxToasts     = 5
)

type activeToast struct {
	toast models.Toast
	timer *time.Timer
}

// Toasts is a bounded queue of transient messages. Each toast removes itself
// when its duration elapses; past the cap the oldest toast is dropped.
type Toasts struct {
	mu       sync.Mutex
	active   []activeToast
	duration time.Duration
	limit    int
	closed   bool
	hub      *Hub
}

// NewToasts builds a queue with the given default duration and cap. Zero
// values select DefaultToastDuration and DefaultMaxToasts.
func NewToasts(duration time.Duration, limit int) *Toasts {
	if duration <= 0 {
		duration = DefaultToastDuration
	}
	if limit <= 0 {
		limit = DefaultMaxToasts
	}
	return &Toasts{duration: duration, limit: limit, hub: NewHub(NameToasts)}
}

func (t *Toasts) Hub() *Hub {
	return t.hub
}

// Add queues text. An empty severity means success; a non-positive duration
// means the queue default.
func (t *Toasts) Add(text string, severity models.Severity, duration time.Duration) models.Toast {
	if severity == "" {
		severity = models.SeveritySuccess
	}
	if duration <= 0 {
		duration = t.duration
	}
	toast := models.Toast{
		ID:        uuid.NewString(),
		Text:      text,
		Severity:  severity,
		CreatedAt: time.Now().UTC(),
	}

	t.mu.Lock()
	entry := activeToast{toast: toast}
	if !t.closed {
		id := toast.ID
		entry.timer = time.AfterFunc(duration, func() { t.expire(id) })
	}
	t.active = append(t.active, entry)
	for len(t.active) > t.limit {
		if t.active[0].timer != nil {
			t.active[0].timer.Stop()
		}
		t.active = t.active[1:]
	}
	t.hub.record("add")
	t.mu.Unlock()
	t.hub.flush()
	return toast
}

func (t *Toasts) expire(id string) {
	if t.remove(id, "expire") {
		t.hub.flush()
	}
}

// Remove drops the toast immediately and cancels its timer. It reports
// whether the toast was still active.
func (t *Toasts) Remove(id string) bool {
	removed := t.remove(id, "remove")
	if removed {
		t.hub.flush()
	}
	return removed
}

func (t *Toasts) remove(id, action string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, entry := range t.active {
		if entry.toast.ID != id {
			continue
		}
		if entry.timer != nil {
			entry.timer.Stop()
		}
		t.active = append(t.active[:i:i], t.active[i+1:]...)
		t.hub.record(action)
		return true
	}
	return false
}

// Active returns the queued toasts, oldest first.
func (t *Toasts) Active() []models.Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Toast, len(t.active))
	for i, entry := range t.active {
		out[i] = entry.toast
	}
	return out
}

// Close cancels every pending expiry. Toasts added afterwards never expire.
func (t *Toasts) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for _, entry := range t.active {
		if entry.timer != nil {
			entry.timer.Stop()
		}
	}
}
