// Package persist keeps one serializable state value per key in a
// repository.Backend. Reads never fail: missing, malformed or unknown-version
// blobs fall back to the default state. Write failures are logged and
// swallowed, leaving the in-memory state authoritative for the session.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/repository"
	"go.uber.org/zap"
)

// CurrentVersion is written on every save. Version 0 is the unversioned
// {"state": ...} layout older storefront builds wrote.
const CurrentVersion = 1

type envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt,omitempty"`
	State   json.RawMessage `json:"state"`
}

// Migration upgrades a blob written at an older version to the current shape.
type Migration[T any] func(version int, raw json.RawMessage) (T, error)

type Store[T any] struct {
	backend  repository.Backend
	key      string
	defaults func() T
	migrate  Migration[T]
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

type Option[T any] func(*Store[T])

// WithMigration installs the upgrade path for older versions. Without one,
// older blobs are decoded as if they had the current shape.
func WithMigration[T any](fn Migration[T]) Option[T] {
	return func(s *Store[T]) {
		s.migrate = fn
	}
}

// WithTimeout bounds each backend call.
func WithTimeout[T any](d time.Duration) Option[T] {
	return func(s *Store[T]) {
		s.timeout = d
	}
}

func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(s *Store[T]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New[T any](backend repository.Backend, key string, defaults func() T, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		backend:  backend,
		key:      key,
		defaults: defaults,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = s.logger.With(zap.String("key", key))
	return s
}

func (s *Store[T]) Key() string {
	return s.key
}

func (s *Store[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Load returns the stored state, or the default state when nothing usable
// is stored.
func (s *Store[T]) Load(ctx context.Context) T {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, ok, err := s.backend.Load(ctx, s.key)
	if err != nil {
		s.logger.Warn("Failed to load state, using defaults", zap.Error(err))
		return s.defaults()
	}
	if !ok {
		return s.defaults()
	}

	state, err := s.decode(data)
	if err != nil {
		s.logger.Warn("Discarding unreadable state, using defaults", zap.Error(err))
		return s.defaults()
	}
	return state
}

func (s *Store[T]) decode(data []byte) (T, error) {
	var zero T
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, fmt.Errorf("malformed envelope: %w", err)
	}
	if len(env.State) == 0 || string(env.State) == "null" {
		return zero, fmt.Errorf("envelope has no state")
	}

	switch {
	case env.Version == CurrentVersion:
		return s.unmarshalState(env.State)
	case env.Version < CurrentVersion && s.migrate != nil:
		state, err := s.migrate(env.Version, env.State)
		if err != nil {
			return zero, fmt.Errorf("migrate from version %d: %w", env.Version, err)
		}
		return state, nil
	case env.Version < CurrentVersion:
		return s.unmarshalState(env.State)
	default:
		return zero, fmt.Errorf("unsupported version %d", env.Version)
	}
}

// unmarshalState decodes over the defaults so fields missing from older
// blobs keep their default values.
func (s *Store[T]) unmarshalState(raw json.RawMessage) (T, error) {
	state := s.defaults()
	if err := json.Unmarshal(raw, &state); err != nil {
		var zero T
		return zero, fmt.Errorf("malformed state: %w", err)
	}
	return state, nil
}

// Save writes state under the current version. Failures are logged only.
func (s *Store[T]) Save(ctx context.Context, state T) {
	raw, err := json.Marshal(state)
	if err != nil {
		s.logger.Warn("Failed to serialize state", zap.Error(err))
		return
	}
	data, err := json.Marshal(envelope{Version: CurrentVersion, SavedAt: s.now().UTC(), State: raw})
	if err != nil {
		s.logger.Warn("Failed to serialize envelope", zap.Error(err))
		return
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		s.logger.Warn("Failed to persist state, keeping it in memory", zap.Error(err))
	}
}

// Clear removes the stored blob.
func (s *Store[T]) Clear(ctx context.Context) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.backend.Delete(ctx, s.key); err != nil {
		s.logger.Warn("Failed to clear state", zap.Error(err))
	}
}
