package location

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/persist"
	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/repository"
	"go.uber.org/zap"
)

const CacheKey = "startup-kafe-location"

type State struct {
	Address string  `json:"address,omitempty"`
	Coords  *Coords `json:"coords,omitempty"`
	Loading bool    `json:"loading"`
	Error   string  `json:"error,omitempty"`
}

// CacheEntry is the persisted last known location. Timestamp is in
// milliseconds since the epoch.
type CacheEntry struct {
	Address   string  `json:"address"`
	Coords    *Coords `json:"coords"`
	Timestamp int64   `json:"timestamp"`
}

func emptyEntry() CacheEntry {
	return CacheEntry{}
}

// NewCache binds the location cache to its storage key.
func NewCache(backend repository.Backend, logger *zap.Logger) *persist.Store[CacheEntry] {
	return persist.New(backend, CacheKey, emptyEntry, persist.WithLogger[CacheEntry](logger))
}

type Service struct {
	locator  Locator
	geocoder Geocoder
	cache    *persist.Store[CacheEntry]
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	state    State
	cachedAt time.Time
}

// NewService restores a cached location younger than ttl.
func NewService(ctx context.Context, locator Locator, geocoder Geocoder, cache *persist.Store[CacheEntry], ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		locator:  locator,
		geocoder: geocoder,
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.Named("location"),
	}
	entry := cache.Load(ctx)
	if entry.Address != "" {
		at := time.UnixMilli(entry.Timestamp)
		if s.now().Sub(at) < ttl {
			s.state = State{Address: entry.Address, Coords: entry.Coords}
			s.cachedAt = at
		}
	}
	return s
}

// Current returns the last known location. A cached address older than the
// TTL is dropped.
func (s *Service) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cachedAt.IsZero() && s.now().Sub(s.cachedAt) >= s.ttl {
		s.state.Address = ""
		s.state.Coords = nil
		s.cachedAt = time.Time{}
	}
	return s.state
}

// Forget drops the cached address both in memory and in storage.
func (s *Service) Forget(ctx context.Context) State {
	s.cache.Clear(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Address = ""
	s.state.Coords = nil
	s.state.Error = ""
	s.cachedAt = time.Time{}
	return s.state
}

// Fresh reports whether a cached address is available.
func (s *Service) Fresh() bool {
	return s.Current().Address != ""
}

// Refresh locates the device and resolves its address. A failed lookup
// keeps the previous address and reports the error; a failed geocode falls
// back to the raw coordinates.
func (s *Service) Refresh(ctx context.Context) State {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	coords, err := s.locator.Locate(ctx)
	if err != nil {
		s.logger.Warn("Failed to locate device", zap.Error(err))
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state.Loading = false
		s.state.Error = errorMessage(err)
		return s.state
	}

	address, err := s.geocoder.Reverse(ctx, coords)
	if err != nil || address == "" {
		s.logger.Warn("Reverse geocoding failed, using coordinates", zap.Error(err))
		address = fmt.Sprintf("%.6f, %.6f", coords.Latitude, coords.Longitude)
	}

	now := s.now()
	s.cache.Save(ctx, CacheEntry{Address: address, Coords: &coords, Timestamp: now.UnixMilli()})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Address: address, Coords: &coords}
	s.cachedAt = now
	return s.state
}
