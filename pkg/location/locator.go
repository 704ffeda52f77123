// Package location resolves the kiosk's position into a delivery address and
// caches the result.
package location

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
	ErrTimeout          = errors.New("location request timed out")
)

type Coords struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Locator reports the device position.
type Locator interface {
	Locate(ctx context.Context) (Coords, error)
}

// StaticLocator reports a fixed position, for kiosks installed at a known
// address. The zero position counts as unknown.
type StaticLocator struct {
	Coords Coords
}

func (l StaticLocator) Locate(ctx context.Context) (Coords, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Coords{}, ErrTimeout
		}
		return Coords{}, err
	}
	if l.Coords.Latitude == 0 && l.Coords.Longitude == 0 {
		return Coords{}, ErrUnavailable
	}
	return l.Coords, nil
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Location permission denied. Please enable location access."
	case errors.Is(err, ErrUnavailable):
		return "Location information is unavailable."
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "Location request timed out."
	default:
		return "Unable to retrieve your location"
	}
}
