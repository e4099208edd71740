// Package geo resolves the user's coordinates: device position first, IP lookup second,
// previously known coordinates last.
package geo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonathan/jobplus/internal/types"
)

// DefaultMaxAge is how old a device fix may be and still be reused.
const DefaultMaxAge = 60 * time.Second

var (
	// ErrUnavailable means the device has no position to report.
	ErrUnavailable = errors.New("device location unavailable")
	// ErrMalformedFix means the device reported coordinates that are not on the globe.
	ErrMalformedFix = errors.New("device reported a malformed position")
)

// Fix is a position together with the time it was taken.
type Fix struct {
	Coordinates types.Coordinates
	Taken       time.Time
}

// Age returns how old the fix is at now.
func (f Fix) Age(now time.Time) time.Duration {
	return now.Sub(f.Taken)
}

// DeviceLocator reports the device's current position.
type DeviceLocator interface {
	CurrentPosition(ctx context.Context) (Fix, error)
}

// StaticDevice reports a fixed position, as configured by flags or environment.
// A nil position makes it report ErrUnavailable.
type StaticDevice struct {
	Position *types.Coordinates
	Now      func() time.Time
}

// CurrentPosition implements DeviceLocator.
func (d *StaticDevice) CurrentPosition(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}
	if d == nil || d.Position == nil {
		return Fix{}, ErrUnavailable
	}
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return Fix{Coordinates: *d.Position, Taken: now()}, nil
}

// CachedDevice reuses the last successful fix while it is younger than MaxAge.
type CachedDevice struct {
	source DeviceLocator
	maxAge time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last *Fix
}

// NewCachedDevice wraps source. A non-positive maxAge uses DefaultMaxAge.
func NewCachedDevice(source DeviceLocator, maxAge time.Duration) *CachedDevice {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &CachedDevice{source: source, maxAge: maxAge, now: time.Now}
}

// CurrentPosition implements DeviceLocator.
func (c *CachedDevice) CurrentPosition(ctx context.Context) (Fix, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && c.last.Age(c.now()) <= c.maxAge {
		return *c.last, nil
	}

	fix, err := c.source.CurrentPosition(ctx)
	if err != nil {
		return Fix{}, err
	}
	if !fix.Coordinates.Valid() {
		return Fix{}, ErrMalformedFix
	}
	c.last = &fix
	return fix, nil
}
