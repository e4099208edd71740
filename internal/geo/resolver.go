package geo

import (
	"context"
	"log"

	"github.com/jonathan/jobplus/internal/types"
)

// Source tells where resolved coordinates came from.
type Source string

const (
	SourceDevice   Source = "device"
	SourceIP       Source = "ip"
	SourcePrevious Source = "previous"
)

// Result is the outcome of one resolution attempt.
type Result struct {
	Coordinates types.Coordinates
	Source      Source
	// Err is the last failure seen, set when the previous coordinates were kept.
	Err error
}

// Resolver makes a single best-effort attempt, without retries.
type Resolver struct {
	Device DeviceLocator // may be nil
	IP     IPLookup
}

// NewResolver creates a resolver. device may be nil when no device position exists.
func NewResolver(device DeviceLocator, ip IPLookup) *Resolver {
	return &Resolver{Device: device, IP: ip}
}

// Resolve asks the device, then the IP lookup. previous is returned unchanged when both fail.
func (r *Resolver) Resolve(ctx context.Context, previous types.Coordinates, clientIP string) Result {
	if r.Device != nil {
		fix, err := r.Device.CurrentPosition(ctx)
		if err == nil && fix.Coordinates.Valid() {
			return Result{Coordinates: fix.Coordinates, Source: SourceDevice}
		}
		if err == nil {
			err = ErrMalformedFix
		}
		log.Printf("[geo] device position failed, falling back to IP lookup: %v", err)
	}
	return r.FromIP(ctx, previous, clientIP)
}

// FromFix uses a position reported by the client, falling back to the IP lookup
// when the fix is malformed.
func (r *Resolver) FromFix(ctx context.Context, fix Fix, previous types.Coordinates, clientIP string) Result {
	if fix.Coordinates.Valid() {
		return Result{Coordinates: fix.Coordinates, Source: SourceDevice}
	}
	log.Printf("[geo] reported position %v is malformed, falling back to IP lookup", fix.Coordinates)
	return r.FromIP(ctx, previous, clientIP)
}

// FromIP resolves through the IP lookup only.
func (r *Resolver) FromIP(ctx context.Context, previous types.Coordinates, clientIP string) Result {
	if r.IP == nil {
		return Result{Coordinates: previous, Source: SourcePrevious, Err: ErrUnavailable}
	}

	coords, err := r.IP.Lookup(ctx, clientIP)
	if err != nil {
		log.Printf("[geo] ip lookup failed, keeping %v: %v", previous, err)
		return Result{Coordinates: previous, Source: SourcePrevious, Err: err}
	}
	return Result{Coordinates: coords, Source: SourceIP}
}
