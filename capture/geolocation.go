package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-attendance-client/models"
)

// LocationTimeout bounds a single position request. The check-in flow gives
// the platform 30 seconds to produce a fix before giving up.
const LocationTimeout = 30 * time.Second

// Geolocator performs one-shot, high-accuracy position requests. A cached
// fix is never accepted; every call demands a fresh reading. Failures are
// surfaced to the caller and never retried here.
type Geolocator struct {
	source  PositionSource
	timeout time.Duration
}

func NewGeolocator(source PositionSource) *Geolocator {
	return &Geolocator{source: source, timeout: LocationTimeout}
}

// CurrentLocation requests a fresh high-accuracy fix. It fails with
// ErrGeolocationUnsupported when the platform has no position source, and
// with ErrLocationDenied when permission is refused or the timeout elapses.
func (g *Geolocator) CurrentLocation(ctx context.Context) (models.Location, error) {
	if g.source == nil {
		return models.Location{}, ErrGeolocationUnsupported
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	slog.Debug("Requesting current location", "timeout", g.timeout)
	loc, err := g.source.CurrentPosition(reqCtx, PositionOptions{
		HighAccuracy: true,
		Timeout:      g.timeout,
		MaximumAge:   0,
	})
	if err != nil {
		slog.Warn("Location request failed", "error", err)
		return models.Location{}, fmt.Errorf("%w: %v", ErrLocationDenied, err)
	}

	slog.Debug("Location acquired", "latitude", loc.Latitude, "longitude", loc.Longitude)
	return loc, nil
}
