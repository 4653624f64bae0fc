// README: Geolocation helpers: user-facing failure messages, pickup labels and a reported-position locator.
package location

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"zekken/internal/types"
)

const (
	messageFallback            = "Could not fetch location. Please ensure you have enabled location permissions for this site in your browser settings."
	messagePermissionDenied    = "You denied the request for Geolocation. To use this feature, please enable location permissions in your browser settings."
	messagePositionUnavailable = "Location information is unavailable at the moment."
	messageTimeout             = "The request to get user location timed out. Please try again."
	messageUnsupported         = "Geolocation is not supported by your browser."
)

// Message returns the alert text for a geolocation failure.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return messagePermissionDenied
	case errors.Is(err, ErrPositionUnavailable):
		return messagePositionUnavailable
	case errors.Is(err, ErrTimeout):
		return messageTimeout
	case errors.Is(err, ErrUnsupported):
		return messageUnsupported
	default:
		return messageFallback
	}
}

// PickupLabel formats coordinates the way they are written into the pickup field.
func PickupLabel(c types.Coordinates) string {
	return fmt.Sprintf("Lat: %.5f, Lon: %.5f", c.Latitude, c.Longitude)
}

// ErrorFromReason maps a reason code to its sentinel; unknown codes map to ErrPositionUnavailable.
func ErrorFromReason(reason string) error {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case ReasonPermissionDenied:
		return ErrPermissionDenied
	case ReasonTimeout:
		return ErrTimeout
	case ReasonUnsupported:
		return ErrUnsupported
	default:
		return ErrPositionUnavailable
	}
}

// Reported is a Locator for a position (or failure) already obtained by the client,
// typically the browser's geolocation API.
type Reported struct {
	Position types.Coordinates
	Err      error
}

func (r Reported) CurrentPosition(ctx context.Context) (types.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return types.Coordinates{}, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if r.Err != nil {
		return types.Coordinates{}, r.Err
	}
	if !validCoordinates(r.Position) {
		return types.Coordinates{}, fmt.Errorf("%w: coordinates out of range", ErrPositionUnavailable)
	}
	return r.Position, nil
}

func validCoordinates(c types.Coordinates) bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}
