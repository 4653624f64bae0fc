// README: Geolocation outcomes for the pickup quick-fill.
package location

import (
	"context"
	"errors"

	"zekken/internal/types"
)

var (
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("geolocation position unavailable")
	ErrTimeout             = errors.New("geolocation timed out")
	ErrUnsupported         = errors.New("geolocation not supported")
)

// Reason codes as reported by the presentation layer.
const (
	ReasonPermissionDenied    = "permission_denied"
	ReasonPositionUnavailable = "position_unavailable"
	ReasonTimeout             = "timeout"
	ReasonUnsupported         = "unsupported"
)

// Locator answers "where is the user right now". Failures should wrap one of the Err values above.
type Locator interface {
	CurrentPosition(ctx context.Context) (types.Coordinates, error)
}
