// README: Provider booking deep links keyed by provider name.
package booking

import (
	"strconv"
	"strings"

	"zekken/internal/types"
)

type linkFunc func(dropoff types.Coordinates) string

var links = map[string]linkFunc{
	"uber": func(d types.Coordinates) string {
		return "https://m.uber.com/ul/?action=setPickup&pickup=my_location&dropoff[latitude]=" +
			formatCoord(d.Latitude) + "&dropoff[longitude]=" + formatCoord(d.Longitude)
	},
	"ola": func(d types.Coordinates) string {
		return "https://book.olacabs.com/?drop_lat=" + formatCoord(d.Latitude) + "&drop_lng=" + formatCoord(d.Longitude)
	},
	// inDrive has no public deep-link scheme.
	"indrive": func(types.Coordinates) string {
		return "https://indrive.com/"
	},
}

// Link returns the booking URL for provider. ok is false when the provider is unknown
// or no route has been resolved yet.
func Link(provider string, dropoff *types.Coordinates) (string, bool) {
	if dropoff == nil {
		return "", false
	}
	fn, ok := links[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return "", false
	}
	return fn(*dropoff), true
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
