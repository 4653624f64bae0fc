// Route distance helpers. Pure functions, no I/O.
package location

import (
	"math"

	"zekken/internal/types"
)

const earthRadiusKm = 6371.0

// RouteDistanceKm is the straight-line distance between pickup and dropoff.
func RouteDistanceKm(r types.Route) float64 {
	return haversineKm(r.Pickup.Latitude, r.Pickup.Longitude, r.Dropoff.Latitude, r.Dropoff.Longitude)
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
