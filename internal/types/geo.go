// README: Geographic value objects shared by providers, the search session and presentation.
package types

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Route is the pickup/dropoff pair inferred for one search.
type Route struct {
	Pickup  Coordinates `json:"pickup"`
	Dropoff Coordinates `json:"dropoff"`
}
