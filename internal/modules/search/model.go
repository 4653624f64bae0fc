// README: Search session data model: params, cab offers, fare bounds, bookmarks and snapshots.
package search

import (
	"fmt"
	"strings"

	"zekken/internal/types"
)

// FilterAll is the type filter that admits every cab type.
const FilterAll = "All"

const (
	MaxRecentSearches = 5
	MinSeats          = 1
	MaxSeats          = 8
)

type SortOrder string

const (
	SortFareAsc  SortOrder = "fare-asc"
	SortFareDesc SortOrder = "fare-desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortFareAsc:
		return SortFareAsc, nil
	case SortFareDesc:
		return SortFareDesc, nil
	}
	return "", fmt.Errorf("%w: unknown sort order %q", ErrBadRequest, s)
}

// SearchParams doubles as a recent-search entry.
type SearchParams struct {
	Pickup  string `json:"pickup" validate:"notblank"`
	Dropoff string `json:"dropoff" validate:"notblank"`
	Seats   int    `json:"seats"`
}

// SameSearch compares pickup and dropoff case- and whitespace-insensitively and seats exactly.
func (p SearchParams) SameSearch(o SearchParams) bool {
	return normalize(p.Pickup) == normalize(o.Pickup) &&
		normalize(p.Dropoff) == normalize(o.Dropoff) &&
		p.Seats == o.Seats
}

type CabOption struct {
	Provider string  `json:"provider"`
	CabType  string  `json:"cabType"`
	Fare     float64 `json:"fare"`
	ETA      int     `json:"eta"`
	Capacity int     `json:"capacity"`
}

// FareLabel renders the fare in rupees, rounded to the nearest unit.
func (c CabOption) FareLabel() string {
	return types.INR(c.Fare).String()
}

// FareRange is used both for the bounds derived from a result set and for the user's window inside them.
type FareRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Bookmark struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// View is the projection of the current results under the active filter, window, sort and seats.
type View struct {
	Cabs       []CabOption `json:"cabs"`
	CabTypes   []string    `json:"cabTypes"`
	TotalCount int         `json:"totalCount"`
}

// State is an immutable snapshot of a search session.
type State struct {
	Form        SearchParams   `json:"form"`
	Params      *SearchParams  `json:"params,omitempty"`
	Searching   bool           `json:"searching"`
	HasSearched bool           `json:"hasSearched"`
	Error       string         `json:"error,omitempty"`
	Results     []CabOption    `json:"results"`
	Route       *types.Route   `json:"route,omitempty"`
	Filter      string         `json:"filter"`
	Sort        SortOrder      `json:"sort"`
	FareRange   *FareRange     `json:"fareRange,omitempty"`
	FareWindow  *FareRange     `json:"fareWindow,omitempty"`
	Recent      []SearchParams `json:"recent"`
	Bookmarks   []Bookmark     `json:"bookmarks"`
	View        View           `json:"view"`
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clampSeats(n int) int {
	return max(MinSeats, min(MaxSeats, n))
}
