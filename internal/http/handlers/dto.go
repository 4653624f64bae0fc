package handlers

import (
	"math"

	"zekken/internal/booking"
	"zekken/internal/modules/location"
	"zekken/internal/modules/search"
	"zekken/internal/types"
)

type cabResponse struct {
	search.CabOption
	FareLabel  string `json:"fareLabel"`
	BookingURL string `json:"bookingUrl,omitempty"`
	Bookable   bool   `json:"bookable"`
}

type routeResponse struct {
	Pickup       types.Coordinates `json:"pickup"`
	Dropoff      types.Coordinates `json:"dropoff"`
	PickupLabel  string            `json:"pickupLabel"`
	DropoffLabel string            `json:"dropoffLabel"`
	DistanceKm   float64           `json:"distanceKm"`
}

// SessionResponse is the wire form of a search session snapshot.
type SessionResponse struct {
	Form         search.SearchParams   `json:"form"`
	Searching    bool                  `json:"searching"`
	HasSearched  bool                  `json:"hasSearched"`
	Error        string                `json:"error,omitempty"`
	Route        *routeResponse        `json:"route,omitempty"`
	Filter       string                `json:"filter"`
	Sort         search.SortOrder      `json:"sort"`
	FareRange    *search.FareRange     `json:"fareRange,omitempty"`
	FareWindow   *search.FareRange     `json:"fareWindow,omitempty"`
	Cabs         []cabResponse         `json:"cabs"`
	CabTypes     []string              `json:"cabTypes"`
	TotalCount   int                   `json:"totalCount"`
	VisibleCount int                   `json:"visibleCount"`
	Recent       []search.SearchParams `json:"recent"`
	Bookmarks    []search.Bookmark     `json:"bookmarks"`
}

func NewSessionResponse(st search.State) SessionResponse {
	resp := SessionResponse{
		Form:         st.Form,
		Searching:    st.Searching,
		HasSearched:  st.HasSearched,
		Error:        st.Error,
		Filter:       st.Filter,
		Sort:         st.Sort,
		FareRange:    st.FareRange,
		FareWindow:   st.FareWindow,
		Cabs:         make([]cabResponse, 0, len(st.View.Cabs)),
		CabTypes:     st.View.CabTypes,
		TotalCount:   st.View.TotalCount,
		VisibleCount: len(st.View.Cabs),
		Recent:       nonNil(st.Recent),
		Bookmarks:    nonNil(st.Bookmarks),
	}

	var dropoff *types.Coordinates
	if st.Route != nil {
		dropoff = &st.Route.Dropoff
		resp.Route = &routeResponse{
			Pickup:     st.Route.Pickup,
			Dropoff:    st.Route.Dropoff,
			DistanceKm: math.Round(location.RouteDistanceKm(*st.Route)*10) / 10,
		}
		if st.Params != nil {
			resp.Route.PickupLabel = st.Params.Pickup
			resp.Route.DropoffLabel = st.Params.Dropoff
		}
	}

	for _, cab := range st.View.Cabs {
		url, ok := booking.Link(cab.Provider, dropoff)
		resp.Cabs = append(resp.Cabs, cabResponse{
			CabOption:  cab,
			FareLabel:  cab.FareLabel(),
			BookingURL: url,
			Bookable:   ok,
		})
	}
	return resp
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
