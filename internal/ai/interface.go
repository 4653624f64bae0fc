package ai

import (
	"context"
)

// FareProvider simulates cab offers and infers route coordinates for a trip.
// Implementations are untrusted: cab records are returned raw and must be sanitized by the caller.
type FareProvider interface {
	FetchFareEstimates(ctx context.Context, pickup, dropoff string, seats int) (*FareResponse, error)
}

// SuggestionProvider returns up to MaxSuggestions full-address completions for a partial query.
type SuggestionProvider interface {
	FetchLocationSuggestions(ctx context.Context, query string) ([]string, error)
}
