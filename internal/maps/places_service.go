package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"zekken/internal/ai"
)

// PlacesService completes partial addresses with the Google Places Autocomplete API.
// It satisfies ai.SuggestionProvider so it can stand in for the model-backed suggester.
type PlacesService struct {
	client  *maps.Client
	country string
}

var _ ai.SuggestionProvider = (*PlacesService)(nil)

// NewPlacesService creates a new PlacesService with the given API Key.
// country restricts predictions to an ISO 3166-1 alpha-2 code; empty means worldwide.
func NewPlacesService(apiKey, country string, opts ...maps.ClientOption) (*PlacesService, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client, country: strings.ToLower(strings.TrimSpace(country))}, nil
}

// FetchLocationSuggestions returns at most ai.MaxSuggestions distinct addresses.
func (s *PlacesService) FetchLocationSuggestions(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < ai.MinSuggestionQuery {
		return nil, nil
	}

	r := &maps.PlaceAutocompleteRequest{Input: query}
	if s.country != "" {
		r.Components = map[maps.Component][]string{maps.ComponentCountry: {s.country}}
	}

	resp, err := s.client.PlaceAutocomplete(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places autocomplete error: %w", err)
	}

	seen := make(map[string]struct{}, len(resp.Predictions))
	var results []string
	for _, p := range resp.Predictions {
		desc := strings.TrimSpace(p.Description)
		key := strings.ToLower(desc)
		if desc == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		results = append(results, desc)
		if len(results) >= ai.MaxSuggestions {
			break
		}
	}
	return results, nil
}
