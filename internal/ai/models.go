package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"zekken/internal/types"
)

const (
	// MaxSuggestions caps how many completions a provider may return.
	MaxSuggestions = 5
	// MinSuggestionQuery is the shortest query worth sending upstream.
	MinSuggestionQuery = 3
)

// FareResponse is the provider payload after structural checks only.
type FareResponse struct {
	Locations types.Route
	// Cabs holds one raw JSON value per offered cab.
	Cabs []json.RawMessage
}

type fareWire struct {
	Locations *struct {
		Pickup  *types.Coordinates `json:"pickup"`
		Dropoff *types.Coordinates `json:"dropoff"`
	} `json:"locations"`
	Cabs []json.RawMessage `json:"cabs"`
}

type suggestionsWire struct {
	Suggestions []string `json:"suggestions"`
}

// decodeFareResponse validates the envelope: a cabs array plus both route endpoints.
func decodeFareResponse(text string) (*FareResponse, error) {
	clean := cleanJSONString(text)
	if clean == "" {
		return nil, &Error{Kind: KindMalformed, Message: messageMalformed, Err: ErrEmptyResponse}
	}
	var wire fareWire
	if err := json.Unmarshal([]byte(clean), &wire); err != nil {
		return nil, &Error{Kind: KindMalformed, Message: messageMalformed, Err: fmt.Errorf("failed to parse JSON response: %w", err)}
	}
	if wire.Cabs == nil || wire.Locations == nil || wire.Locations.Pickup == nil || wire.Locations.Dropoff == nil {
		return nil, &Error{Kind: KindMalformed, Message: messageMalformed, Err: ErrInvalidStructure}
	}
	return &FareResponse{
		Locations: types.Route{Pickup: *wire.Locations.Pickup, Dropoff: *wire.Locations.Dropoff},
		Cabs:      wire.Cabs,
	}, nil
}

func decodeSuggestions(text string) ([]string, error) {
	clean := cleanJSONString(text)
	if clean == "" {
		return nil, ErrEmptyResponse
	}
	var wire suggestionsWire
	if err := json.Unmarshal([]byte(clean), &wire); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	if wire.Suggestions == nil {
		return nil, ErrInvalidStructure
	}
	out := make([]string, 0, len(wire.Suggestions))
	for _, s := range wire.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out, nil
}

// cleanJSONString removes markdown code fences if present (e.g. ```json ... ```).
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
