package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements FareProvider and SuggestionProvider using Google's Gemini models.
type GeminiProvider struct {
	client       *genai.Client
	fareModel    *genai.GenerativeModel
	suggestModel *genai.GenerativeModel
}

// NewGeminiProvider initializes a Gemini client. The caller owns its lifecycle and must Close it.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	fareModel := client.GenerativeModel(modelName)
	fareModel.ResponseMIMEType = "application/json"
	fareModel.ResponseSchema = fareSchema
	// Higher temperature gives a more varied provider/type mix.
	fareModel.SetTemperature(0.8)

	suggestModel := client.GenerativeModel(modelName)
	suggestModel.ResponseMIMEType = "application/json"
	suggestModel.ResponseSchema = suggestionsSchema
	suggestModel.SetTemperature(0.2)

	return &GeminiProvider{
		client:       client,
		fareModel:    fareModel,
		suggestModel: suggestModel,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

// FetchFareEstimates asks the model for simulated cab offers and inferred route coordinates.
// Every returned error is an *Error.
func (p *GeminiProvider) FetchFareEstimates(ctx context.Context, pickup, dropoff string, seats int) (*FareResponse, error) {
	resp, err := p.fareModel.GenerateContent(ctx, genai.Text(buildFarePrompt(pickup, dropoff, seats)))
	if err != nil {
		return nil, Classify(fmt.Errorf("gemini generation error: %w", err))
	}
	text, err := responseText(resp)
	if err != nil {
		return nil, Classify(err)
	}
	return decodeFareResponse(text)
}

// FetchLocationSuggestions returns nothing for queries shorter than MinSuggestionQuery.
func (p *GeminiProvider) FetchLocationSuggestions(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSuggestionQuery {
		return nil, nil
	}
	resp, err := p.suggestModel.GenerateContent(ctx, genai.Text(buildSuggestionPrompt(query)))
	if err != nil {
		return nil, fmt.Errorf("gemini suggestions error: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	return decodeSuggestions(text)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

var coordinatesSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"latitude":  {Type: genai.TypeNumber},
		"longitude": {Type: genai.TypeNumber},
	},
	Required: []string{"latitude", "longitude"},
}

var fareSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"locations": {
			Type:        genai.TypeObject,
			Description: "Inferred geographic coordinates for the route.",
			Properties: map[string]*genai.Schema{
				"pickup":  coordinatesSchema,
				"dropoff": coordinatesSchema,
			},
			Required: []string{"pickup", "dropoff"},
		},
		"cabs": {
			Type:        genai.TypeArray,
			Description: "Simulated cab options.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"provider": {Type: genai.TypeString, Enum: []string{"Uber", "Ola", "inDrive"}},
					"cabType":  {Type: genai.TypeString, Description: "Vehicle class, e.g. Sedan, SUV, Mini, Auto."},
					"fare":     {Type: genai.TypeNumber, Description: "Estimated fare in local currency."},
					"eta":      {Type: genai.TypeInteger, Description: "Minutes until pickup."},
					"capacity": {Type: genai.TypeInteger, Description: "Maximum passengers."},
				},
				Required: []string{"provider", "cabType", "fare", "eta", "capacity"},
			},
		},
	},
	Required: []string{"locations", "cabs"},
}

var suggestionsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"suggestions": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString, Description: "One full address."},
		},
	},
	Required: []string{"suggestions"},
}

func buildFarePrompt(pickup, dropoff string, seats int) string {
	return fmt.Sprintf(`Role: You are a cab fare aggregator. Produce SIMULATED cab offers and route coordinates.

Steps:
1. Infer one plausible latitude/longitude pair for the pickup and one for the drop-off.
   A location may be a street address or an existing "Lat: x, Lon: y" pair; accept either.
2. Generate 8 to 12 cabs across Uber, Ola and inDrive with a diverse mix of types:
   Sedan, SUV, Hatchback, Auto, Bike, Luxury, plus tiers such as UberGo, Go Sedan, Premier, UberXL, Micro, Mini, Prime Sedan, Prime SUV.
3. Every cab MUST carry provider, cabType, fare, eta (minutes) and capacity (passengers).
   A Bike seats 1, an Auto 3, an SUV or XL 6 or more.
4. The rider needs at least %d seats; favour cabs that can take them.

Pickup Location: %q
Drop-off Location: %q
Required Seats: %d

Return a JSON object with "locations" and "cabs" only.`, seats, pickup, dropoff, seats)
}

func buildSuggestionPrompt(query string) string {
	return fmt.Sprintf(`Role: You are a geocoding autocomplete service for India.
Return up to %d distinct, realistic full addresses located only within India that match what the user is typing.
Example: "Gateway" -> "Gateway Of India, Apollo Bandar, Colaba, Mumbai, Maharashtra 400001, India".

User input: %q`, MaxSuggestions, query)
}
