// README: One-shot fare request against Gemini; prints raw and sanitized offers for prompt tuning.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"zekken/internal/ai"
	"zekken/internal/modules/search"
)

func main() {
	pickup := flag.String("pickup", "MG Road, Bengaluru", "pickup location")
	dropoff := flag.String("dropoff", "Kempegowda International Airport", "drop-off location")
	seats := flag.Int("seats", 2, "seats needed")
	model := flag.String("model", "gemini-2.5-flash", "model name")
	flag.Parse()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	provider, err := ai.NewGeminiProvider(ctx, apiKey, *model)
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}
	defer provider.Close()

	fmt.Printf("Trip: %s -> %s, %d seats\n", *pickup, *dropoff, *seats)

	start := time.Now()
	resp, err := provider.FetchFareEstimates(ctx, *pickup, *dropoff, *seats)
	if err != nil {
		log.Fatalf("Error fetching fares (%s): %v", ai.UserMessage(err), err)
	}
	fmt.Printf("Took: %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Pickup: %.5f, %.5f\n", resp.Locations.Pickup.Latitude, resp.Locations.Pickup.Longitude)
	fmt.Printf("Dropoff: %.5f, %.5f\n", resp.Locations.Dropoff.Latitude, resp.Locations.Dropoff.Longitude)

	cabs := search.Sanitize(resp.Cabs)
	fmt.Printf("Records: %d raw, %d usable\n", len(resp.Cabs), len(cabs))
	for _, c := range cabs {
		fmt.Printf("  %-8s %-12s %8s  %2d min  %d seats\n", c.Provider, c.CabType, c.FareLabel(), c.ETA, c.Capacity)
	}
}
