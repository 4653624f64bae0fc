package main

import (
	"context"
	"fmt"
	"log/slog"

	"zekken/internal/ai"
	"zekken/internal/config"
	"zekken/internal/infra"
	"zekken/internal/kv"
	"zekken/internal/logging"
	"zekken/internal/maps"
	"zekken/internal/modules/search"
)

// app holds what every command shares. gemini is nil unless the command asked for it.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	kv     kv.Store
	gemini *ai.GeminiProvider
	search *search.Service
}

func newApp(ctx context.Context, withAI bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if withAI {
		if err := cfg.RequireAI(); err != nil {
			return nil, err
		}
	}
	a := &app{cfg: cfg, log: logging.NewLogger(cfg.LogLevel)}

	a.kv, err = infra.OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var fares ai.FareProvider
	if withAI {
		a.gemini, err = ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey, cfg.AI.Model)
		if err != nil {
			_ = a.kv.Close()
			return nil, fmt.Errorf("gemini init: %w", err)
		}
		fares = a.gemini
	}

	a.search = search.NewService(ctx, fares, search.NewStore(a.kv, a.log), a.log)
	return a, nil
}

// suggestions prefers Places autocomplete when a Maps key is configured.
func (a *app) suggestions() (ai.SuggestionProvider, error) {
	if a.cfg.Maps.APIKey == "" {
		return a.gemini, nil
	}
	places, err := maps.NewPlacesService(a.cfg.Maps.APIKey, a.cfg.Suggest.Country)
	if err != nil {
		return nil, fmt.Errorf("places init: %w", err)
	}
	a.log.Info("using places autocomplete for suggestions", "country", a.cfg.Suggest.Country)
	return places, nil
}

func (a *app) Close() {
	a.search.Close()
	if a.gemini != nil {
		a.gemini.Close()
	}
	if err := a.kv.Close(); err != nil {
		a.log.Warn("store close failed", "err", err)
	}
}
