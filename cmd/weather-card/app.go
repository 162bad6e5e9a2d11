package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/i474232898/weather-card/internal/card"
	"github.com/i474232898/weather-card/internal/config"
	"github.com/i474232898/weather-card/internal/location"
	"github.com/i474232898/weather-card/internal/store"
	"github.com/i474232898/weather-card/internal/weather"
	"github.com/i474232898/weather-card/internal/weather/providers"
)

type prefStore interface {
	card.Preferences
	Close() error
}

// app holds everything a command needs.
type app struct {
	cfg        *config.AppConfig
	table      *location.Table
	prefs      prefStore
	aggregator *weather.Aggregator
	controller *card.Controller
}

func bootstrap(configPath string, needUpstream bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if needUpstream {
		if err := cfg.RequireAPIKey(); err != nil {
			return nil, err
		}
	}

	table, err := location.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load location table: %w", err)
	}

	var prefs prefStore
	if cfg.Store.Path != "" {
		db, err := store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open preference store: %w", err)
		}
		log.Printf("INFO: preferences stored in %s", cfg.Store.Path)
		prefs = db
	} else {
		prefs = store.NewMemoryStore()
	}

	// Shared HTTP client for outbound CWA calls; the aggregator enforces the per-refresh timeout.
	httpClient := &http.Client{Timeout: cfg.CWA.Timeout}
	pcfg := providers.Config{
		BaseURL:           cfg.CWA.BaseURL,
		APIKey:            cfg.CWA.APIKey,
		Timezone:          table.Timezone(),
		Client:            httpClient,
		MaxRetries:        cfg.CWA.MaxRetries,
		RequestsPerSecond: cfg.CWA.RequestsPerSecond,
		Burst:             cfg.CWA.Burst,
	}

	agg := weather.NewAggregator(
		providers.NewObservationClient(pcfg),
		providers.NewForecastClient(pcfg),
		weather.WithTimeout(cfg.CWA.Timeout),
	)

	return &app{
		cfg:        cfg,
		table:      table,
		prefs:      prefs,
		aggregator: agg,
		controller: card.NewController(table, agg, prefs, cfg.DefaultCity),
	}, nil
}

func (a *app) Close() {
	if err := a.prefs.Close(); err != nil {
		log.Printf("ERROR: closing preference store: %v", err)
	}
}
