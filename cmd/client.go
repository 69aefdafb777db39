package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vzahanych/novacast/internal/client"
	"github.com/vzahanych/novacast/internal/config"
	"github.com/vzahanych/novacast/internal/dedup"
	"github.com/vzahanych/novacast/internal/forecast"
	"github.com/vzahanych/novacast/internal/geocoding"
	"github.com/vzahanych/novacast/internal/metrics"
	"github.com/vzahanych/novacast/internal/offline"
	"github.com/vzahanych/novacast/internal/store"
	"go.uber.org/zap"
)

// clientDeps bundles everything the client-side commands share.
type clientDeps struct {
	orchestrator *client.Orchestrator
	preferences  *store.Preferences
	metrics      *metrics.Provider
	store        store.Store
}

func (d *clientDeps) Close() {
	if err := d.store.Close(); err != nil {
		log.Warn("Failed to close preferences store", zap.Error(err))
	}
}

func openPreferences(ctx context.Context, cfg *config.Config) (store.Store, *store.Preferences, error) {
	s, err := store.New(ctx, cfg.Store, log.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open preferences store: %w", err)
	}
	return s, store.NewPreferences(s), nil
}

func newHTTPClient(cfg *config.Config, provider *metrics.Provider) (*http.Client, error) {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Client.Timeout) * time.Second,
	}

	if cfg.Client.Offline.Enabled {
		transport, err := offline.New(http.DefaultTransport, cfg.Client.Offline.CacheName, cfg.Client.Offline.Size, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create offline cache: %w", err)
		}
		transport.SetMetricsRecorder(provider)
		httpClient.Transport = transport
	}

	return httpClient, nil
}

func newClientDeps(ctx context.Context, cfg *config.Config, presenter client.Presenter) (*clientDeps, error) {
	provider := metrics.New(cfg.Version)

	httpClient, err := newHTTPClient(cfg, provider)
	if err != nil {
		return nil, err
	}

	resolver := geocoding.NewResolver(cfg.Client.GeocodingURL, httpClient, log.Logger, tele)

	fetcher := dedup.New(httpClient, log.Logger, tele)
	fetcher.SetMetricsRecorder(provider)

	cache := cfg.Client.Cache
	orchestrator := client.New(resolver, fetcher, presenter, log.Logger, tele, client.Options{
		BackendURL:      cfg.Client.BackendURL,
		APIHorizon:      cfg.Client.APIHorizon,
		MaxForecastDays: cfg.Client.MaxForecastDays,
		Policy: forecast.Policy{
			NearDays: cache.NearDays,
			NearTTL:  cache.NearTTL,
			MidDays:  cache.MidDays,
			MidTTL:   cache.MidTTL,
			FarTTL:   cache.FarTTL,
		},
	})
	orchestrator.SetMetricsRecorder(provider)

	s, prefs, err := openPreferences(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &clientDeps{
		orchestrator: orchestrator,
		preferences:  prefs,
		metrics:      provider,
		store:        s,
	}, nil
}
