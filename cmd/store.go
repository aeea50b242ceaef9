package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/streeteats/cleanup-cli/internal/cleanup"
	"github.com/streeteats/cleanup-cli/internal/match"
	"github.com/streeteats/cleanup-cli/internal/model"
)

func initStore(ctx context.Context) (cleanup.RecordStore, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "trucks.db"
		}
		return cleanup.NewSQLite(dsn)
	case "postgres":
		return cleanup.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initService(store cleanup.RecordStore) *cleanup.Service {
	classifier := match.NewClassifier(cfg.Match.Weights, cfg.Match.MergeThreshold)
	return cleanup.NewService(store, cleanup.ServiceConfig{
		Classifier: classifier,
		CityCenter: model.Location{
			Lat: cfg.Cleanup.CityCenterLat,
			Lng: cfg.Cleanup.CityCenterLng,
		},
		WriteRatePerSec:     cfg.Cleanup.WriteRatePerSec,
		PlaceholderPatterns: cfg.Cleanup.PlaceholderPatterns,
	})
}
