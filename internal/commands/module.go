package commands

import (
	"context"
	"fmt"

	"github.com/klabast/wb-services/abfall-fhem/internal/app"
	"github.com/klabast/wb-services/abfall-fhem/internal/config"
	"github.com/klabast/wb-services/abfall-fhem/internal/readings"
	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

const subsystem = "CLI"

// openStore returns the PostgreSQL store when DATABASE_URL is set and the
// JSON file store otherwise
func openStore(ctx context.Context, svc config.Service) (readings.Store, func(), error) {
	if svc.DatabaseURL != "" {
		store, err := readings.NewPGStore(ctx, svc.DatabaseURL, svc.Device)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		logging.Info(subsystem, "Readings are kept in PostgreSQL")
		return store, store.Close, nil
	}
	store, err := readings.OpenFileStore(svc.ReadingsFile)
	if err != nil {
		return nil, nil, err
	}
	logging.Info(subsystem, "Readings are kept in %s", store.Path())
	return store, func() {}, nil
}

// loadAttributes reads the attribute file, resolving !secret tags
func loadAttributes(svc config.Service) (config.Attributes, error) {
	secrets, err := config.LoadSecrets(svc.SecretsFile)
	if err != nil {
		return config.Attributes{}, err
	}
	attrs, err := config.LoadFile(svc.ConfigFile, secrets)
	if err != nil {
		return config.Attributes{}, fmt.Errorf("load %s: %w", svc.ConfigFile, err)
	}
	return attrs, nil
}

// openModule builds the module of the configured device. The returned
// function releases the store.
func openModule(ctx context.Context, svc config.Service) (*app.Module, func(), error) {
	attrs, err := loadAttributes(svc)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := openStore(ctx, svc)
	if err != nil {
		return nil, nil, err
	}
	return app.NewModule(svc.Device, attrs, store), closeStore, nil
}
