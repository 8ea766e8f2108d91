package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SciGraph/SciGraph-sub002/pkg/config"
)

// Open builds the ListStore selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (ListStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendMemory:
		return NewMemoryStore(), nil

	case config.BackendBadger:
		bc := DefaultBadgerConfig(cfg.Path)
		bc.SyncWrites = cfg.SyncWrites
		bc.Logger = logger
		return OpenBadger(bc)

	case config.BackendLocal:
		return NewBlobListStore(NewLocalStore(cfg.Path), cfg.Prefix), nil

	case config.BackendS3:
		awsCfg, err := LoadAWSConfig(ctx, cfg.Region, cfg.Endpoint, logger)
		if err != nil {
			return nil, err
		}
		return NewBlobListStore(NewS3Store(awsCfg, cfg.Bucket), cfg.Prefix), nil

	case config.BackendDynamoDB:
		awsCfg, err := LoadAWSConfig(ctx, cfg.Region, cfg.Endpoint, logger)
		if err != nil {
			return nil, err
		}
		store := NewDynamoStore(awsCfg, cfg.Table)
		if err := store.EnsureTable(ctx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
