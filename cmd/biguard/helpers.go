package main

import (
	"context"
	"fmt"

	"github.com/biguard/biguard/internal/common"
	"github.com/biguard/biguard/internal/config"
	"github.com/biguard/biguard/internal/detector"
	"github.com/biguard/biguard/internal/metrics"
	"github.com/biguard/biguard/internal/model"
	"github.com/biguard/biguard/internal/storage"
)

// openStore opens the configured SQLite database and brings the schema
// up to date. Callers own the returned store and must Close it.
func openStore(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, common.NewUserError("failed to open database", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("failed to migrate database", err)
	}

	return store, nil
}

// newDetector wires a detector against the store with the configured
// thresholds.
func newDetector(store *storage.SQLiteStorage) *detector.Detector {
	return detector.NewWithConfig(store, config.LoadDetectorConfig(), metrics.NewCollector())
}

// parseSegment validates the --segment flag.
func parseSegment(value string) (model.DataSegment, error) {
	segment := model.DataSegment(value)
	if !segment.Valid() {
		return "", fmt.Errorf("invalid segment %q (want %q or %q)",
			value, model.SegmentSample, model.SegmentReal)
	}
	return segment, nil
}
