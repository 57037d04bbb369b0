package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/biguard/biguard/internal/common"
	"github.com/biguard/biguard/internal/model"
)

func createTestRiskModel(userID string, segment model.DataSegment) *model.RiskModel {
	return &model.RiskModel{
		UserID:            userID,
		Segment:           segment,
		Artifact:          []byte(`{"scaler":{},"forest":{}}`),
		TrainedAt:         time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		SampleCount:       120,
		Contamination:     0.02,
		EnsembleSize:      256,
		ClusterRadius:     1.0,
		ClusterMinSamples: 5,
	}
}

func TestSaveAndGetModel(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	want := createTestRiskModel("user1", model.SegmentReal)
	if err := store.SaveModel(ctx, want); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}

	got, err := store.GetModel(ctx, "user1", model.SegmentReal)
	if err != nil {
		t.Fatalf("GetModel() error = %v", err)
	}

	if !bytes.Equal(got.Artifact, want.Artifact) {
		t.Error("Artifact round trip mismatch")
	}
	if got.SampleCount != want.SampleCount {
		t.Errorf("SampleCount = %d, want %d", got.SampleCount, want.SampleCount)
	}
	if got.EnsembleSize != want.EnsembleSize {
		t.Errorf("EnsembleSize = %d, want %d", got.EnsembleSize, want.EnsembleSize)
	}
	if got.Contamination != want.Contamination {
		t.Errorf("Contamination = %v, want %v", got.Contamination, want.Contamination)
	}
	if !got.TrainedAt.Equal(want.TrainedAt) {
		t.Errorf("TrainedAt = %v, want %v", got.TrainedAt, want.TrainedAt)
	}
}

func TestSaveModelUpserts(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	first := createTestRiskModel("user1", model.SegmentReal)
	if err := store.SaveModel(ctx, first); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}

	second := createTestRiskModel("user1", model.SegmentReal)
	second.Artifact = []byte(`{"scaler":{},"forest":{},"v":2}`)
	second.SampleCount = 200
	second.TrainedAt = first.TrainedAt.Add(time.Hour)
	if err := store.SaveModel(ctx, second); err != nil {
		t.Fatalf("SaveModel() upsert error = %v", err)
	}

	got, err := store.GetModel(ctx, "user1", model.SegmentReal)
	if err != nil {
		t.Fatalf("GetModel() error = %v", err)
	}
	if got.SampleCount != 200 {
		t.Errorf("SampleCount = %d, want 200 after upsert", got.SampleCount)
	}
	if !bytes.Equal(got.Artifact, second.Artifact) {
		t.Error("Expected upsert to replace the artifact")
	}
}

func TestModelsKeyedBySegment(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.SaveModel(ctx, createTestRiskModel("user1", model.SegmentSample)); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}

	exists, err := store.ModelExists(ctx, "user1", model.SegmentSample)
	if err != nil {
		t.Fatalf("ModelExists() error = %v", err)
	}
	if !exists {
		t.Error("Expected sample-segment model to exist")
	}

	exists, err = store.ModelExists(ctx, "user1", model.SegmentReal)
	if err != nil {
		t.Fatalf("ModelExists() error = %v", err)
	}
	if exists {
		t.Error("Sample-segment model must not satisfy a real-segment lookup")
	}

	if _, err := store.GetModel(ctx, "user1", model.SegmentReal); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveModelValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.RiskModel)
	}{
		{"missing user ID", func(m *model.RiskModel) { m.UserID = "" }},
		{"invalid segment", func(m *model.RiskModel) { m.Segment = "bogus" }},
		{"empty artifact", func(m *model.RiskModel) { m.Artifact = nil }},
		{"zero sample count", func(m *model.RiskModel) { m.SampleCount = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			riskModel := createTestRiskModel("user1", model.SegmentReal)
			tt.mutate(riskModel)
			if err := store.SaveModel(ctx, riskModel); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	if err := store.SaveModel(ctx, nil); err == nil {
		t.Error("Expected error for nil model")
	}
}
