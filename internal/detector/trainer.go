package detector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/biguard/biguard/internal/common"
	"github.com/biguard/biguard/internal/features"
	"github.com/biguard/biguard/internal/metrics"
	"github.com/biguard/biguard/internal/ml"
	"github.com/biguard/biguard/internal/model"
	"github.com/biguard/biguard/internal/service"
)

// Trainer fits a risk model from a user's transaction history and
// persists it. Training for the same (user, segment) pair is serialized;
// different pairs train concurrently.
type Trainer struct {
	transactions service.TransactionStore
	models       service.ModelStore
	collector    *metrics.Collector
	locks        map[string]*sync.Mutex
	cfg          Config
	mu           sync.Mutex
}

// NewTrainer creates a trainer with the given store dependencies.
func NewTrainer(transactions service.TransactionStore, models service.ModelStore, cfg Config, collector *metrics.Collector) *Trainer {
	return &Trainer{
		transactions: transactions,
		models:       models,
		cfg:          cfg,
		collector:    collector,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Train fits the scaler and both unsupervised models on the pair's full
// transaction history and replaces any previously stored model. It
// returns common.ErrInsufficientData when the pair has fewer than the
// configured minimum of transactions; it never mutates transactions.
func (t *Trainer) Train(ctx context.Context, userID string, segment model.DataSegment) (*model.RiskModel, error) {
	lock := t.pairLock(userID, segment)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	slog.Info("Training risk model", "user_id", userID, "segment", segment)

	transactions, err := t.transactions.GetTransactions(ctx, userID, segment, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load training transactions: %w", err)
	}

	if len(transactions) < t.cfg.MinTrainingSamples {
		return nil, fmt.Errorf("%w: have %d transactions, need %d",
			common.ErrInsufficientData, len(transactions), t.cfg.MinTrainingSamples)
	}

	matrix := features.Extract(transactions)

	scaler, err := ml.FitScaler(matrix)
	if err != nil {
		return nil, fmt.Errorf("failed to fit scaler: %w", err)
	}
	scaled := scaler.Transform(matrix)

	forest, err := ml.FitIsolationForest(scaled, t.cfg.EnsembleSize, t.cfg.Contamination)
	if err != nil {
		return nil, fmt.Errorf("failed to fit isolation forest: %w", err)
	}

	artifact, err := (&ml.Model{
		Scaler: scaler,
		Forest: forest,
		Clustering: ml.DBSCANParams{
			Eps:        t.cfg.ClusterRadius,
			MinSamples: t.cfg.ClusterMinSamples,
		},
	}).Marshal()
	if err != nil {
		return nil, err
	}

	riskModel := &model.RiskModel{
		UserID:            userID,
		Segment:           segment,
		Artifact:          artifact,
		TrainedAt:         time.Now().UTC(),
		SampleCount:       len(transactions),
		Contamination:     t.cfg.Contamination,
		EnsembleSize:      t.cfg.EnsembleSize,
		ClusterRadius:     t.cfg.ClusterRadius,
		ClusterMinSamples: t.cfg.ClusterMinSamples,
	}

	if err := t.models.SaveModel(ctx, riskModel); err != nil {
		return nil, fmt.Errorf("failed to persist risk model: %w", err)
	}

	t.collector.RecordTraining(time.Since(start))
	slog.Info("Risk model trained",
		"user_id", userID,
		"segment", segment,
		"samples", len(transactions),
		"duration", time.Since(start))

	return riskModel, nil
}

func (t *Trainer) pairLock(userID string, segment model.DataSegment) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := pairKey(userID, segment)
	lock, ok := t.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[key] = lock
	}
	return lock
}
