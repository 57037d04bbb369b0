package detector

import (
	"context"
	"errors"
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

// Detector is the facade used by batch and real-time callers. It lazily
// loads or trains the pair's risk model, runs extraction and scoring,
// and quarantines every blocked verdict before returning it. It takes
// its store handles as explicit dependencies and holds no store
// connection of its own.
type Detector struct {
	transactions service.TransactionStore
	models       service.ModelStore
	trainer      *Trainer
	scorer       *Scorer
	quarantine   *QuarantineManager
	collector    *metrics.Collector
	processed    map[string]int
	cache        map[string]cachedModel
	cfg          Config
	mu           sync.Mutex
}

// cachedModel keeps a deserialized model keyed by its training time so a
// retrain invalidates it.
type cachedModel struct {
	trainedAt time.Time
	model     *ml.Model
}

// New creates a detector with default thresholds.
func New(storage service.Storage, collector *metrics.Collector) *Detector {
	return NewWithConfig(storage, DefaultConfig(), collector)
}

// NewWithConfig creates a detector with custom thresholds.
func NewWithConfig(storage service.Storage, cfg Config, collector *metrics.Collector) *Detector {
	return &Detector{
		transactions: storage,
		models:       storage,
		trainer:      NewTrainer(storage, storage, cfg, collector),
		scorer:       NewScorer(cfg),
		quarantine:   NewQuarantineManager(storage, storage, cfg, collector),
		collector:    collector,
		processed:    make(map[string]int),
		cache:        make(map[string]cachedModel),
		cfg:          cfg,
	}
}

// Train fits and persists a fresh risk model for the pair.
func (d *Detector) Train(ctx context.Context, userID string, segment model.DataSegment) (*model.RiskModel, error) {
	return d.trainer.Train(ctx, userID, segment)
}

// Quarantine exposes the quarantine manager's summary operation.
func (d *Detector) Summarize(ctx context.Context, userID string, segment model.DataSegment) (*service.QuarantineSummary, error) {
	return d.quarantine.Summarize(ctx, userID, segment)
}

// ClearQuarantine removes all quarantine records for the pair.
func (d *Detector) ClearQuarantine(ctx context.Context, userID string, segment model.DataSegment) (int, error) {
	return d.quarantine.Clear(ctx, userID, segment)
}

// DetectBatch scores up to limit recent transactions for the pair and
// quarantines every blocked one. It returns the blocked verdicts. When
// the pair has too little history to train, it degrades to a quiet run:
// nothing is flagged and no error is returned.
func (d *Detector) DetectBatch(ctx context.Context, userID string, segment model.DataSegment, limit int) ([]model.AnomalyVerdict, error) {
	mlModel, err := d.loadOrTrain(ctx, userID, segment)
	if err != nil {
		if errors.Is(err, common.ErrInsufficientData) {
			slog.Warn("Not enough history to train, treating all transactions as low risk",
				"user_id", userID, "segment", segment)
			return nil, nil
		}
		return nil, err
	}

	transactions, err := d.transactions.GetTransactions(ctx, userID, segment, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(transactions) == 0 {
		return nil, nil
	}

	scaled := mlModel.Scaler.Transform(features.Extract(transactions))

	// Cluster membership is computed on the evaluation batch; DBSCAN does
	// not generalize to points it was not fit on.
	labels := mlModel.Clustering.FitPredict(scaled)

	var verdicts []model.AnomalyVerdict
	for i := range transactions {
		txn := &transactions[i]
		verdict := d.scorer.Score(txn,
			mlModel.Forest.Predict(scaled[i]) == -1,
			labels[i] == ml.NoiseLabel)
		d.collector.RecordScore(verdict.Score)

		if !verdict.Blocked {
			continue
		}
		d.collector.RecordFlagged(string(verdict.Severity))

		if _, err := d.quarantine.Quarantine(ctx, txn, &verdict); err != nil {
			return verdicts, fmt.Errorf("failed to quarantine transaction %s: %w", txn.ID, err)
		}
		verdicts = append(verdicts, verdict)
	}

	slog.Info("Batch detection complete",
		"user_id", userID,
		"segment", segment,
		"scored", len(transactions),
		"flagged", len(verdicts))

	return verdicts, nil
}

// DetectOne scores a single transaction in the real-time ingestion path.
// It returns nil when the transaction is not anomalous or when the pair
// has too little history for a model. The model is refreshed every
// RetrainInterval detections for the pair.
//
// A lone transaction forms its own clustering batch and so always reads
// as noise; the clustering signal carries no discriminating power on
// this path, which is why its weight is low.
func (d *Detector) DetectOne(ctx context.Context, txn *model.Transaction) (*model.AnomalyVerdict, error) {
	d.maybeRetrain(ctx, txn.UserID, txn.Segment)

	mlModel, err := d.loadOrTrain(ctx, txn.UserID, txn.Segment)
	if err != nil {
		if errors.Is(err, common.ErrInsufficientData) {
			slog.Warn("Not enough history to train, treating transaction as low risk",
				"user_id", txn.UserID, "transaction_id", txn.ID)
			return nil, nil
		}
		return nil, err
	}

	scaled := mlModel.Scaler.TransformOne(features.ExtractOne(txn))
	labels := mlModel.Clustering.FitPredict([][]float64{scaled})

	verdict := d.scorer.Score(txn,
		mlModel.Forest.Predict(scaled) == -1,
		labels[0] == ml.NoiseLabel)
	d.collector.RecordScore(verdict.Score)

	if !verdict.Blocked {
		return nil, nil
	}
	d.collector.RecordFlagged(string(verdict.Severity))

	// Only transactions already persisted in the active ledger can be
	// moved to quarantine.
	if txn.ID != "" {
		if _, err := d.quarantine.Quarantine(ctx, txn, &verdict); err != nil {
			return &verdict, err
		}
	}

	return &verdict, nil
}

// loadOrTrain returns the pair's deserialized model, training one first
// when none is stored yet.
func (d *Detector) loadOrTrain(ctx context.Context, userID string, segment model.DataSegment) (*ml.Model, error) {
	riskModel, err := d.models.GetModel(ctx, userID, segment)
	if errors.Is(err, common.ErrNotFound) {
		slog.Info("No risk model stored, training on demand",
			"user_id", userID, "segment", segment)
		riskModel, err = d.trainer.Train(ctx, userID, segment)
	}
	if err != nil {
		return nil, err
	}

	key := pairKey(userID, segment)
	d.mu.Lock()
	cached, ok := d.cache[key]
	d.mu.Unlock()
	if ok && cached.trainedAt.Equal(riskModel.TrainedAt) {
		return cached.model, nil
	}

	mlModel, err := ml.UnmarshalModel(riskModel.Artifact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrModelUnavailable, err)
	}

	d.mu.Lock()
	d.cache[key] = cachedModel{trainedAt: riskModel.TrainedAt, model: mlModel}
	d.mu.Unlock()

	return mlModel, nil
}

// maybeRetrain refreshes the pair's model every RetrainInterval real-time
// detections so it keeps up with new history. Retrain failures are
// logged, not surfaced; the existing model keeps serving.
func (d *Detector) maybeRetrain(ctx context.Context, userID string, segment model.DataSegment) {
	if d.cfg.RetrainInterval <= 0 {
		return
	}

	key := pairKey(userID, segment)
	d.mu.Lock()
	d.processed[key]++
	due := d.processed[key]%d.cfg.RetrainInterval == 0
	d.mu.Unlock()

	if !due {
		return
	}

	if _, err := d.trainer.Train(ctx, userID, segment); err != nil {
		slog.Warn("Periodic retrain failed",
			"user_id", userID,
			"segment", segment,
			"error", err)
	}
}
