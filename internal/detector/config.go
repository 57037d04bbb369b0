// Package detector implements the transaction risk-scoring and
// quarantine engine: model training, composite anomaly scoring, and the
// lifecycle that moves blocked transactions out of the active ledger.
package detector

import "github.com/biguard/biguard/internal/model"

// Config holds the tunable thresholds of the detection engine. The
// defaults are the values the models in production were calibrated
// against; a stored model carries the snapshot it was trained with.
type Config struct {
	// MinTrainingSamples is the minimum number of historical transactions
	// required before a model can be trained for a (user, segment) pair.
	MinTrainingSamples int
	// Contamination is the expected fraction of anomalies in training data.
	Contamination float64
	// EnsembleSize is the number of isolation trees.
	EnsembleSize int
	// ClusterRadius is the DBSCAN neighborhood radius in scaled feature
	// space.
	ClusterRadius float64
	// ClusterMinSamples is the DBSCAN minimum neighborhood size for a
	// dense cluster.
	ClusterMinSamples int
	// HighAmountThreshold is the magnitude above which a transaction is
	// penalized with the full amount weight.
	HighAmountThreshold float64
	// MediumRiskCount is the number of medium-severity quarantine records
	// above which a user's overall risk level becomes "medium".
	MediumRiskCount int
	// RetrainInterval is the number of real-time detections per
	// (user, segment) pair between automatic retrains.
	RetrainInterval int
	// LegitimateCategories are categories whose transactions get a score
	// credit when below the high-amount threshold, so large payroll or
	// rent entries are not penalized purely for size.
	LegitimateCategories []string
	// HighRiskKeywords force a blocking score when matched against the
	// descriptor or category.
	HighRiskKeywords []string
}

// DefaultConfig returns the production detection thresholds.
func DefaultConfig() Config {
	return Config{
		MinTrainingSamples:   50,
		Contamination:        0.02,
		EnsembleSize:         256,
		ClusterRadius:        1.0,
		ClusterMinSamples:    5,
		HighAmountThreshold:  10000,
		MediumRiskCount:      5,
		RetrainInterval:      50,
		LegitimateCategories: []string{"income", "housing"},
		HighRiskKeywords: []string{
			"crypto", "bitcoin", "ethereum", "binance", "coinbase",
			"gambling", "casino", "poker", "dark web", "tor", "suspicious",
		},
	}
}

// pairKey identifies a (user, segment) pair for locks and counters.
func pairKey(userID string, segment model.DataSegment) string {
	return userID + "|" + string(segment)
}
