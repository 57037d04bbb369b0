package model

import "time"

// RiskModel is the persisted, per-(user, segment) detection model: an
// opaque serialized artifact (fitted scaler plus unsupervised models)
// together with the metadata describing how it was produced. Retraining
// replaces the whole record; a RiskModel is never mutated in place.
type RiskModel struct {
	TrainedAt         time.Time
	UserID            string
	Segment           DataSegment
	Artifact          []byte
	SampleCount       int
	EnsembleSize      int
	ClusterMinSamples int
	Contamination     float64
	ClusterRadius     float64
}
