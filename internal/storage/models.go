package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/biguard/biguard/internal/common"
	"github.com/biguard/biguard/internal/model"
)

// SaveModel upserts the risk model for its (user, segment) pair.
// Retraining replaces the stored row wholesale.
func (s *SQLiteStorage) SaveModel(ctx context.Context, riskModel *model.RiskModel) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRiskModel(riskModel); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_models (
			user_id, segment, artifact, trained_at, sample_count,
			contamination, ensemble_size, cluster_radius, cluster_min_samples
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, segment) DO UPDATE SET
			artifact = excluded.artifact,
			trained_at = excluded.trained_at,
			sample_count = excluded.sample_count,
			contamination = excluded.contamination,
			ensemble_size = excluded.ensemble_size,
			cluster_radius = excluded.cluster_radius,
			cluster_min_samples = excluded.cluster_min_samples
	`,
		riskModel.UserID,
		string(riskModel.Segment),
		riskModel.Artifact,
		riskModel.TrainedAt,
		riskModel.SampleCount,
		riskModel.Contamination,
		riskModel.EnsembleSize,
		riskModel.ClusterRadius,
		riskModel.ClusterMinSamples,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to save risk model: %v", common.ErrStoreUnavailable, err)
	}
	return nil
}

// GetModel returns the stored model for a pair or common.ErrNotFound.
func (s *SQLiteStorage) GetModel(ctx context.Context, userID string, segment model.DataSegment) (*model.RiskModel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateSegment(segment); err != nil {
		return nil, err
	}

	var riskModel model.RiskModel
	var seg string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, segment, artifact, trained_at, sample_count,
		       contamination, ensemble_size, cluster_radius, cluster_min_samples
		FROM risk_models
		WHERE user_id = ? AND segment = ?`,
		userID, string(segment)).Scan(
		&riskModel.UserID,
		&seg,
		&riskModel.Artifact,
		&riskModel.TrainedAt,
		&riskModel.SampleCount,
		&riskModel.Contamination,
		&riskModel.EnsembleSize,
		&riskModel.ClusterRadius,
		&riskModel.ClusterMinSamples,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: risk model for user %s (%s)", common.ErrNotFound, userID, segment)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load risk model: %v", common.ErrStoreUnavailable, err)
	}

	riskModel.Segment = model.DataSegment(seg)
	return &riskModel, nil
}

// ModelExists reports whether a model is stored for the pair.
func (s *SQLiteStorage) ModelExists(ctx context.Context, userID string, segment model.DataSegment) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return false, err
	}
	if err := validateSegment(segment); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM risk_models WHERE user_id = ? AND segment = ?",
		userID, string(segment)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: failed to check risk model: %v", common.ErrStoreUnavailable, err)
	}
	return count > 0, nil
}
