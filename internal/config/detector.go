// Package config provides configuration utilities for the application.
package config

import (
	"github.com/spf13/viper"

	"github.com/biguard/biguard/internal/detector"
)

// LoadDetectorConfig builds the detection thresholds from Viper,
// falling back to the calibrated defaults for anything unset. Keys live
// under "detector." in the config file and can be overridden with
// BIGUARD_ environment variables.
func LoadDetectorConfig() detector.Config {
	cfg := detector.DefaultConfig()

	if v := viper.GetInt("detector.min_training_samples"); v > 0 {
		cfg.MinTrainingSamples = v
	}
	if v := viper.GetFloat64("detector.contamination"); v > 0 {
		cfg.Contamination = v
	}
	if v := viper.GetInt("detector.ensemble_size"); v > 0 {
		cfg.EnsembleSize = v
	}
	if v := viper.GetFloat64("detector.cluster_radius"); v > 0 {
		cfg.ClusterRadius = v
	}
	if v := viper.GetInt("detector.cluster_min_samples"); v > 0 {
		cfg.ClusterMinSamples = v
	}
	if v := viper.GetFloat64("detector.high_amount_threshold"); v > 0 {
		cfg.HighAmountThreshold = v
	}
	if v := viper.GetInt("detector.medium_risk_count"); v > 0 {
		cfg.MediumRiskCount = v
	}
	if viper.IsSet("detector.retrain_interval") {
		cfg.RetrainInterval = viper.GetInt("detector.retrain_interval")
	}
	if v := viper.GetStringSlice("detector.legitimate_categories"); len(v) > 0 {
		cfg.LegitimateCategories = v
	}
	if v := viper.GetStringSlice("detector.high_risk_keywords"); len(v) > 0 {
		cfg.HighRiskKeywords = v
	}

	return cfg
}

// DatabasePath returns the configured SQLite path, expanded.
func DatabasePath() string {
	path := viper.GetString("database.path")
	if path == "" {
		path = "~/.local/share/biguard/biguard.db"
	}
	return ExpandPath(path)
}
