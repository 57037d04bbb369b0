// Package ml implements the unsupervised models behind transaction risk
// scoring: a standard scaler, an isolation forest, and DBSCAN clustering.
package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers and scales feature columns to zero mean and unit
// variance. It is fitted once at training time and reused for every
// subsequent transform; it is never refit at scoring time.
type StandardScaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

// FitScaler computes per-column means and standard deviations.
func FitScaler(matrix [][]float64) (*StandardScaler, error) {
	if len(matrix) == 0 {
		return nil, fmt.Errorf("cannot fit scaler on empty matrix")
	}

	cols := len(matrix[0])
	scaler := &StandardScaler{
		Means: make([]float64, cols),
		Stds:  make([]float64, cols),
	}

	column := make([]float64, len(matrix))
	for c := 0; c < cols; c++ {
		for r, row := range matrix {
			column[r] = row[c]
		}
		mean, std := stat.MeanStdDev(column, nil)
		scaler.Means[c] = mean
		// Constant columns scale by 1 so they transform to zero rather
		// than dividing by zero.
		if std < 1e-12 {
			std = 1
		}
		scaler.Stds[c] = std
	}

	return scaler, nil
}

// Transform scales a matrix row by row.
func (s *StandardScaler) Transform(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = s.TransformOne(row)
	}
	return out
}

// TransformOne scales a single feature vector.
func (s *StandardScaler) TransformOne(vector []float64) []float64 {
	out := make([]float64, len(vector))
	for i, v := range vector {
		out[i] = (v - s.Means[i]) / s.Stds[i]
	}
	return out
}
