// Package features builds fixed-length numeric feature vectors from
// transactions for model training and scoring.
package features

import (
	"hash/fnv"
	"log/slog"
	"math"
	"strings"

	"github.com/biguard/biguard/internal/model"
)

// VectorLen is the number of features per transaction. The field order is
// fixed; changing it invalidates every stored model.
const VectorLen = 10

// categoryHashBuckets bounds the category hash feature to [0, 1000).
const categoryHashBuckets = 1000

// Feature vector field indices.
const (
	idxAmount = iota
	idxAmountLog
	idxAmountSqrt
	idxIsExpense
	idxDayOfWeek
	idxDayOfMonth
	idxMonth
	idxCategoryHash
	idxDescriptorLen
	idxHasDigits
)

// Extract converts transactions into a feature matrix, one row per
// transaction. It is deterministic and pure: no I/O, no batch-relative
// normalization (scaling is the fitted scaler's job). Missing optional
// fields never cause a failure; documented defaults are substituted
// (day-of-week 0, day-of-month 1, month 1, empty descriptor).
func Extract(transactions []model.Transaction) [][]float64 {
	matrix := make([][]float64, len(transactions))
	for i := range transactions {
		matrix[i] = ExtractOne(&transactions[i])
	}
	return matrix
}

// ExtractOne builds the feature vector for a single transaction with the
// same per-row semantics as Extract.
func ExtractOne(txn *model.Transaction) []float64 {
	v := make([]float64, VectorLen)

	magnitude := txn.Magnitude()
	v[idxAmount] = magnitude
	v[idxAmountLog] = math.Log1p(magnitude)
	v[idxAmountSqrt] = math.Sqrt(magnitude)

	if txn.IsExpense || txn.Amount < 0 {
		v[idxIsExpense] = 1
	}

	if txn.Date.IsZero() {
		// Defaults matching the documented missing-date behavior.
		v[idxDayOfWeek] = 0
		v[idxDayOfMonth] = 1
		v[idxMonth] = 1
		slog.Debug("Transaction has no date, using default time features",
			"transaction_id", txn.ID)
	} else {
		v[idxDayOfWeek] = float64(txn.Date.Weekday())
		v[idxDayOfMonth] = float64(txn.Date.Day())
		v[idxMonth] = float64(txn.Date.Month())
	}

	v[idxCategoryHash] = float64(CategoryHash(txn.Category))

	descriptor := txn.MerchantName
	if descriptor == "" {
		descriptor = txn.Name
	}
	v[idxDescriptorLen] = float64(len(descriptor))
	if containsDigit(descriptor) {
		v[idxHasDigits] = 1
	}

	return v
}

// CategoryHash folds a category string into a stable integer bucket in
// [0, 1000). FNV-1a keeps the mapping identical across processes and
// restarts, so the same category always lands in the same bucket.
func CategoryHash(category string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(category))))
	return h.Sum32() % categoryHashBuckets
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
