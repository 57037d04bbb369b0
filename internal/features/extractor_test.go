package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biguard/biguard/internal/model"
)

func TestExtractOne(t *testing.T) {
	date := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) // a Friday

	tests := []struct {
		name  string
		txn   model.Transaction
		check func(t *testing.T, v []float64)
	}{
		{
			name: "basic expense",
			txn: model.Transaction{
				ID:        "txn1",
				Date:      date,
				Name:      "Coffee Shop",
				Amount:    -4.50,
				IsExpense: true,
				Category:  "Food",
			},
			check: func(t *testing.T, v []float64) {
				assert.InDelta(t, 4.50, v[idxAmount], 1e-9)
				assert.InDelta(t, 1.0, v[idxIsExpense], 1e-9)
				assert.InDelta(t, 5.0, v[idxDayOfWeek], 1e-9) // Friday
				assert.InDelta(t, 15.0, v[idxDayOfMonth], 1e-9)
				assert.InDelta(t, 3.0, v[idxMonth], 1e-9)
				assert.InDelta(t, 11.0, v[idxDescriptorLen], 1e-9)
				assert.InDelta(t, 0.0, v[idxHasDigits], 1e-9)
			},
		},
		{
			name: "missing date falls back to defaults",
			txn: model.Transaction{
				ID:     "txn2",
				Name:   "Transfer",
				Amount: 100,
			},
			check: func(t *testing.T, v []float64) {
				assert.InDelta(t, 0.0, v[idxDayOfWeek], 1e-9)
				assert.InDelta(t, 1.0, v[idxDayOfMonth], 1e-9)
				assert.InDelta(t, 1.0, v[idxMonth], 1e-9)
			},
		},
		{
			name: "empty descriptor yields zero length",
			txn: model.Transaction{
				ID:     "txn3",
				Date:   date,
				Amount: 10,
			},
			check: func(t *testing.T, v []float64) {
				assert.InDelta(t, 0.0, v[idxDescriptorLen], 1e-9)
				assert.InDelta(t, 0.0, v[idxHasDigits], 1e-9)
			},
		},
		{
			name: "merchant name preferred over raw descriptor",
			txn: model.Transaction{
				ID:           "txn4",
				Date:         date,
				Name:         "POS PURCHASE 1234 STORE",
				MerchantName: "Store 42",
				Amount:       25,
			},
			check: func(t *testing.T, v []float64) {
				assert.InDelta(t, 8.0, v[idxDescriptorLen], 1e-9)
				assert.InDelta(t, 1.0, v[idxHasDigits], 1e-9)
			},
		},
		{
			name: "negative income amount uses magnitude",
			txn: model.Transaction{
				ID:     "txn5",
				Date:   date,
				Name:   "Refund",
				Amount: -100,
			},
			check: func(t *testing.T, v []float64) {
				assert.InDelta(t, 100.0, v[idxAmount], 1e-9)
				assert.Greater(t, v[idxAmountLog], 0.0)
				assert.InDelta(t, 10.0, v[idxAmountSqrt], 1e-9)
				// Negative amount implies an expense even without the flag
				assert.InDelta(t, 1.0, v[idxIsExpense], 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ExtractOne(&tt.txn)
			require.Len(t, v, VectorLen)
			tt.check(t, v)
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	txn := model.Transaction{
		ID:       "txn1",
		Date:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Name:     "Grocery Store 77",
		Amount:   -52.30,
		Category: "Food",
	}

	first := ExtractOne(&txn)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ExtractOne(&txn))
	}
}

func TestExtractBatchMatchesSingle(t *testing.T) {
	txns := []model.Transaction{
		{ID: "a", Date: time.Now(), Name: "One", Amount: 10},
		{ID: "b", Date: time.Now(), Name: "Two", Amount: -20, Category: "Housing"},
		{ID: "c", Name: "Three", Amount: 0},
	}

	matrix := Extract(txns)
	require.Len(t, matrix, len(txns))
	for i := range txns {
		assert.Equal(t, ExtractOne(&txns[i]), matrix[i])
	}
}

func TestCategoryHash(t *testing.T) {
	// Stable across calls and bounded to [0, 1000)
	for _, category := range []string{"Food", "Shopping", "Income", "", "Ünïcode"} {
		first := CategoryHash(category)
		assert.Less(t, first, uint32(1000))
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, CategoryHash(category))
		}
	}

	// Case and surrounding whitespace do not change the bucket
	assert.Equal(t, CategoryHash("Food"), CategoryHash("  food "))
}
