package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateHash(t *testing.T) {
	base := Transaction{
		ID:        "txn1",
		UserID:    "alice",
		Date:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Name:      "STARBUCKS",
		Amount:    -5.25,
		AccountID: "acc1",
		Segment:   SegmentReal,
	}

	same := base
	assert.Equal(t, base.GenerateHash(), same.GenerateHash())

	// Time of day does not affect the hash; only the date does
	laterSameDay := base
	laterSameDay.Date = base.Date.Add(6 * time.Hour)
	assert.Equal(t, base.GenerateHash(), laterSameDay.GenerateHash())

	differentAmount := base
	differentAmount.Amount = -6.25
	assert.NotEqual(t, base.GenerateHash(), differentAmount.GenerateHash())

	differentDay := base
	differentDay.Date = base.Date.AddDate(0, 0, 1)
	assert.NotEqual(t, base.GenerateHash(), differentDay.GenerateHash())

	differentUser := base
	differentUser.UserID = "bob"
	assert.NotEqual(t, base.GenerateHash(), differentUser.GenerateHash())
}

func TestMagnitude(t *testing.T) {
	expense := Transaction{Amount: -42.50}
	assert.Equal(t, 42.50, expense.Magnitude())

	income := Transaction{Amount: 1200}
	assert.Equal(t, 1200.0, income.Magnitude())
}

func TestDataSegmentValid(t *testing.T) {
	assert.True(t, SegmentSample.Valid())
	assert.True(t, SegmentReal.Valid())
	assert.False(t, DataSegment("").Valid())
	assert.False(t, DataSegment("staging").Valid())
}
