package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/biguard/biguard/internal/common"
	"github.com/biguard/biguard/internal/model"
)

func TestSaveTransactions(t *testing.T) {
	tests := []struct {
		name         string
		transactions []model.Transaction
		wantErr      bool
		wantCount    int
	}{
		{
			name:         "save new transactions",
			transactions: createTestTransactions(3),
			wantCount:    3,
		},
		{
			name:         "duplicate hashes are ignored",
			transactions: append(createTestTransactions(2), createTestTransactions(2)...),
			wantCount:    2,
		},
		{
			name:    "nil slice rejected",
			wantErr: true,
		},
		{
			name:         "empty slice rejected",
			transactions: []model.Transaction{},
			wantErr:      true,
		},
		{
			name: "transaction without ID rejected",
			transactions: []model.Transaction{
				{UserID: "user1", Segment: model.SegmentReal, Name: "No ID"},
			},
			wantErr: true,
		},
		{
			name: "transaction with unknown segment rejected",
			transactions: []model.Transaction{
				{ID: "bad", UserID: "user1", Segment: "staging", Name: "Bad"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()
			ctx := context.Background()

			err := store.SaveTransactions(ctx, tt.transactions)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SaveTransactions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			count, err := store.CountTransactions(ctx, "user1", model.SegmentReal)
			if err != nil {
				t.Fatalf("CountTransactions() error = %v", err)
			}
			if count != tt.wantCount {
				t.Errorf("CountTransactions() = %d, want %d", count, tt.wantCount)
			}
		})
	}
}

func TestSaveTransactionsGeneratesHash(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions(1)
	txns[0].Hash = ""
	if err := store.SaveTransactions(ctx, txns); err != nil {
		t.Fatalf("SaveTransactions() error = %v", err)
	}

	got, err := store.GetTransactionByID(ctx, txns[0].ID)
	if err != nil {
		t.Fatalf("GetTransactionByID() error = %v", err)
	}
	if got.Hash == "" {
		t.Error("Expected hash to be generated on save")
	}
}

func TestGetTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions(5)
	if err := store.SaveTransactions(ctx, txns); err != nil {
		t.Fatalf("SaveTransactions() error = %v", err)
	}

	// Another user's data does not bleed through
	other := createTestTransactions(2)
	for i := range other {
		other[i].ID = "other-" + other[i].ID
		other[i].UserID = "user2"
		other[i].Hash = other[i].GenerateHash()
	}
	if err := store.SaveTransactions(ctx, other); err != nil {
		t.Fatalf("SaveTransactions() error = %v", err)
	}

	got, err := store.GetTransactions(ctx, "user1", model.SegmentReal, 0)
	if err != nil {
		t.Fatalf("GetTransactions() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("GetTransactions() returned %d transactions, want 5", len(got))
	}

	// Sorted by date descending: the last saved transaction is newest
	if got[0].ID != txns[4].ID {
		t.Errorf("First transaction = %s, want %s", got[0].ID, txns[4].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.After(got[i-1].Date) {
			t.Errorf("Transactions not sorted by date descending at index %d", i)
		}
	}

	// Limit caps the result
	limited, err := store.GetTransactions(ctx, "user1", model.SegmentReal, 2)
	if err != nil {
		t.Fatalf("GetTransactions() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("GetTransactions(limit=2) returned %d transactions", len(limited))
	}

	// Segments are isolated
	sample, err := store.GetTransactions(ctx, "user1", model.SegmentSample, 0)
	if err != nil {
		t.Fatalf("GetTransactions() error = %v", err)
	}
	if len(sample) != 0 {
		t.Errorf("Expected no sample-segment transactions, got %d", len(sample))
	}
}

func TestGetTransactionByID(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions(1)
	if err := store.SaveTransactions(ctx, txns); err != nil {
		t.Fatalf("SaveTransactions() error = %v", err)
	}

	got, err := store.GetTransactionByID(ctx, txns[0].ID)
	if err != nil {
		t.Fatalf("GetTransactionByID() error = %v", err)
	}
	if got.Name != txns[0].Name {
		t.Errorf("Name = %q, want %q", got.Name, txns[0].Name)
	}
	if got.Amount != txns[0].Amount {
		t.Errorf("Amount = %v, want %v", got.Amount, txns[0].Amount)
	}
	if got.Segment != model.SegmentReal {
		t.Errorf("Segment = %q, want %q", got.Segment, model.SegmentReal)
	}

	if _, err := store.GetTransactionByID(ctx, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing transaction, got %v", err)
	}
}

func TestDeleteTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions(2)
	if err := store.SaveTransactions(ctx, txns); err != nil {
		t.Fatalf("SaveTransactions() error = %v", err)
	}

	if err := store.DeleteTransaction(ctx, txns[0].ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}

	if _, err := store.GetTransactionByID(ctx, txns[0].ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	count, err := store.CountTransactions(ctx, "user1", model.SegmentReal)
	if err != nil {
		t.Fatalf("CountTransactions() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountTransactions() = %d, want 1", count)
	}

	// Deleting again reports not found
	if err := store.DeleteTransaction(ctx, txns[0].ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestGetTransactionsValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.GetTransactions(ctx, "", model.SegmentReal, 0); err == nil {
		t.Error("Expected error for empty user ID")
	}
	if _, err := store.GetTransactions(ctx, "user1", "bogus", 0); err == nil {
		t.Error("Expected error for invalid segment")
	}
}
