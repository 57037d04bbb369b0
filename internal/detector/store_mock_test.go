package detector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/biguard/biguard/internal/common"
	"github.com/biguard/biguard/internal/model"
	"github.com/biguard/biguard/internal/service"
)

// memStore is an in-memory service.Storage used to exercise the detector
// without SQLite. It mirrors the store contracts: date-descending reads,
// ErrNotFound sentinels, and a unique transaction ID per quarantine record.
type memStore struct {
	mu          sync.Mutex
	txns        map[string]model.Transaction
	models      map[string]*model.RiskModel
	quarantined map[string]model.QuarantineRecord
}

var _ service.Storage = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		txns:        make(map[string]model.Transaction),
		models:      make(map[string]*model.RiskModel),
		quarantined: make(map[string]model.QuarantineRecord),
	}
}

func (s *memStore) SaveTransactions(_ context.Context, transactions []model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, txn := range transactions {
		s.txns[txn.ID] = txn
	}
	return nil
}

func (s *memStore) GetTransactions(_ context.Context, userID string, segment model.DataSegment, limit int) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Transaction
	for _, txn := range s.txns {
		if txn.UserID == userID && txn.Segment == segment {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GetTransactionByID(_ context.Context, id string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return &txn, nil
}

func (s *memStore) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	delete(s.txns, id)
	return nil
}

func (s *memStore) CountTransactions(_ context.Context, userID string, segment model.DataSegment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, txn := range s.txns {
		if txn.UserID == userID && txn.Segment == segment {
			count++
		}
	}
	return count, nil
}

func (s *memStore) SaveModel(_ context.Context, riskModel *model.RiskModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[pairKey(riskModel.UserID, riskModel.Segment)] = riskModel
	return nil
}

func (s *memStore) GetModel(_ context.Context, userID string, segment model.DataSegment) (*model.RiskModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	riskModel, ok := s.models[pairKey(userID, segment)]
	if !ok {
		return nil, fmt.Errorf("model for %s/%s: %w", userID, segment, common.ErrNotFound)
	}
	return riskModel, nil
}

func (s *memStore) ModelExists(_ context.Context, userID string, segment model.DataSegment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.models[pairKey(userID, segment)]
	return ok, nil
}

func (s *memStore) InsertQuarantine(_ context.Context, record *model.QuarantineRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quarantined[record.TransactionID]; ok {
		return fmt.Errorf("transaction %s: %w", record.TransactionID, common.ErrDuplicateEntry)
	}
	s.quarantined[record.TransactionID] = *record
	return nil
}

func (s *memStore) GetQuarantineByTransactionID(_ context.Context, transactionID string) (*model.QuarantineRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.quarantined[transactionID]
	if !ok {
		return nil, fmt.Errorf("quarantine for %s: %w", transactionID, common.ErrNotFound)
	}
	return &record, nil
}

func (s *memStore) GetQuarantined(_ context.Context, userID string, segment model.DataSegment) ([]model.QuarantineRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.QuarantineRecord
	for _, record := range s.quarantined {
		if record.UserID == userID && record.Segment == segment {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	return out, nil
}

func (s *memStore) DeleteQuarantined(_ context.Context, userID string, segment model.DataSegment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, record := range s.quarantined {
		if record.UserID == userID && record.Segment == segment {
			delete(s.quarantined, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memStore) Migrate(context.Context) error { return nil }

func (s *memStore) Close() error { return nil }

func (s *memStore) quarantineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.quarantined)
}
