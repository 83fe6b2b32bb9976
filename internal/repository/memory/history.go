package memory

import (
	"context"
	"sync"
	"time"

	"mines_wager/internal/domain"
)

type HistoryStore struct {
	mu      sync.RWMutex
	seq     int64
	records []domain.HistoryRecord
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Create(_ context.Context, rec *domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	rec.ID = s.seq
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.records = append(s.records, *rec)
	return nil
}

// List walks records newest first; insertion order stands in for created_at
func (s *HistoryStore) List(_ context.Context, q domain.HistoryQuery) ([]*domain.HistoryRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		matched []*domain.HistoryRecord
		total   int
		offset  = q.Offset()
	)
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if q.PlayerID != "" && rec.PlayerID != q.PlayerID {
			continue
		}
		total++
		if total <= offset || len(matched) >= q.PageSize {
			continue
		}
		matched = append(matched, &rec)
	}
	return matched, total, nil
}
