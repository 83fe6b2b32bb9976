// Package memory holds map-backed stores used when no database is configured
package memory

import (
	"context"
	"sync"
	"time"

	"mines_wager/internal/domain"
	"mines_wager/internal/repository"

	"github.com/shopspring/decimal"
)

type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]domain.Player
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[string]domain.Player)}
}

func (s *PlayerStore) Get(_ context.Context, playerID string) (*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *PlayerStore) Upsert(_ context.Context, p *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.players[p.PlayerID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.players[p.PlayerID] = *p
	return nil
}

func (s *PlayerStore) UpdateBalance(_ context.Context, playerID string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Balance = balance
	p.UpdatedAt = time.Now()
	s.players[playerID] = p
	return nil
}

func (s *PlayerStore) MarkRefundPending(_ context.Context, playerID string, pending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return repository.ErrNotFound
	}
	p.RefundPending = pending
	p.UpdatedAt = time.Now()
	s.players[playerID] = p
	return nil
}
