package service

import (
	"context"
	"fmt"
	"log/slog"

	"mines_wager/internal/domain"
	"mines_wager/internal/metrics"

	"github.com/shopspring/decimal"
)

type Op string

const (
	Debit  Op = "debit"
	Credit Op = "credit"
)

// Ledger owns balance arithmetic. Callers must hold the session lock.
type Ledger struct {
	players PlayerStore
	log     *slog.Logger
}

func NewLedger(players PlayerStore, log *slog.Logger) *Ledger {
	return &Ledger{players: players, log: log}
}

// Apply debits or credits amount and mirrors linked balances to the store.
// On a store failure the in-memory balance is restored.
func (l *Ledger) Apply(ctx context.Context, s *domain.Session, op Op, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		metrics.LedgerOperations.WithLabelValues(string(op), "rejected").Inc()
		return s.Balance, fmt.Errorf("%w: amount must be positive", ErrInvalidWagerParameters)
	}

	before := s.Balance
	switch op {
	case Debit:
		if amount.GreaterThan(s.Balance) {
			metrics.LedgerOperations.WithLabelValues(string(op), "rejected").Inc()
			return s.Balance, ErrInsufficientFunds
		}
		s.Balance = s.Balance.Sub(amount)
	case Credit:
		s.Balance = s.Balance.Add(amount)
	default:
		return s.Balance, fmt.Errorf("unknown ledger op %q", op)
	}

	if s.PlatformLinked && l.players != nil {
		if err := l.players.UpdateBalance(ctx, s.PlayerID, s.Balance); err != nil {
			s.Balance = before
			metrics.LedgerOperations.WithLabelValues(string(op), "failed").Inc()
			l.log.Error("balance write failed, rolled back",
				"player_id", s.PlayerID,
				"op", op,
				"amount", amount.String(),
				"error", err,
			)
			return s.Balance, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
		}
	}

	metrics.LedgerOperations.WithLabelValues(string(op), "ok").Inc()
	return s.Balance, nil
}
