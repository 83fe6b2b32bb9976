package service

import (
	"context"

	"mines_wager/internal/domain"
	"mines_wager/internal/settlement"

	"github.com/shopspring/decimal"
)

// PlayerStore persists working balances of platform-linked players
type PlayerStore interface {
	Get(ctx context.Context, playerID string) (*domain.Player, error)
	Upsert(ctx context.Context, p *domain.Player) error
	UpdateBalance(ctx context.Context, playerID string, balance decimal.Decimal) error
	MarkRefundPending(ctx context.Context, playerID string, pending bool) error
}

type HistoryStore interface {
	Create(ctx context.Context, rec *domain.HistoryRecord) error
	List(ctx context.Context, q domain.HistoryQuery) ([]*domain.HistoryRecord, int, error)
}

// Gateway is the settlement platform as seen by the engine
type Gateway interface {
	ResolveIdentity(ctx context.Context, authToken string) (*settlement.Identity, error)
	FetchBalance(ctx context.Context, playerID, authToken string) (decimal.Decimal, error)
	Refund(ctx context.Context, playerID, authToken string, balance decimal.Decimal) error
	OrderReporter
}

type OrderReporter interface {
	ReportOrder(ctx context.Context, report domain.OrderReport) error
}

// Outbox queues settled orders until the dispatcher delivers them
type Outbox interface {
	Enqueue(ctx context.Context, report domain.OrderReport) error
	Dequeue(ctx context.Context) (*domain.OrderReport, error)
	DeadLetter(ctx context.Context, report domain.OrderReport) error
}
