package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is reported to the settlement platform per settled wager
type OrderStatus string

const (
	OrderStatusWin  OrderStatus = "win"
	OrderStatusLose OrderStatus = "lose"
)

// OrderReport - a settled wager waiting to be reported to the platform
type OrderReport struct {
	CorrelationID   string          `json:"correlation_id"`
	PlayerID        string          `json:"player_id"`
	SettlementToken string          `json:"token"`
	BetAmount       decimal.Decimal `json:"bet_amount"`
	WonAmount       decimal.Decimal `json:"won_amount"`
	Odds            decimal.Decimal `json:"odds"`
	Status          OrderStatus     `json:"status"`
	Timestamp       time.Time       `json:"timestamp"`
	Attempts        int             `json:"attempts"`
}
