package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WagerOutcome - how a settled wager ended
type WagerOutcome string

const (
	OutcomeCashedOut WagerOutcome = "cashed_out"
	OutcomeBusted    WagerOutcome = "busted"
)

// HistoryRecord - one settled wager, written once and never updated
type HistoryRecord struct {
	ID           int64           `db:"id" json:"id"`
	PlayerID     string          `db:"player_id" json:"playerId"`
	BetAmount    decimal.Decimal `db:"bet_amount" json:"betAmount"`
	Multiplier   decimal.Decimal `db:"multiplier" json:"profit"`
	ProfitAmount decimal.Decimal `db:"profit_amount" json:"profitAmount"`
	GridSize     int             `db:"grid_size" json:"gridSize"`
	MineCount    int             `db:"mine_count" json:"mineCount"`
	Outcome      WagerOutcome    `db:"outcome" json:"outcome"`
	CreatedAt    time.Time       `db:"created_at" json:"timestamp"`
}

// HistoryQuery - paginated history lookup; empty PlayerID means global
type HistoryQuery struct {
	PlayerID string
	Page     int
	PageSize int
}

// Offset returns the number of records to skip
func (q HistoryQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}
