package ws

import (
	"mines_wager/internal/domain"

	"github.com/shopspring/decimal"
)

// client → server

type JoinPayload struct {
	AuthToken  string `json:"authToken"`
	GuestToken string `json:"guestToken"`
}

type ProfitCalcPayload struct {
	PlayerID  string `json:"playerId"`
	GridSize  int    `json:"gridSize"`
	MineCount int    `json:"mineCount"`
}

type PlayBetPayload struct {
	PlayerID        string          `json:"playerId"`
	BetAmount       decimal.Decimal `json:"betAmount"`
	GridSize        int             `json:"gridSize"`
	MineCount       int             `json:"mineCount"`
	TurboMode       bool            `json:"turboMode"`
	TurboSelections []int           `json:"turboSelections"`
	ProfitValue     decimal.Decimal `json:"profitValue"`
}

type CancelBetPayload struct {
	PlayerID  string          `json:"playerId"`
	BetAmount decimal.Decimal `json:"betAmount"`
}

type CashOutPayload struct {
	PlayerID    string          `json:"playerId"`
	BetAmount   decimal.Decimal `json:"betAmount"`
	ProfitValue decimal.Decimal `json:"profitValue"`
}

type CheckMinePayload struct {
	PlayerID  string          `json:"playerId"`
	Order     int             `json:"order"`
	BetAmount decimal.Decimal `json:"betAmount"`
}

type PlayerPayload struct {
	PlayerID string `json:"playerId"`
}

type HistoryPayload struct {
	PlayerID string `json:"playerId"`
	Scope    string `json:"scope"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// server → client

type JoinReply struct {
	Session    domain.SessionSnapshot `json:"session"`
	GuestToken string                 `json:"guestToken,omitempty"`
}

type ProfitCalcReply struct {
	ProfitMultipliers []decimal.Decimal `json:"profitMultipliers"`
}

type PlayBetReply struct {
	Balance    decimal.Decimal  `json:"balance"`
	TurboMode  bool             `json:"turboMode"`
	Mine       *bool            `json:"mine,omitempty"`
	Grid       []int            `json:"grid,omitempty"`
	Multiplier *decimal.Decimal `json:"multiplier,omitempty"`
}

type BalanceReply struct {
	Balance decimal.Decimal `json:"balance"`
}

type CashOutReply struct {
	Balance    decimal.Decimal `json:"balance"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
}

type CheckMineReply struct {
	Mine          bool            `json:"mine"`
	Index         int             `json:"index"`
	MinePlacement []int           `json:"minePlacement,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	Multiplier    decimal.Decimal `json:"multiplier"`
	Finished      bool            `json:"finished"`
}

type RefundReply struct {
	Refunded decimal.Decimal `json:"refunded"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
