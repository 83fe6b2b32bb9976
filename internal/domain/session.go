package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionState - position of a session in the round state machine
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateBetActive SessionState = "bet_active"
)

// Session - live per-player record, owned by the session registry
type Session struct {
	PlayerID        string          `json:"player_id"`
	ConnectionID    string          `json:"-"`
	DisplayName     string          `json:"display_name"`
	AvatarRef       string          `json:"avatar"`
	Balance         decimal.Decimal `json:"balance"`
	PlatformLinked  bool            `json:"platform_linked"`
	SettlementToken string          `json:"-"`
	Wager           *Wager          `json:"-"`
	RefundInFlight  bool            `json:"-"`

	// Table requested through setProfitCalcList while idle
	ProfitGrid        int               `json:"-"`
	ProfitMines       int               `json:"-"`
	ProfitMultipliers []decimal.Decimal `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// State derives the state machine position from the wager slot
func (s *Session) State() SessionState {
	if s.Wager != nil {
		return StateBetActive
	}
	return StateIdle
}

// Wager - one round's stake, mine layout and reveal progress
type Wager struct {
	Amount            decimal.Decimal
	MineCount         int
	GridSize          int
	MinePlacement     []int
	Cells             []bool
	Revealed          []int
	TurboMode         bool
	TurboSelections   []int
	ProfitMultipliers []decimal.Decimal
	PlacedAt          time.Time
}

// IsRevealed reports whether idx was already checked safe
func (w *Wager) IsRevealed(idx int) bool {
	for _, r := range w.Revealed {
		if r == idx {
			return true
		}
	}
	return false
}

// SafeCells is the number of non-mine cells on the grid
func (w *Wager) SafeCells() int {
	return w.GridSize*w.GridSize - w.MineCount
}

// SessionSnapshot is what the player sees about their own session
type SessionSnapshot struct {
	PlayerID       string          `json:"playerId"`
	DisplayName    string          `json:"displayName"`
	AvatarRef      string          `json:"avatar"`
	Balance        decimal.Decimal `json:"balance"`
	PlatformLinked bool            `json:"platformLinked"`
	State          SessionState    `json:"state"`
	ActiveWager    *WagerSnapshot  `json:"activeWager,omitempty"`
}

// WagerSnapshot - client-safe view of an active wager, mines stay hidden
type WagerSnapshot struct {
	Amount    decimal.Decimal `json:"betAmount"`
	GridSize  int             `json:"gridSize"`
	MineCount int             `json:"mineCount"`
	Revealed  []int           `json:"revealed"`
}

// Snapshot copies the client-visible parts of the session
func (s *Session) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		PlayerID:       s.PlayerID,
		DisplayName:    s.DisplayName,
		AvatarRef:      s.AvatarRef,
		Balance:        s.Balance,
		PlatformLinked: s.PlatformLinked,
		State:          s.State(),
	}
	if s.Wager != nil {
		snap.ActiveWager = &WagerSnapshot{
			Amount:    s.Wager.Amount,
			GridSize:  s.Wager.GridSize,
			MineCount: s.Wager.MineCount,
			Revealed:  append([]int(nil), s.Wager.Revealed...),
		}
	}
	return snap
}
