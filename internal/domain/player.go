package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Player - durable record of a platform-linked player
type Player struct {
	PlayerID    string          `db:"player_id"`
	DisplayName string          `db:"display_name"`
	AvatarRef   string          `db:"avatar_ref"`
	Balance     decimal.Decimal `db:"balance"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`

	// RefundPending is set while a refund is out at the platform; the
	// stored balance may already have been paid back
	RefundPending bool `db:"refund_pending"`
}
