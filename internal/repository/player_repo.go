package repository

import (
	"context"
	"errors"

	"mines_wager/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PlayerRepository struct {
	db *pgxpool.Pool
}

func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Get loads a player by platform id
func (r *PlayerRepository) Get(ctx context.Context, playerID string) (*domain.Player, error) {
	var (
		p       domain.Player
		balance string
	)
	err := r.db.QueryRow(ctx,
		`SELECT player_id, display_name, avatar_ref, balance::text, refund_pending, created_at, updated_at
		 FROM players
		 WHERE player_id = $1`,
		playerID,
	).Scan(&p.PlayerID, &p.DisplayName, &p.AvatarRef, &balance, &p.RefundPending, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if p.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert creates the player or refreshes its profile, balance and refund marker
func (r *PlayerRepository) Upsert(ctx context.Context, p *domain.Player) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO players (player_id, display_name, avatar_ref, balance, refund_pending)
		 VALUES ($1, $2, $3, $4::numeric, $5)
		 ON CONFLICT (player_id) DO UPDATE
		 SET display_name   = EXCLUDED.display_name,
		     avatar_ref     = EXCLUDED.avatar_ref,
		     balance        = EXCLUDED.balance,
		     refund_pending = EXCLUDED.refund_pending,
		     updated_at     = now()
		 RETURNING created_at, updated_at`,
		p.PlayerID, p.DisplayName, p.AvatarRef, p.Balance.String(), p.RefundPending,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// UpdateBalance overwrites the stored working balance
func (r *PlayerRepository) UpdateBalance(ctx context.Context, playerID string, balance decimal.Decimal) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET balance = $1::numeric, updated_at = now() WHERE player_id = $2`,
		balance.String(), playerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRefundPending flags or clears an outstanding platform refund
func (r *PlayerRepository) MarkRefundPending(ctx context.Context, playerID string, pending bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET refund_pending = $1, updated_at = now() WHERE player_id = $2`,
		pending, playerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
