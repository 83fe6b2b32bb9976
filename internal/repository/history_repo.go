package repository

import (
	"context"

	"mines_wager/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type HistoryRepository struct {
	db *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a settled wager
func (r *HistoryRepository) Create(ctx context.Context, rec *domain.HistoryRecord) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO wager_history
			(player_id, bet_amount, multiplier, profit_amount, grid_size, mine_count, outcome)
		 VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5, $6, $7)
		 RETURNING id, created_at`,
		rec.PlayerID,
		rec.BetAmount.String(),
		rec.Multiplier.String(),
		rec.ProfitAmount.String(),
		rec.GridSize,
		rec.MineCount,
		rec.Outcome,
	).Scan(&rec.ID, &rec.CreatedAt)
}

// List returns one page of history, newest first, plus the total count
func (r *HistoryRepository) List(ctx context.Context, q domain.HistoryQuery) ([]*domain.HistoryRecord, int, error) {
	var (
		total int
		rows  pgx.Rows
		err   error
	)

	const cols = `id, player_id, bet_amount::text, multiplier::text, profit_amount::text,
		grid_size, mine_count, outcome, created_at`

	if q.PlayerID != "" {
		if err := r.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM wager_history WHERE player_id = $1`, q.PlayerID,
		).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.db.Query(ctx,
			`SELECT `+cols+`
			 FROM wager_history
			 WHERE player_id = $1
			 ORDER BY created_at DESC, id DESC
			 OFFSET $2 LIMIT $3`,
			q.PlayerID, q.Offset(), q.PageSize,
		)
	} else {
		if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM wager_history`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = r.db.Query(ctx,
			`SELECT `+cols+`
			 FROM wager_history
			 ORDER BY created_at DESC, id DESC
			 OFFSET $1 LIMIT $2`,
			q.Offset(), q.PageSize,
		)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := scanHistory(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func scanHistory(rows pgx.Rows) ([]*domain.HistoryRecord, error) {
	var result []*domain.HistoryRecord

	for rows.Next() {
		var (
			rec                    domain.HistoryRecord
			bet, multiplier, profit string
		)
		if err := rows.Scan(
			&rec.ID, &rec.PlayerID, &bet, &multiplier, &profit,
			&rec.GridSize, &rec.MineCount, &rec.Outcome, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}

		var err error
		if rec.BetAmount, err = decimal.NewFromString(bet); err != nil {
			return nil, err
		}
		if rec.Multiplier, err = decimal.NewFromString(multiplier); err != nil {
			return nil, err
		}
		if rec.ProfitAmount, err = decimal.NewFromString(profit); err != nil {
			return nil, err
		}

		result = append(result, &rec)
	}

	return result, rows.Err()
}
