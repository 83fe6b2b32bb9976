package service

import (
	"context"
	"errors"
	"fmt"

	"mines_wager/internal/domain"
	"mines_wager/internal/game"

	"github.com/shopspring/decimal"
)

type PlayBetRequest struct {
	PlayerID        string
	BetAmount       decimal.Decimal
	GridSize        int
	MineCount       int
	TurboMode       bool
	TurboSelections []int
	ProfitValue     decimal.Decimal
}

type PlayBetResult struct {
	Balance    decimal.Decimal
	TurboMode  bool
	Mine       bool
	Grid       []int
	Multiplier decimal.Decimal
	Payout     decimal.Decimal
}

type CheckMineResult struct {
	Mine          bool
	Index         int
	MinePlacement []int
	Balance       decimal.Decimal
	Multiplier    decimal.Decimal
	Revealed      int
	// Finished is set when the reveal ended the round (bust or last safe cell)
	Finished bool
}

type CashOutResult struct {
	Balance    decimal.Decimal
	Multiplier decimal.Decimal
	Payout     decimal.Decimal
}

// SetProfitCalcList computes the multiplier table for a grid and keeps it
// on the session for the next bet
func (e *Engine) SetProfitCalcList(ctx context.Context, playerID string, gridSize, mineCount int) ([]decimal.Decimal, error) {
	h, err := e.registry.Lock(playerID)
	if err != nil {
		return nil, err
	}
	defer h.Unlock()

	s := h.Session()
	if s.Wager != nil {
		return nil, ErrWagerInProgress
	}

	table, err := game.Multipliers(gridSize, mineCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWagerParameters, err)
	}

	s.ProfitGrid = gridSize
	s.ProfitMines = mineCount
	s.ProfitMultipliers = table
	e.touch(s)

	return cloneDecimals(table), nil
}

// PlayBet debits the stake and opens a round. In turbo mode the round is
// settled immediately against the pre-committed selections.
func (e *Engine) PlayBet(ctx context.Context, req PlayBetRequest) (*PlayBetResult, error) {
	h, err := e.registry.Lock(req.PlayerID)
	if err != nil {
		return nil, err
	}
	defer h.Unlock()

	s := h.Session()
	if s.Wager != nil {
		return nil, ErrWagerInProgress
	}
	if err := e.validateBet(req); err != nil {
		return nil, err
	}

	table := s.ProfitMultipliers
	if s.ProfitGrid != req.GridSize || s.ProfitMines != req.MineCount || len(table) == 0 {
		if table, err = game.Multipliers(req.GridSize, req.MineCount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWagerParameters, err)
		}
	}

	grid, err := e.generateGrid(req.GridSize, req.MineCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWagerParameters, err)
	}

	if _, err := e.ledger.Apply(ctx, s, Debit, req.BetAmount); err != nil {
		return nil, err
	}

	w := &domain.Wager{
		Amount:            req.BetAmount,
		MineCount:         req.MineCount,
		GridSize:          req.GridSize,
		MinePlacement:     grid.Mines,
		Cells:             grid.Cells,
		TurboMode:         req.TurboMode,
		TurboSelections:   append([]int(nil), req.TurboSelections...),
		ProfitMultipliers: table,
		PlacedAt:          e.now(),
	}
	s.Wager = w
	e.touch(s)

	e.log.Info("bet placed",
		"player_id", s.PlayerID,
		"bet", req.BetAmount.String(),
		"grid", req.GridSize,
		"mines", req.MineCount,
		"turbo", req.TurboMode,
	)

	if !req.TurboMode {
		return &PlayBetResult{Balance: s.Balance}, nil
	}
	return e.settleTurbo(ctx, s, req.ProfitValue)
}

func (e *Engine) settleTurbo(ctx context.Context, s *domain.Session, claimed decimal.Decimal) (*PlayBetResult, error) {
	w := s.Wager
	res := &PlayBetResult{TurboMode: true, Grid: append([]int(nil), w.MinePlacement...)}

	for _, idx := range w.TurboSelections {
		if w.Cells[idx] {
			e.settleBust(ctx, s)
			res.Mine = true
			res.Balance = s.Balance
			res.Multiplier = decimal.Zero
			return res, nil
		}
		w.Revealed = append(w.Revealed, idx)
	}

	mult, payout, err := e.settleWin(ctx, s, claimed)
	if err != nil {
		// a turbo round never stays open: hand the stake back
		if cerr := e.cancelWager(ctx, s); cerr != nil {
			e.log.Error("turbo stake return failed, wager left open",
				"player_id", s.PlayerID,
				"bet", w.Amount.String(),
				"error", cerr,
			)
		}
		return nil, err
	}
	res.Balance = s.Balance
	res.Multiplier = mult
	res.Payout = payout
	return res, nil
}

// CheckMine reveals one cell of the active round. Re-checking a revealed
// cell returns the stored verdict.
func (e *Engine) CheckMine(ctx context.Context, playerID string, index int) (*CheckMineResult, error) {
	h, err := e.registry.Lock(playerID)
	if err != nil {
		return nil, err
	}
	defer h.Unlock()

	s := h.Session()
	w := s.Wager
	if w == nil {
		return nil, ErrNoActiveWager
	}
	if index < 0 || index >= len(w.Cells) {
		return nil, fmt.Errorf("%w: cell %d outside grid", ErrInvalidWagerParameters, index)
	}

	res := &CheckMineResult{Index: index}

	if w.IsRevealed(index) {
		res.Revealed = len(w.Revealed)
		res.Multiplier = w.ProfitMultipliers[len(w.Revealed)-1]
		res.Balance = s.Balance
		return res, nil
	}

	if w.Cells[index] {
		placement := append([]int(nil), w.MinePlacement...)
		res.Revealed = len(w.Revealed)
		e.settleBust(ctx, s)
		res.Mine = true
		res.Finished = true
		res.MinePlacement = placement
		res.Balance = s.Balance
		res.Multiplier = decimal.Zero
		return res, nil
	}

	w.Revealed = append(w.Revealed, index)
	e.touch(s)
	res.Revealed = len(w.Revealed)
	res.Multiplier = w.ProfitMultipliers[len(w.Revealed)-1]

	if len(w.Revealed) == w.SafeCells() {
		placement := append([]int(nil), w.MinePlacement...)
		if _, _, err := e.settleWin(ctx, s, decimal.Zero); err != nil {
			// the reveal stands; the player can retry with cashOut
			e.log.Error("auto cash-out failed", "player_id", s.PlayerID, "error", err)
			return nil, err
		}
		res.Finished = true
		res.MinePlacement = placement
	}

	res.Balance = s.Balance
	return res, nil
}

// CashOut pays the stake times the multiplier earned by the safe reveals
func (e *Engine) CashOut(ctx context.Context, playerID string, betAmount, claimed decimal.Decimal) (*CashOutResult, error) {
	h, err := e.registry.Lock(playerID)
	if err != nil {
		return nil, err
	}
	defer h.Unlock()

	s := h.Session()
	w := s.Wager
	if w == nil {
		return nil, ErrNoActiveWager
	}
	if !betAmount.IsZero() && !betAmount.Equal(w.Amount) {
		return nil, fmt.Errorf("%w: bet amount does not match stake", ErrInvalidWagerParameters)
	}
	if len(w.Revealed) == 0 {
		return nil, fmt.Errorf("%w: nothing revealed yet", ErrInvalidWagerParameters)
	}

	mult, payout, err := e.settleWin(ctx, s, claimed)
	if err != nil {
		return nil, err
	}
	return &CashOutResult{Balance: s.Balance, Multiplier: mult, Payout: payout}, nil
}

// CancelBet returns the full stake of an active round, without history
func (e *Engine) CancelBet(ctx context.Context, playerID string, betAmount decimal.Decimal) (decimal.Decimal, error) {
	h, err := e.registry.Lock(playerID)
	if err != nil {
		return decimal.Zero, err
	}
	defer h.Unlock()

	s := h.Session()
	if s.Wager == nil {
		return decimal.Zero, ErrNoActiveWager
	}
	if !betAmount.Equal(s.Wager.Amount) {
		return decimal.Zero, fmt.Errorf("%w: bet amount does not match stake", ErrInvalidWagerParameters)
	}

	if err := e.cancelWager(ctx, s); err != nil {
		return decimal.Zero, err
	}
	return s.Balance, nil
}

func (e *Engine) cancelWager(ctx context.Context, s *domain.Session) error {
	w := s.Wager
	if _, err := e.ledger.Apply(ctx, s, Credit, w.Amount); err != nil {
		return err
	}
	s.Wager = nil
	e.touch(s)

	e.log.Info("bet cancelled", "player_id", s.PlayerID, "bet", w.Amount.String())
	return nil
}

// settleWin credits stake*multiplier for the wager's reveal count. If the
// credit fails the wager stays active so the payout can be retried.
func (e *Engine) settleWin(ctx context.Context, s *domain.Session, claimed decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	w := s.Wager
	mult, err := game.MultiplierAt(w.ProfitMultipliers, len(w.Revealed))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidWagerParameters, err)
	}
	if !claimed.IsZero() && !claimed.Equal(mult) {
		e.log.Warn("client multiplier mismatch, using server value",
			"player_id", s.PlayerID,
			"claimed", claimed.String(),
			"multiplier", mult.String(),
		)
	}

	payout := w.Amount.Mul(mult)
	if _, err := e.ledger.Apply(ctx, s, Credit, payout); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	s.Wager = nil
	e.touch(s)

	e.record(ctx, s, w, mult, domain.OutcomeCashedOut)
	e.report(ctx, s, w, mult, domain.OrderStatusWin)

	e.log.Info("cashed out",
		"player_id", s.PlayerID,
		"bet", w.Amount.String(),
		"multiplier", mult.String(),
		"payout", payout.String(),
	)
	return mult, payout, nil
}

func (e *Engine) settleBust(ctx context.Context, s *domain.Session) {
	w := s.Wager
	s.Wager = nil
	e.touch(s)

	e.record(ctx, s, w, decimal.Zero, domain.OutcomeBusted)
	e.report(ctx, s, w, decimal.Zero, domain.OrderStatusLose)

	e.log.Info("busted", "player_id", s.PlayerID, "bet", w.Amount.String(), "revealed", len(w.Revealed))
}

func (e *Engine) validateBet(req PlayBetRequest) error {
	if err := game.ValidateGrid(req.GridSize, req.MineCount); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWagerParameters, err)
	}
	if !req.BetAmount.IsPositive() {
		return fmt.Errorf("%w: bet must be positive", ErrInvalidWagerParameters)
	}
	if req.BetAmount.LessThan(e.opts.MinBet) {
		return fmt.Errorf("%w: bet below minimum %s", ErrInvalidWagerParameters, e.opts.MinBet)
	}
	if !e.opts.MaxBet.IsZero() && req.BetAmount.GreaterThan(e.opts.MaxBet) {
		return fmt.Errorf("%w: bet above maximum %s", ErrInvalidWagerParameters, e.opts.MaxBet)
	}

	if !req.TurboMode {
		return nil
	}
	cells := req.GridSize * req.GridSize
	n := len(req.TurboSelections)
	if n == 0 || n > cells-req.MineCount {
		return fmt.Errorf("%w: turbo needs 1..%d selections", ErrInvalidWagerParameters, cells-req.MineCount)
	}
	seen := make(map[int]struct{}, n)
	for _, idx := range req.TurboSelections {
		if idx < 0 || idx >= cells {
			return fmt.Errorf("%w: cell %d outside grid", ErrInvalidWagerParameters, idx)
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("%w: cell %d selected twice", ErrInvalidWagerParameters, idx)
		}
		seen[idx] = struct{}{}
	}
	return nil
}

func cloneDecimals(in []decimal.Decimal) []decimal.Decimal {
	return append([]decimal.Decimal(nil), in...)
}

// IsClientError reports whether err is a rejection the player caused
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrUndefinedUser,
		ErrInsufficientFunds,
		ErrInvalidWagerParameters,
		ErrNoActiveWager,
		ErrWagerInProgress,
		ErrDuplicateRefund,
		ErrNotPlatformLinked,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
