package service

import (
	"context"
	"fmt"

	"mines_wager/internal/domain"

	"github.com/shopspring/decimal"
)

type RefundResult struct {
	PlayerID        string
	Refunded        decimal.Decimal
	PlatformBalance decimal.Decimal
}

// Refund pushes a linked player's working balance back to the platform and
// ends the session. On failure the session stays and can be retried.
func (e *Engine) Refund(ctx context.Context, playerID string) (*RefundResult, error) {
	h, err := e.registry.Lock(playerID)
	if err != nil {
		return nil, err
	}
	defer h.Unlock()

	s := h.Session()
	if !s.PlatformLinked {
		return nil, ErrNotPlatformLinked
	}
	if s.Wager != nil {
		return nil, ErrWagerInProgress
	}
	return e.refund(ctx, h, s)
}

// Disconnect runs the teardown flow for a closed connection. Events from a
// connection that was superseded by a reconnect are ignored.
func (e *Engine) Disconnect(ctx context.Context, playerID, connectionID string) error {
	h, err := e.registry.Lock(playerID)
	if err != nil {
		// already gone
		return nil
	}
	defer h.Unlock()

	s := h.Session()
	if s.ConnectionID != connectionID {
		e.log.Debug("stale disconnect ignored",
			"player_id", playerID,
			"connection_id", connectionID,
			"current", s.ConnectionID,
		)
		return nil
	}
	s.ConnectionID = ""
	e.touch(s)
	return e.teardown(ctx, h, s)
}

// teardown settles a detached session: guests are dropped (or kept for
// reattach while the idle TTL runs), linked players are refunded
func (e *Engine) teardown(ctx context.Context, h *Handle, s *domain.Session) error {
	playerID := s.PlayerID
	if !s.PlatformLinked {
		if e.opts.SessionIdleTTL > 0 {
			e.log.Info("guest detached", "player_id", playerID)
			return nil
		}
		h.Remove()
		e.log.Info("guest session dropped", "player_id", playerID)
		return nil
	}

	if s.Wager != nil {
		if err := e.cancelWager(ctx, s); err != nil {
			e.log.Error("cancel on disconnect failed", "player_id", playerID, "error", err)
			return err
		}
	}

	_, err := e.refund(ctx, h, s)
	return err
}

func (e *Engine) refund(ctx context.Context, h *Handle, s *domain.Session) (*RefundResult, error) {
	if s.RefundInFlight {
		return nil, ErrDuplicateRefund
	}
	s.RefundInFlight = true

	platformBalance, err := e.gateway.FetchBalance(ctx, s.PlayerID, s.SettlementToken)
	if err != nil {
		s.RefundInFlight = false
		e.log.Warn("refund balance fetch failed", "player_id", s.PlayerID, "error", err)
		return nil, err
	}

	// the marker outlives a crash between the platform call and the
	// balance write, so the next join trusts the platform instead
	if err := e.players.MarkRefundPending(ctx, s.PlayerID, true); err != nil {
		s.RefundInFlight = false
		e.log.Error("refund marker not stored", "player_id", s.PlayerID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	amount := s.Balance
	if err := e.gateway.Refund(ctx, s.PlayerID, s.SettlementToken, amount); err != nil {
		s.RefundInFlight = false
		e.log.Warn("refund rejected by platform",
			"player_id", s.PlayerID,
			"balance", amount.String(),
			"error", err,
		)
		if merr := e.players.MarkRefundPending(ctx, s.PlayerID, false); merr != nil {
			e.log.Error("refund marker not cleared", "player_id", s.PlayerID, "error", merr)
		}
		return nil, err
	}

	s.Balance = decimal.Zero
	if err := e.players.UpdateBalance(ctx, s.PlayerID, decimal.Zero); err != nil {
		// marker stays set; the next join takes the platform balance
		e.log.Error("refunded balance not cleared in store",
			"player_id", s.PlayerID,
			"refunded", amount.String(),
			"error", err,
		)
	} else if err := e.players.MarkRefundPending(ctx, s.PlayerID, false); err != nil {
		e.log.Error("refund marker not cleared", "player_id", s.PlayerID, "error", err)
	}
	h.Remove()

	e.log.Info("refund settled",
		"player_id", s.PlayerID,
		"refunded", amount.String(),
		"platform_balance", platformBalance.String(),
	)
	return &RefundResult{PlayerID: s.PlayerID, Refunded: amount, PlatformBalance: platformBalance}, nil
}
