package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mines_wager/internal/service"
)

var errBadPayload = errors.New("malformed payload")

// handle decodes one inbound message and runs it against the engine. A
// panic in a handler is contained to an error event on this connection.
func (h *Hub) handle(ctx context.Context, c *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.Emit(eventName(EventError, c.PlayerID()), ErrorPayload{Message: errBadPayload.Error()})
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("event handler panic", "event", msg.Type, "panic", r)
			c.Emit(eventName(EventError, c.PlayerID()), ErrorPayload{Message: "internal error"})
		}
	}()

	c.log.Debug("event received", "event", msg.Type, "player_id", c.PlayerID())

	switch msg.Type {
	case EventJoin:
		h.onJoin(ctx, c, msg.Payload)
	case EventSetProfitCalcList:
		h.onSetProfitCalcList(ctx, c, msg.Payload)
	case EventPlayBet:
		h.onPlayBet(ctx, c, msg.Payload)
	case EventCancelBet:
		h.onCancelBet(ctx, c, msg.Payload)
	case EventCashOut:
		h.onCashOut(ctx, c, msg.Payload)
	case EventCheckMine:
		h.onCheckMine(ctx, c, msg.Payload)
	case EventRefund:
		h.onRefund(ctx, c, msg.Payload)
	case EventGetHistory:
		h.onGetHistory(ctx, c, msg.Payload)
	default:
		c.Emit(eventName(EventError, c.PlayerID()), ErrorPayload{Message: fmt.Sprintf("unknown event %q", msg.Type)})
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

// player resolves the id an event acts on. Events may only address the
// player this connection joined as.
func (c *Client) player(claimed string) (string, error) {
	bound := c.PlayerID()
	if bound == "" || (claimed != "" && claimed != bound) {
		return "", service.ErrUndefinedUser
	}
	return bound, nil
}

func (h *Hub) fail(c *Client, playerID string, err error) {
	if playerID == "" {
		playerID = c.PlayerID()
	}
	if !service.IsClientError(err) && !errors.Is(err, errBadPayload) {
		c.log.Error("event failed", "player_id", playerID, "error", err)
	}
	c.Emit(eventName(EventError, playerID), ErrorPayload{Message: errorMessage(err)})
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrUndefinedUser):
		return "unknown player, join first"
	case errors.Is(err, service.ErrInsufficientFunds):
		return "insufficient balance"
	case errors.Is(err, service.ErrInvalidWagerParameters),
		errors.Is(err, service.ErrNoActiveWager),
		errors.Is(err, service.ErrWagerInProgress),
		errors.Is(err, service.ErrDuplicateRefund),
		errors.Is(err, service.ErrNotPlatformLinked),
		errors.Is(err, errBadPayload):
		return err.Error()
	case errors.Is(err, service.ErrPersistenceFailure):
		return "balance could not be saved, try again"
	case errors.Is(err, service.ErrPlatformUnreachable):
		return "settlement platform unreachable, try again"
	case errors.Is(err, service.ErrPlatformRejected):
		return "settlement platform rejected the request"
	default:
		return "internal error"
	}
}

func (h *Hub) onJoin(ctx context.Context, c *Client, raw json.RawMessage) {
	var p JoinPayload
	if err := decode(raw, &p); err != nil {
		h.fail(c, "", err)
		return
	}

	res, err := h.engine.Join(ctx, service.JoinRequest{
		AuthToken:    p.AuthToken,
		GuestToken:   p.GuestToken,
		ConnectionID: c.ID,
	})
	if err != nil {
		h.fail(c, "", err)
		return
	}

	playerID := res.Session.PlayerID
	if prev := c.bind(playerID); prev != "" && prev != playerID {
		// this connection switched players; release the old session
		if err := h.engine.Disconnect(ctx, prev, c.ID); err != nil {
			c.log.Warn("release previous player failed", "player_id", prev, "error", err)
		}
	}
	if res.Superseded != "" && res.Superseded != c.ID {
		h.kick(res.Superseded, playerID)
	}

	token := p.AuthToken
	if token == "" {
		token = res.GuestToken
	}
	if token == "" {
		token = playerID
	}
	c.Emit(eventName(EventJoin, token), JoinReply{Session: res.Session, GuestToken: res.GuestToken})
}

func (h *Hub) onSetProfitCalcList(ctx context.Context, c *Client, raw json.RawMessage) {
	var p ProfitCalcPayload
	if err := decode(raw, &p); err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}
	id, err := c.player(p.PlayerID)
	if err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}

	table, err := h.engine.SetProfitCalcList(ctx, id, p.GridSize, p.MineCount)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	c.Emit(eventName(EventSetProfitCalcList, id), ProfitCalcReply{ProfitMultipliers: table})
}

func (h *Hub) onPlayBet(ctx context.Context, c *Client, raw json.RawMessage) {
	var p PlayBetPayload
	if err := decode(raw, &p); err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}
	id, err := c.player(p.PlayerID)
	if err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}

	res, err := h.engine.PlayBet(ctx, service.PlayBetRequest{
		PlayerID:        id,
		BetAmount:       p.BetAmount,
		GridSize:        p.GridSize,
		MineCount:       p.MineCount,
		TurboMode:       p.TurboMode,
		TurboSelections: p.TurboSelections,
		ProfitValue:     p.ProfitValue,
	})
	if err != nil {
		h.fail(c, id, err)
		return
	}

	reply := PlayBetReply{Balance: res.Balance, TurboMode: res.TurboMode}
	if res.TurboMode {
		mine, mult := res.Mine, res.Multiplier
		reply.Mine = &mine
		reply.Grid = res.Grid
		reply.Multiplier = &mult
	}
	c.Emit(eventName(EventPlayBet, id), reply)
}

func (h *Hub) onCancelBet(ctx context.Context, c *Client, raw json.RawMessage) {
	var p CancelBetPayload
	if err := decode(raw, &p); err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}
	id, err := c.player(p.PlayerID)
	if err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}

	balance, err := h.engine.CancelBet(ctx, id, p.BetAmount)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	c.Emit(eventName(EventCancelBet, id), BalanceReply{Balance: balance})
}

func (h *Hub) onCashOut(ctx context.Context, c *Client, raw json.RawMessage) {
	var p CashOutPayload
	if err := decode(raw, &p); err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}
	id, err := c.player(p.PlayerID)
	if err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}

	res, err := h.engine.CashOut(ctx, id, p.BetAmount, p.ProfitValue)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	c.Emit(eventName(EventCashOut, id), CashOutReply{Balance: res.Balance, Multiplier: res.Multiplier, Payout: res.Payout})
}

func (h *Hub) onCheckMine(ctx context.Context, c *Client, raw json.RawMessage) {
	var p CheckMinePayload
	if err := decode(raw, &p); err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}
	id, err := c.player(p.PlayerID)
	if err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}

	res, err := h.engine.CheckMine(ctx, id, p.Order)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	c.Emit(eventName(EventCheckMine, id), CheckMineReply{
		Mine:          res.Mine,
		Index:         res.Index,
		MinePlacement: res.MinePlacement,
		Balance:       res.Balance,
		Multiplier:    res.Multiplier,
		Finished:      res.Finished,
	})
}

func (h *Hub) onRefund(ctx context.Context, c *Client, raw json.RawMessage) {
	var p PlayerPayload
	if err := decode(raw, &p); err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}
	id, err := c.player(p.PlayerID)
	if err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}

	res, err := h.engine.Refund(ctx, id)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	c.bind("")
	c.Emit(eventName(EventRefund, id), RefundReply{Refunded: res.Refunded})
}

func (h *Hub) onGetHistory(ctx context.Context, c *Client, raw json.RawMessage) {
	var p HistoryPayload
	if err := decode(raw, &p); err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}
	id, err := c.player(p.PlayerID)
	if err != nil {
		h.fail(c, p.PlayerID, err)
		return
	}

	page, err := h.engine.GetHistory(ctx, service.HistoryRequest{
		PlayerID: id,
		Scope:    service.HistoryScope(p.Scope),
		Page:     p.Page,
		PageSize: p.PageSize,
	})
	if err != nil {
		h.fail(c, id, err)
		return
	}
	c.Emit(eventName(EventGetHistory, id), page)
}
