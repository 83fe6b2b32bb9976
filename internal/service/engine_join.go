package service

import (
	"context"
	"errors"
	"fmt"

	"mines_wager/internal/domain"
	"mines_wager/internal/repository"

	"github.com/google/uuid"
)

type JoinRequest struct {
	AuthToken    string
	GuestToken   string
	ConnectionID string
}

type JoinResult struct {
	Session    domain.SessionSnapshot
	GuestToken string
	// Superseded is the connection the session was attached to before
	// this join, if any
	Superseded string
}

// Join attaches a connection to a session, creating it when needed.
// An auth token links the session to the settlement platform; without one
// the player is a guest.
func (e *Engine) Join(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if req.AuthToken != "" {
		return e.joinLinked(ctx, req)
	}
	return e.joinGuest(ctx, req)
}

func (e *Engine) joinLinked(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if e.gateway == nil {
		return nil, fmt.Errorf("%w: platform linking disabled", ErrPlatformUnreachable)
	}

	ident, err := e.gateway.ResolveIdentity(ctx, req.AuthToken)
	if err != nil {
		return nil, err
	}
	if ident.PlayerID == "" {
		return nil, fmt.Errorf("%w: empty player id", ErrPlatformRejected)
	}

	h := e.registry.LockOrCreate(ident.PlayerID)
	defer h.Unlock()

	if s := h.Session(); s != nil {
		return e.reattach(s, req.ConnectionID, func() {
			s.SettlementToken = req.AuthToken
			s.DisplayName = ident.DisplayName
			s.AvatarRef = ident.AvatarRef
		}), nil
	}

	balance, err := e.gateway.FetchBalance(ctx, ident.PlayerID, req.AuthToken)
	if err != nil {
		return nil, err
	}

	stored, err := e.players.Get(ctx, ident.PlayerID)
	switch {
	case err == nil && stored.RefundPending:
		e.log.Warn("refund outcome unknown, taking platform balance",
			"player_id", ident.PlayerID,
			"stored", stored.Balance.String(),
			"platform", balance.String(),
		)
	case err == nil && !stored.Balance.IsZero():
		e.log.Warn("unsettled balance found, keeping stored balance",
			"player_id", ident.PlayerID,
			"stored", stored.Balance.String(),
			"platform", balance.String(),
		)
		balance = stored.Balance
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	player := &domain.Player{
		PlayerID:    ident.PlayerID,
		DisplayName: ident.DisplayName,
		AvatarRef:   ident.AvatarRef,
		Balance:     balance,
	}
	if err := e.players.Upsert(ctx, player); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	now := e.now()
	s := &domain.Session{
		PlayerID:        ident.PlayerID,
		ConnectionID:    req.ConnectionID,
		DisplayName:     ident.DisplayName,
		AvatarRef:       ident.AvatarRef,
		Balance:         balance,
		PlatformLinked:  true,
		SettlementToken: req.AuthToken,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	h.Set(s)

	e.log.Info("player joined",
		"player_id", s.PlayerID,
		"connection_id", s.ConnectionID,
		"balance", s.Balance.String(),
	)
	return &JoinResult{Session: s.Snapshot()}, nil
}

func (e *Engine) joinGuest(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if req.GuestToken != "" && e.tokens != nil {
		if id, err := e.tokens.Parse(req.GuestToken); err == nil {
			if h, err := e.registry.Lock(id); err == nil {
				defer h.Unlock()
				res := e.reattach(h.Session(), req.ConnectionID, nil)
				res.GuestToken = req.GuestToken
				return res, nil
			}
		} else {
			e.log.Debug("guest token rejected", "error", err)
		}
	}

	id := uuid.NewString()
	h := e.registry.LockOrCreate(id)
	defer h.Unlock()

	now := e.now()
	s := &domain.Session{
		PlayerID:     id,
		ConnectionID: req.ConnectionID,
		DisplayName:  "guest",
		Balance:      e.opts.GuestStartBalance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var token string
	if e.tokens != nil {
		var err error
		if token, err = e.tokens.Issue(id); err != nil {
			return nil, fmt.Errorf("issue guest token: %w", err)
		}
	}
	h.Set(s)

	e.log.Info("guest joined", "player_id", id, "connection_id", req.ConnectionID)
	return &JoinResult{Session: s.Snapshot(), GuestToken: token}, nil
}

// reattach moves a live session onto a new connection
func (e *Engine) reattach(s *domain.Session, connectionID string, update func()) *JoinResult {
	prev := s.ConnectionID
	s.ConnectionID = connectionID
	if update != nil {
		update()
	}
	e.touch(s)

	res := &JoinResult{Session: s.Snapshot()}
	if prev != "" && prev != connectionID {
		res.Superseded = prev
	}
	e.log.Info("session reattached",
		"player_id", s.PlayerID,
		"connection_id", connectionID,
		"previous", prev,
	)
	return res
}
