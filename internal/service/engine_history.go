package service

import (
	"context"
	"fmt"

	"mines_wager/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type HistoryScope string

const (
	ScopeMine HistoryScope = "mine"
	ScopeAll  HistoryScope = "all"
)

type HistoryRequest struct {
	PlayerID string
	Scope    HistoryScope
	Page     int
	PageSize int
}

type HistoryPage struct {
	Records []*domain.HistoryRecord `json:"records"`
	Total   int                     `json:"total"`
}

// GetHistory serves a live session's history query
func (e *Engine) GetHistory(ctx context.Context, req HistoryRequest) (*HistoryPage, error) {
	h, err := e.registry.Lock(req.PlayerID)
	if err != nil {
		return nil, err
	}
	h.Unlock()

	return e.History(ctx, req)
}

// History reads settled wagers, newest first. It needs no session.
func (e *Engine) History(ctx context.Context, req HistoryRequest) (*HistoryPage, error) {
	q := domain.HistoryQuery{Page: req.Page, PageSize: req.PageSize}
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize < 1:
		q.PageSize = defaultPageSize
	case q.PageSize > maxPageSize:
		q.PageSize = maxPageSize
	}

	switch req.Scope {
	case ScopeMine, "":
		if req.PlayerID == "" {
			return nil, ErrUndefinedUser
		}
		q.PlayerID = req.PlayerID
	case ScopeAll:
	default:
		return nil, fmt.Errorf("%w: unknown scope %q", ErrInvalidWagerParameters, req.Scope)
	}

	if e.history == nil {
		return &HistoryPage{Records: []*domain.HistoryRecord{}}, nil
	}
	records, total, err := e.history.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	if records == nil {
		records = []*domain.HistoryRecord{}
	}
	return &HistoryPage{Records: records, Total: total}, nil
}
