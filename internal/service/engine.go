package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"mines_wager/internal/domain"
	"mines_wager/internal/game"
	"mines_wager/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deps are the collaborators of the Engine. Gateway and Outbox may be nil
// when platform linking is disabled.
type Deps struct {
	Registry *Registry
	Players  PlayerStore
	History  HistoryStore
	Gateway  Gateway
	Outbox   Outbox
	Tokens   *GuestTokens
	Log      *slog.Logger
}

type Options struct {
	GuestStartBalance decimal.Decimal
	MinBet            decimal.Decimal
	MaxBet            decimal.Decimal
	SessionIdleTTL    time.Duration

	// Rand overrides the grid randomness source, for tests
	Rand *rand.Rand
}

// Engine drives the per-player wager state machine
type Engine struct {
	registry *Registry
	ledger   *Ledger
	players  PlayerStore
	history  HistoryStore
	gateway  Gateway
	outbox   Outbox
	tokens   *GuestTokens
	log      *slog.Logger
	opts     Options

	rngMu sync.Mutex
	rng   *rand.Rand

	now func() time.Time
}

func NewEngine(deps Deps, opts Options) *Engine {
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	rng := opts.Rand
	if rng == nil {
		rng = game.NewSeededRand()
	}
	return &Engine{
		registry: deps.Registry,
		ledger:   NewLedger(deps.Players, deps.Log),
		players:  deps.Players,
		history:  deps.History,
		gateway:  deps.Gateway,
		outbox:   deps.Outbox,
		tokens:   deps.Tokens,
		log:      deps.Log,
		opts:     opts,
		rng:      rng,
		now:      time.Now,
	}
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) generateGrid(size, mines int) (*game.Grid, error) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return game.GenerateGrid(e.rng, size, mines)
}

// record stores the settled wager; the round is already final so a store
// failure is only logged
func (e *Engine) record(ctx context.Context, s *domain.Session, w *domain.Wager, multiplier decimal.Decimal, outcome domain.WagerOutcome) {
	payout := w.Amount.Mul(multiplier)
	rec := &domain.HistoryRecord{
		PlayerID:     s.PlayerID,
		BetAmount:    w.Amount,
		Multiplier:   multiplier,
		ProfitAmount: payout.Sub(w.Amount),
		GridSize:     w.GridSize,
		MineCount:    w.MineCount,
		Outcome:      outcome,
		CreatedAt:    e.now(),
	}
	metrics.WagersSettled.WithLabelValues(string(outcome)).Inc()

	if e.history == nil {
		return
	}
	if err := e.history.Create(ctx, rec); err != nil {
		e.log.Error("history write failed",
			"player_id", s.PlayerID,
			"outcome", outcome,
			"bet", w.Amount.String(),
			"error", err,
		)
	}
}

// report queues the settled order for the platform; never blocks the round
func (e *Engine) report(ctx context.Context, s *domain.Session, w *domain.Wager, multiplier decimal.Decimal, status domain.OrderStatus) {
	if !s.PlatformLinked || e.outbox == nil {
		return
	}

	order := domain.OrderReport{
		CorrelationID:   uuid.NewString(),
		PlayerID:        s.PlayerID,
		SettlementToken: s.SettlementToken,
		BetAmount:       w.Amount,
		WonAmount:       w.Amount.Mul(multiplier),
		Odds:            multiplier,
		Status:          status,
		Timestamp:       e.now(),
	}
	if err := e.outbox.Enqueue(ctx, order); err != nil {
		e.log.Error("order report enqueue failed",
			"player_id", s.PlayerID,
			"correlation_id", order.CorrelationID,
			"error", err,
		)
	}
}

func (e *Engine) touch(s *domain.Session) {
	s.UpdatedAt = e.now()
}
