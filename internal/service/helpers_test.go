package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"mines_wager/internal/domain"
	"mines_wager/internal/game"
	"mines_wager/internal/logger"
	"mines_wager/internal/repository/memory"
	"mines_wager/internal/settlement"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSeed = 42

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeGateway records every platform call
type fakeGateway struct {
	mu sync.Mutex

	balances    map[string]decimal.Decimal
	identityErr error
	fetchErr    error
	refundErr   error
	reportErr   error

	identityCalls int
	fetchCalls    int
	refundCalls   int
	refunded      []decimal.Decimal
	reports       []domain.OrderReport
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{balances: make(map[string]decimal.Decimal)}
}

func (g *fakeGateway) ResolveIdentity(_ context.Context, authToken string) (*settlement.Identity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.identityCalls++
	if g.identityErr != nil {
		return nil, g.identityErr
	}
	return &settlement.Identity{
		PlayerID:    "player-" + authToken,
		DisplayName: "name-" + authToken,
		Balance:     g.balances["player-"+authToken],
	}, nil
}

func (g *fakeGateway) FetchBalance(_ context.Context, playerID, _ string) (decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchCalls++
	if g.fetchErr != nil {
		return decimal.Zero, g.fetchErr
	}
	return g.balances[playerID], nil
}

func (g *fakeGateway) Refund(_ context.Context, _, _ string, balance decimal.Decimal) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundCalls++
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunded = append(g.refunded, balance)
	return nil
}

func (g *fakeGateway) ReportOrder(_ context.Context, report domain.OrderReport) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reportErr != nil {
		return g.reportErr
	}
	g.reports = append(g.reports, report)
	return nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identityCalls + g.fetchCalls + g.refundCalls
}

func (g *fakeGateway) setRefundErr(err error) {
	g.mu.Lock()
	g.refundErr = err
	g.mu.Unlock()
}

// failingPlayers wraps a store and fails balance writes on demand
type failingPlayers struct {
	*memory.PlayerStore
	mu     sync.Mutex
	fail   bool
	writes int
	failAt int
}

func (f *failingPlayers) UpdateBalance(ctx context.Context, playerID string, balance decimal.Decimal) error {
	f.mu.Lock()
	f.writes++
	fail := f.fail || f.writes == f.failAt
	f.mu.Unlock()
	if fail {
		return errors.New("store down")
	}
	return f.PlayerStore.UpdateBalance(ctx, playerID, balance)
}

// failNth fails only the n-th balance write from now on
func (f *failingPlayers) failNth(n int) {
	f.mu.Lock()
	f.writes = 0
	f.failAt = n
	f.mu.Unlock()
}

func (f *failingPlayers) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

type testEnv struct {
	engine  *Engine
	gateway *fakeGateway
	players *failingPlayers
	history *memory.HistoryStore
	outbox  *MemoryOutbox
}

func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()

	env := &testEnv{
		gateway: newFakeGateway(),
		players: &failingPlayers{PlayerStore: memory.NewPlayerStore()},
		history: memory.NewHistoryStore(),
		outbox:  NewMemoryOutbox(64),
	}
	opts := Options{
		GuestStartBalance: dec("1000"),
		MinBet:            dec("0.1"),
		MaxBet:            dec("100000"),
		Rand:              rand.New(rand.NewPCG(testSeed, testSeed)),
	}
	for _, m := range mutate {
		m(&opts)
	}

	env.engine = NewEngine(Deps{
		Players: env.players,
		History: env.history,
		Gateway: env.gateway,
		Outbox:  env.outbox,
		Tokens:  NewGuestTokens("test-secret"),
		Log:     logger.Nop(),
	}, opts)
	return env
}

func (env *testEnv) joinGuest(t *testing.T) *JoinResult {
	t.Helper()
	res, err := env.engine.Join(context.Background(), JoinRequest{ConnectionID: "conn-guest"})
	require.NoError(t, err)
	return res
}

func (env *testEnv) joinLinked(t *testing.T, token string, balance decimal.Decimal) *JoinResult {
	t.Helper()
	env.gateway.mu.Lock()
	env.gateway.balances["player-"+token] = balance
	env.gateway.mu.Unlock()

	res, err := env.engine.Join(context.Background(), JoinRequest{AuthToken: token, ConnectionID: "conn-" + token})
	require.NoError(t, err)
	return res
}

// wager returns a copy of the player's active wager
func (env *testEnv) wager(t *testing.T, playerID string) *domain.Wager {
	t.Helper()
	h, err := env.engine.registry.Lock(playerID)
	require.NoError(t, err)
	defer h.Unlock()

	w := h.Session().Wager
	if w == nil {
		return nil
	}
	cp := *w
	return &cp
}

func (env *testEnv) session(t *testing.T, playerID string) domain.Session {
	t.Helper()
	h, err := env.engine.registry.Lock(playerID)
	require.NoError(t, err)
	defer h.Unlock()
	return *h.Session()
}

func safeCells(w *domain.Wager) []int {
	var out []int
	for i, mine := range w.Cells {
		if !mine {
			out = append(out, i)
		}
	}
	return out
}

// predictGrid replays the engine's first draw for a fresh test env
func predictGrid(t *testing.T, size, mines int) *game.Grid {
	t.Helper()
	g, err := game.GenerateGrid(rand.New(rand.NewPCG(testSeed, testSeed)), size, mines)
	require.NoError(t, err)
	return g
}
