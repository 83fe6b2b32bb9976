package integration

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mines_wager/internal/config"
	"mines_wager/internal/domain"
	"mines_wager/internal/game"
	httpserver "mines_wager/internal/http"
	"mines_wager/internal/http/handlers"
	"mines_wager/internal/logger"
	"mines_wager/internal/repository"
	"mines_wager/internal/service"
	"mines_wager/internal/settlement"
	"mines_wager/internal/ws"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const e2eSeed = 11

// platform is a fake settlement service
type platform struct {
	mu       sync.Mutex
	balance  decimal.Decimal
	orders   []map[string]any
	refunded []decimal.Decimal
}

func (p *platform) handler(playerID string) http.Handler {
	reply := func(w http.ResponseWriter, data any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/identity", func(w http.ResponseWriter, _ *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		reply(w, map[string]any{"player_id": playerID, "name": "e2e", "balance": p.balance})
	})
	mux.HandleFunc("/balance", func(w http.ResponseWriter, _ *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		reply(w, map[string]any{"balance": p.balance})
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.orders = append(p.orders, body)
		p.mu.Unlock()
		reply(w, nil)
	})
	mux.HandleFunc("/refund", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Balance decimal.Decimal `json:"balance"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.mu.Lock()
		p.refunded = append(p.refunded, body.Balance)
		p.mu.Unlock()
		reply(w, nil)
	})
	return mux
}

func (p *platform) snapshot() (orders int, refunded []decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.orders), append([]decimal.Decimal(nil), p.refunded...)
}

func wsSend(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ws.Message{Type: event, Payload: b}))
}

func wsExpect(t *testing.T, conn *websocket.Conn, want string, out any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg ws.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			if out != nil {
				require.NoError(t, json.Unmarshal(msg.Payload, out))
			}
			return
		}
		if strings.HasPrefix(msg.Type, ws.EventError) {
			t.Fatalf("got %s while waiting for %s: %s", msg.Type, want, msg.Payload)
		}
	}
}

func TestE2E_LinkedRoundOverPostgres(t *testing.T) {
	db := connect(t)
	gin.SetMode(gin.TestMode)

	playerID := "e2e-" + uuid.NewString()
	plat := &platform{balance: decimal.NewFromInt(500)}
	platSrv := httptest.NewServer(plat.handler(playerID))
	t.Cleanup(platSrv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	players := repository.NewPlayerRepository(db)
	gateway := settlement.NewClient(platSrv.URL, "key", 2*time.Second)
	outbox := repository.NewRedisOutbox(rdb, "e2e:"+playerID)
	tokens := service.NewGuestTokens("test-secret")

	engine := service.NewEngine(service.Deps{
		Players: players,
		History: repository.NewHistoryRepository(db),
		Gateway: gateway,
		Outbox:  outbox,
		Tokens:  tokens,
		Log:     logger.Nop(),
	}, service.Options{
		GuestStartBalance: decimal.NewFromInt(1000),
		MinBet:            decimal.RequireFromString("0.1"),
		MaxBet:            decimal.NewFromInt(10000),
		Rand:              rand.New(rand.NewPCG(e2eSeed, e2eSeed)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	dispatcher := service.NewReportDispatcher(outbox, gateway, service.DispatcherConfig{
		Workers: 1, MaxAttempts: 3, RetryDelay: 10 * time.Millisecond,
	}, logger.Nop())
	go func() { _ = dispatcher.Run(ctx) }()

	hub := ws.NewHub(engine, logger.Nop())
	r := gin.New()
	httpserver.RegisterRoutes(r, &config.Config{APIRateLimit: 100, APIRateWindow: time.Minute}, httpserver.Deps{
		Engine: engine,
		Hub:    hub,
		Tokens: tokens,
		Health: handlers.NewHealthHandler("test"),
		Redis:  rdb,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)

	wsSend(t, conn, ws.EventJoin, ws.JoinPayload{AuthToken: "platform-token"})
	var joined ws.JoinReply
	wsExpect(t, conn, ws.EventJoin+"-platform-token", &joined)
	require.Equal(t, playerID, joined.Session.PlayerID)
	require.True(t, joined.Session.Balance.Equal(decimal.NewFromInt(500)))

	grid, err := game.GenerateGrid(rand.New(rand.NewPCG(e2eSeed, e2eSeed)), 5, 5)
	require.NoError(t, err)
	safe := -1
	for idx, mine := range grid.Cells {
		if !mine {
			safe = idx
			break
		}
	}

	wsSend(t, conn, ws.EventPlayBet, ws.PlayBetPayload{PlayerID: playerID, BetAmount: decimal.NewFromInt(100), GridSize: 5, MineCount: 5})
	wsExpect(t, conn, ws.EventPlayBet+"-"+playerID, nil)

	wsSend(t, conn, ws.EventCheckMine, ws.CheckMinePayload{PlayerID: playerID, Order: safe})
	var reveal ws.CheckMineReply
	wsExpect(t, conn, ws.EventCheckMine+"-"+playerID, &reveal)
	require.False(t, reveal.Mine)

	wsSend(t, conn, ws.EventCashOut, ws.CashOutPayload{PlayerID: playerID, BetAmount: decimal.NewFromInt(100)})
	var out ws.CashOutReply
	wsExpect(t, conn, ws.EventCashOut+"-"+playerID, &out)
	assert.True(t, out.Balance.Equal(decimal.NewFromInt(519)), out.Balance.String())

	stored, err := players.Get(context.Background(), playerID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(519)))

	require.Eventually(t, func() bool {
		orders, _ := plat.snapshot()
		return orders == 1
	}, 3*time.Second, 20*time.Millisecond)

	resp, err := http.Get(srv.URL + "/api/v1/history?scope=all&page_size=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page service.HistoryPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.NotEmpty(t, page.Records)
	assert.Equal(t, playerID, page.Records[0].PlayerID)
	assert.Equal(t, domain.OutcomeCashedOut, page.Records[0].Outcome)
	assert.True(t, page.Records[0].ProfitAmount.Equal(decimal.NewFromInt(19)))

	// closing the connection refunds the working balance
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		_, refunded := plat.snapshot()
		return len(refunded) == 1 && refunded[0].Equal(decimal.NewFromInt(519))
	}, 3*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		p, err := players.Get(context.Background(), playerID)
		return err == nil && p.Balance.IsZero() && engine.Registry().Len() == 0
	}, 3*time.Second, 20*time.Millisecond)
}
