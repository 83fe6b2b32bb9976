package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mines_wager/internal/domain"
	"mines_wager/internal/http/middleware"
	"mines_wager/internal/logger"
	"mines_wager/internal/repository/memory"
	"mines_wager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, *memory.HistoryStore, *service.GuestTokens) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	history := memory.NewHistoryStore()
	tokens := service.NewGuestTokens("test-secret")
	engine := service.NewEngine(service.Deps{
		Players: memory.NewPlayerStore(),
		History: history,
		Tokens:  tokens,
		Log:     logger.Nop(),
	}, service.Options{
		GuestStartBalance: decimal.NewFromInt(1000),
		MinBet:            decimal.RequireFromString("0.1"),
		MaxBet:            decimal.NewFromInt(10000),
	})

	h := NewHandler(engine)
	r := gin.New()
	v1 := r.Group("/api/v1", middleware.OptionalAuth(tokens))
	v1.GET("/history", h.GetHistory)
	v1.GET("/multipliers", h.Multipliers)
	return r, history, tokens
}

func get(r http.Handler, url, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedHistory(t *testing.T, store *memory.HistoryStore, playerID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.Create(context.Background(), &domain.HistoryRecord{
			PlayerID:   playerID,
			BetAmount:  decimal.NewFromInt(int64(10 + i)),
			Multiplier: decimal.RequireFromString("1.19"),
			GridSize:   5,
			MineCount:  5,
			Outcome:    domain.OutcomeCashedOut,
		}))
	}
}

func TestGetHistory_ByToken(t *testing.T) {
	r, store, tokens := setup(t)
	seedHistory(t, store, "alice", 3)
	seedHistory(t, store, "bob", 2)

	token, err := tokens.Issue("alice")
	require.NoError(t, err)

	w := get(r, "/api/v1/history?page_size=2", token)
	require.Equal(t, http.StatusOK, w.Code)

	var page service.HistoryPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "alice", page.Records[0].PlayerID)
	assert.True(t, page.Records[0].BetAmount.Equal(decimal.NewFromInt(12)))
}

func TestGetHistory_AnonymousScopes(t *testing.T) {
	r, store, _ := setup(t)
	seedHistory(t, store, "alice", 1)
	seedHistory(t, store, "bob", 2)

	// a query parameter does not stand in for a token
	w := get(r, "/api/v1/history?player_id=bob", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = get(r, "/api/v1/history?scope=mine&player_id=bob", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var page service.HistoryPage
	w = get(r, "/api/v1/history?scope=all&player_id=bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
}

func TestGetHistory_Errors(t *testing.T) {
	r, _, _ := setup(t)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/history", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/v1/history?scope=friends", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/v1/history?page=abc&scope=all", "").Code)
}

func TestMultipliers(t *testing.T) {
	r, _, _ := setup(t)

	w := get(r, "/api/v1/multipliers?grid=5&mines=3", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ProfitMultipliers []decimal.Decimal `json:"profitMultipliers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.ProfitMultipliers, 22)
	assert.True(t, body.ProfitMultipliers[0].Equal(decimal.RequireFromString("1.08")))
	assert.True(t, body.ProfitMultipliers[3].Equal(decimal.RequireFromString("1.63")))

	assert.Equal(t, http.StatusBadRequest, get(r, "/api/v1/multipliers?grid=5&mines=25", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/v1/multipliers?grid=5", "").Code)
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler("test")
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/readyz", h.Readiness)
	r.GET("/healthz", h.Liveness)

	assert.Equal(t, http.StatusOK, get(r, "/health", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/readyz", "").Code)

	h.AddCheck("database", func(context.Context) error { return errors.New("down") })
	w := get(r, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database unavailable")

	w = get(r, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy: down")

	assert.Equal(t, http.StatusOK, get(r, "/healthz", "").Code)
}
