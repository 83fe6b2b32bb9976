package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mines_wager/internal/domain"
	"mines_wager/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrPlatformUnreachable covers transport failures, timeouts and 5xx
	ErrPlatformUnreachable = errors.New("settlement platform unreachable")
	// ErrPlatformRejected is a business-level denial from the platform
	ErrPlatformRejected = errors.New("settlement platform rejected request")
)

const (
	endpointIdentity = "/identity"
	endpointBalance  = "/balance"
	endpointOrders   = "/orders"
	endpointRefund   = "/refund"

	correlationHeader = "X-Correlation-ID"
)

// Identity is the platform's view of a player
type Identity struct {
	PlayerID    string          `json:"player_id"`
	DisplayName string          `json:"name"`
	AvatarRef   string          `json:"avatar"`
	Balance     decimal.Decimal `json:"balance"`
}

// Client talks to the external settlement platform over HTTP JSON
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	newID      func() string
}

// NewClient creates a settlement client; timeout bounds every call
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		newID: func() string { return uuid.NewString() },
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ResolveIdentity looks up the player behind a platform auth token
func (c *Client) ResolveIdentity(ctx context.Context, authToken string) (*Identity, error) {
	var id Identity
	body := map[string]any{"token": authToken}
	if err := c.call(ctx, endpointIdentity, body, &id); err != nil {
		return nil, err
	}
	if id.PlayerID == "" {
		return nil, fmt.Errorf("%w: identity without player id", ErrPlatformRejected)
	}
	return &id, nil
}

// FetchBalance returns the platform-side balance of a player
func (c *Client) FetchBalance(ctx context.Context, playerID, authToken string) (decimal.Decimal, error) {
	var out struct {
		Balance decimal.Decimal `json:"balance"`
	}
	body := map[string]any{"player_id": playerID, "token": authToken}
	if err := c.call(ctx, endpointBalance, body, &out); err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}

// ReportOrder reports one settled wager. The report's correlation id is
// reused so that redelivery from the outbox is recognisable downstream.
func (c *Client) ReportOrder(ctx context.Context, report domain.OrderReport) error {
	body := map[string]any{
		"player_id":  report.PlayerID,
		"token":      report.SettlementToken,
		"bet_amount": report.BetAmount,
		"won_amount": report.WonAmount,
		"odds":       report.Odds,
		"status":     report.Status,
		"timestamp":  report.Timestamp.Unix(),
	}
	return c.callWithID(ctx, report.CorrelationID, endpointOrders, body, nil)
}

// Refund pushes the player's working balance back to the platform
func (c *Client) Refund(ctx context.Context, playerID, authToken string, balance decimal.Decimal) error {
	body := map[string]any{
		"player_id": playerID,
		"token":     authToken,
		"balance":   balance,
	}
	return c.call(ctx, endpointRefund, body, nil)
}

func (c *Client) call(ctx context.Context, endpoint string, body map[string]any, out any) error {
	return c.callWithID(ctx, "", endpoint, body, out)
}

func (c *Client) callWithID(ctx context.Context, correlationID, endpoint string, body map[string]any, out any) error {
	if correlationID == "" {
		correlationID = c.newID()
	}
	body["correlation_id"] = correlationID

	err := c.do(ctx, correlationID, endpoint, body, out)
	metrics.SettlementCalls.WithLabelValues(strings.TrimPrefix(endpoint, "/"), resultLabel(err)).Inc()
	return err
}

func (c *Client) do(ctx context.Context, correlationID, endpoint string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(correlationHeader, correlationID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %v", ErrPlatformUnreachable, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %s read body: %v", ErrPlatformUnreachable, endpoint, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s %s", ErrPlatformUnreachable, endpoint, resp.Status)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: %s %s", ErrPlatformRejected, endpoint, resp.Status)
		}
		return fmt.Errorf("%w: %s malformed response: %v", ErrPlatformUnreachable, endpoint, err)
	}

	if resp.StatusCode != http.StatusOK || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("%w: %s %s", ErrPlatformRejected, endpoint, msg)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: %s decode data: %v", ErrPlatformUnreachable, endpoint, err)
		}
	}
	return nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrPlatformRejected):
		return "rejected"
	default:
		return "unreachable"
	}
}
