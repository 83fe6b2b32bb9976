package ws

import "encoding/json"

const (
	// client - server
	EventJoin              = "join"
	EventSetProfitCalcList = "setProfitCalcList"
	EventPlayBet           = "playBet"
	EventCancelBet         = "cancelBet"
	EventCashOut           = "cashOut"
	EventCheckMine         = "checkMine"
	EventRefund            = "refund"
	EventGetHistory        = "getHistory"

	// server - client
	EventError = "error"
)

// Message is the envelope for both directions. Replies are addressed as
// "<event>-<playerId>".
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func eventName(event, suffix string) string {
	if suffix == "" {
		return event
	}
	return event + "-" + suffix
}
