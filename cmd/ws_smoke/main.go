package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"mines_wager/internal/logger"
	"mines_wager/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// ws_smoke plays one guest round against a running server: join, bet,
// reveal one cell, then cash out if it was safe.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	addr := flag.String("addr", "127.0.0.1:"+port, "server host:port")
	cell := flag.Int("cell", 12, "cell to reveal")
	flag.Parse()

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", *addr), nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	send(conn, ws.EventJoin, ws.JoinPayload{})
	var joined ws.JoinReply
	read(conn, ws.EventJoin+"-", &joined)
	id := joined.Session.PlayerID
	logger.Info("joined", "player_id", id, "balance", joined.Session.Balance.String())

	bet := decimal.NewFromInt(10)
	send(conn, ws.EventPlayBet, ws.PlayBetPayload{PlayerID: id, BetAmount: bet, GridSize: 5, MineCount: 3})
	var placed ws.PlayBetReply
	read(conn, ws.EventPlayBet+"-"+id, &placed)
	logger.Info("bet placed", "balance", placed.Balance.String())

	send(conn, ws.EventCheckMine, ws.CheckMinePayload{PlayerID: id, Order: *cell})
	var res ws.CheckMineReply
	read(conn, ws.EventCheckMine+"-"+id, &res)
	if res.Mine {
		logger.Info("busted", "index", *cell, "mines", res.MinePlacement, "balance", res.Balance.String())
		return
	}
	logger.Info("safe", "index", *cell, "multiplier", res.Multiplier.String())

	send(conn, ws.EventCashOut, ws.CashOutPayload{PlayerID: id, BetAmount: bet})
	var out ws.CashOutReply
	read(conn, ws.EventCashOut+"-"+id, &out)
	logger.Info("smoke test finished", "balance", out.Balance.String(), "payout", out.Payout.String())
}

func send(conn *websocket.Conn, event string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		logger.Fatal("encode payload", "error", err)
	}
	if err := conn.WriteJSON(ws.Message{Type: event, Payload: b}); err != nil {
		logger.Fatal("write", "event", event, "error", err)
	}
}

// read skips unrelated events until one starting with prefix arrives
func read(conn *websocket.Conn, prefix string, out any) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Fatal("read", "waiting_for", prefix, "error", err)
		}
		if strings.HasPrefix(msg.Type, ws.EventError) {
			logger.Fatal("server error", "event", msg.Type, "payload", string(msg.Payload))
		}
		if strings.HasPrefix(msg.Type, prefix) {
			if err := json.Unmarshal(msg.Payload, out); err != nil {
				logger.Fatal("decode reply", "event", msg.Type, "error", err)
			}
			return
		}
	}
}
