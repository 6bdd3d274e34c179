package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"buckeuchre/internal/engine"
	"buckeuchre/internal/game"
)

// Inbound event names
const (
	msgAuth           = "AUTH"
	msgJoinGame       = "JOIN_GAME"
	msgPlaceBid       = "PLACE_BID"
	msgDeclareTrump   = "DECLARE_TRUMP"
	msgFoldDecision   = "FOLD_DECISION"
	msgPlayCard       = "PLAY_CARD"
	msgStartNextRound = "START_NEXT_ROUND"
	msgRequestState   = "REQUEST_STATE"
	msgLeaveGame      = "LEAVE_GAME"
)

// InboundMessage is the union of all client-to-server events. All
// gameplay events carry gameId; unused fields stay empty.
type InboundMessage struct {
	Event     string          `json:"event"`
	Token     string          `json:"token,omitempty"`
	GameID    string          `json:"gameId,omitempty"`
	Amount    json.RawMessage `json:"amount,omitempty"`
	TrumpSuit string          `json:"trumpSuit,omitempty"`
	Folded    *bool           `json:"folded,omitempty"`
	CardID    string          `json:"cardId,omitempty"`
}

// parseBidAmount accepts "PASS" or a bare number
func parseBidAmount(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing bid amount")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.EqualFold(s, "PASS") {
			return engine.BidPass, nil
		}
		return 0, fmt.Errorf("unknown bid amount %q", s)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("bid amount must be PASS or a number")
	}
	return n, nil
}

// OutboundMessage is the wire form of a server-to-client event
type OutboundMessage struct {
	Event              string               `json:"event"`
	GameID             string               `json:"gameId,omitempty"`
	GameState          *game.View           `json:"gameState,omitempty"`
	TrickNumber        *int                 `json:"trickNumber,omitempty"`
	WinnerPosition     *int                 `json:"winnerPosition,omitempty"`
	NextPlayerPosition *int                 `json:"nextPlayerPosition,omitempty"`
	Deltas             map[int]int          `json:"deltas,omitempty"`
	PlayerCount        int                  `json:"playerCount,omitempty"`
	PlayersNeeded      int                  `json:"playersNeeded,omitempty"`
	Message            string               `json:"message,omitempty"`
	Position           *int                 `json:"position,omitempty"`
	PlayerID           string               `json:"playerId,omitempty"`
	DisplayName        string               `json:"displayName,omitempty"`
	Analysis           *game.ActionAnalysis `json:"analysis,omitempty"`
	Code               string               `json:"code,omitempty"`
}

// outboundFromEvent translates an actor event into its wire form
func outboundFromEvent(gameID string, e game.Event) OutboundMessage {
	out := OutboundMessage{Event: string(e.Type), GameID: gameID}
	switch e.Type {
	case game.EventGameState:
		out.GameState = e.State
	case game.EventTrickComplete:
		out.TrickNumber = e.TrickNumber
		out.WinnerPosition = e.TrickWinner
		out.NextPlayerPosition = e.NextPlayerPosition
	case game.EventRoundComplete:
		out.Deltas = e.ScoreDeltas
	case game.EventGameWaiting:
		out.PlayerCount = e.SeatsFilled
		out.PlayersNeeded = engine.NumPlayers - e.SeatsFilled
		out.Message = fmt.Sprintf("waiting for %d more player(s)", out.PlayersNeeded)
	case game.EventPlayerConnected, game.EventPlayerReconnected:
		out.Position = e.PlayerPosition
		out.DisplayName = e.PlayerName
	case game.EventPlayerDisconnected:
		out.Position = e.PlayerPosition
	case game.EventAIAnalysis:
		out.Analysis = e.Analysis
		if e.Analysis != nil {
			out.Position = &e.Analysis.Position
		}
	case game.EventError:
		if e.Error != nil {
			out.Code = string(e.Error.Code)
			out.Message = e.Error.Message
		}
	}
	return out
}

func errMissingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

// errorMessage builds an ERROR event for one recipient
func errorMessage(gameID string, code engine.Code, message string) OutboundMessage {
	return OutboundMessage{
		Event:   string(game.EventError),
		GameID:  gameID,
		Code:    string(code),
		Message: message,
	}
}
