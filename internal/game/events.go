package game

import "buckeuchre/internal/engine"

// EventType tags outbound game events
type EventType string

const (
	EventGameState          EventType = "GAME_STATE_UPDATE"
	EventGameWaiting        EventType = "GAME_WAITING"
	EventTrickComplete      EventType = "TRICK_COMPLETE"
	EventRoundComplete      EventType = "ROUND_COMPLETE"
	EventAllPlayersPassed   EventType = "ALL_PLAYERS_PASSED"
	EventPlayerConnected    EventType = "PLAYER_CONNECTED"
	EventPlayerDisconnected EventType = "PLAYER_DISCONNECTED"
	EventPlayerReconnected  EventType = "PLAYER_RECONNECTED"
	EventAIAnalysis         EventType = "AI_ANALYSIS_UPDATE"
	EventError              EventType = "ERROR"
)

// Event is one message on a player's personal outbox. State-bearing
// events carry a view redacted for that recipient.
type Event struct {
	Type               EventType          `json:"type"`
	State              *View              `json:"state,omitempty"`
	TrickNumber        *int               `json:"trickNumber,omitempty"`
	TrickWinner        *int               `json:"trickWinner,omitempty"`
	NextPlayerPosition *int               `json:"nextPlayerPosition,omitempty"`
	ScoreDeltas        map[int]int        `json:"scoreDeltas,omitempty"`
	PlayerPosition     *int               `json:"playerPosition,omitempty"`
	PlayerName         string             `json:"playerName,omitempty"`
	Analysis           *ActionAnalysis    `json:"analysis,omitempty"`
	Error              *ErrorPayload      `json:"error,omitempty"`
	SeatsFilled        int                `json:"seatsFilled,omitempty"`
}

// ErrorPayload is the wire form of a rejected action
type ErrorPayload struct {
	Code    engine.Code `json:"code"`
	Message string      `json:"message"`
}

// ActionStat is the per-action search summary surfaced to humans
type ActionStat struct {
	Action   string  `json:"action"`
	Visits   int     `json:"visits"`
	AvgValue float64 `json:"avgValue"`
	StdErr   float64 `json:"stdErr"`
	CILow    float64 `json:"ciLow"`
	CIHigh   float64 `json:"ciHigh"`
}

// ActionAnalysis carries hint statistics for one decision point
type ActionAnalysis struct {
	Position   int          `json:"position"`
	Version    uint64       `json:"version"`
	Iterations int          `json:"iterations"`
	Actions    []ActionStat `json:"actions"`
	Best       string       `json:"best"`
}

// Subscriber receives a player's events. Delivery must not block the
// caller; connections buffer and drop slow consumers.
type Subscriber interface {
	Deliver(event Event)
}

// SubscriberFunc adapts a function to the Subscriber interface
type SubscriberFunc func(Event)

func (f SubscriberFunc) Deliver(event Event) { f(event) }

func intPtr(v int) *int { return &v }
