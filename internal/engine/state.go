package engine

import (
	"time"

	"buckeuchre/internal/deck"
)

// Game constants for the one supported rule set
const (
	NumPlayers     = 4
	HandSize       = 5
	TricksPerRound = 5
	BlindSize      = 4
	StartingScore  = 52
	MinBid         = 2
	MaxBid         = 5

	// BidPass is the amount recorded for a pass
	BidPass = 0
)

// Phase is the game state machine phase
type Phase string

const (
	PhaseWaitingForPlayers Phase = "WAITING_FOR_PLAYERS"
	PhaseBidding           Phase = "BIDDING"
	PhaseDeclaringTrump    Phase = "DECLARING_TRUMP"
	PhaseFoldingDecision   Phase = "FOLDING_DECISION"
	PhasePlaying           Phase = "PLAYING"
	PhaseRoundOver         Phase = "ROUND_OVER"
	PhaseGameOver          Phase = "GAME_OVER"
)

// FoldDecision is a player's stay/fold choice for the current round
type FoldDecision string

const (
	FoldUndecided FoldDecision = "UNDECIDED"
	FoldStay      FoldDecision = "STAY"
	FoldFold      FoldDecision = "FOLD"
)

// SeatType distinguishes human seats from AI-controlled seats
type SeatType string

const (
	SeatHuman SeatType = "HUMAN"
	SeatAI    SeatType = "AI"
)

// Player is one of the four seats
type Player struct {
	ID           string
	Name         string
	Position     int
	Hand         []deck.Card
	Score        int
	TricksTaken  int
	Connected    bool
	Folded       bool
	FoldDecision FoldDecision
	Type         SeatType
}

// Bid is one bid placed during the bidding phase. Amount is BidPass for
// a pass, otherwise 2..5.
type Bid struct {
	Position int
	Amount   int
}

// Pass reports whether the bid was a pass
func (b Bid) Pass() bool { return b.Amount == BidPass }

// PlayedCard is one card played to a trick
type PlayedCard struct {
	Position int
	Card     deck.Card
}

// Trick is one unit of play: up to four cards, one per non-folded
// player. Winner is -1 until the trick completes.
type Trick struct {
	Number       int
	LeadPosition int
	Plays        []PlayedCard
	Winner       int
}

// LeadSuit returns the effective suit of the first card played, or
// NoSuit for an empty trick
func (t *Trick) LeadSuit(trump deck.Suit) deck.Suit {
	if t == nil || len(t.Plays) == 0 {
		return deck.NoSuit
	}
	return deck.EffectiveSuit(t.Plays[0].Card, trump)
}

// Complete reports whether the trick has its winner determined
func (t *Trick) Complete() bool {
	return t != nil && t.Winner >= 0
}

// GameState is the authoritative aggregate for one game. It is owned by
// exactly one game actor; the rule engine mutates it only through the
// Apply functions, which validate before touching anything and bump
// Version on every accepted mutation.
type GameState struct {
	ID             string
	Phase          Phase
	Round          int
	DealerPosition int
	Players        [NumPlayers]*Player
	Blind          []deck.Card
	TurnUp         deck.Card
	ClubsTurnedUp  bool
	Bids           []Bid
	CurrentBidder  int
	HighestBid     int
	WinningBidder  int
	Trump          deck.Suit
	Tricks         []Trick
	CurrentTrick   *Trick
	CurrentPlayer  int
	Winner         int

	// Discards holds the hands of folded players so that the full
	// 24-card deck remains accounted for mid-round.
	Discards []deck.Card

	Scored    bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   uint64
}

// NewGame creates an empty game waiting for players
func NewGame(id string, now time.Time) *GameState {
	return &GameState{
		ID:             id,
		Phase:          PhaseWaitingForPlayers,
		Round:          0,
		DealerPosition: -1,
		CurrentBidder:  -1,
		WinningBidder:  -1,
		Trump:          deck.NoSuit,
		CurrentPlayer:  -1,
		Winner:         -1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *GameState) touch() {
	s.Version++
}

// SeatCount returns the number of filled seats
func (s *GameState) SeatCount() int {
	n := 0
	for _, p := range s.Players {
		if p != nil {
			n++
		}
	}
	return n
}

// PlayerByID finds a seated player by id
func (s *GameState) PlayerByID(id string) *Player {
	for _, p := range s.Players {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

// AddPlayer seats a player at the next free position. Seating an
// already-seated id is a no-op returning the existing position. The
// caller starts the game once the fourth seat fills.
func (s *GameState) AddPlayer(id, name string, seatType SeatType, src deck.DealSource) (int, error) {
	if existing := s.PlayerByID(id); existing != nil {
		return existing.Position, nil
	}
	if s.Phase != PhaseWaitingForPlayers {
		return -1, &Error{Code: CodeSeatTaken, Message: "game already started"}
	}
	for i, p := range s.Players {
		if p != nil {
			continue
		}
		s.Players[i] = &Player{
			ID:           id,
			Name:         name,
			Position:     i,
			Score:        StartingScore,
			Connected:    seatType == SeatAI,
			FoldDecision: FoldUndecided,
			Type:         seatType,
		}
		s.touch()
		if s.SeatCount() == NumPlayers {
			if err := s.startGame(src); err != nil {
				return -1, err
			}
		}
		return i, nil
	}
	return -1, &Error{Code: CodeSeatTaken, Message: "game is full"}
}

// RemovePlayer frees a seat in a game that has not started. Started
// games never lose seats; disconnection handling covers those.
func (s *GameState) RemovePlayer(pos int) {
	if s.Phase != PhaseWaitingForPlayers || pos < 0 || pos >= NumPlayers {
		return
	}
	if s.Players[pos] == nil {
		return
	}
	s.Players[pos] = nil
	// Compact remaining players down so seats stay contiguous.
	for i := pos; i < NumPlayers-1; i++ {
		s.Players[i] = s.Players[i+1]
		if s.Players[i] != nil {
			s.Players[i].Position = i
		}
	}
	s.Players[NumPlayers-1] = nil
	s.touch()
}

// startGame deals the first round once all four seats are filled
func (s *GameState) startGame(src deck.DealSource) error {
	d := src.NextDeal()
	s.Round = 1
	s.DealerPosition = d.Dealer % NumPlayers
	return s.dealRound(d.Cards)
}

// nextPosition advances clockwise by one seat
func nextPosition(pos int) int {
	return (pos + 1) % NumPlayers
}

// nextActivePosition advances clockwise skipping folded players
func (s *GameState) nextActivePosition(pos int) int {
	next := nextPosition(pos)
	for i := 0; i < NumPlayers; i++ {
		if p := s.Players[next]; p != nil && !p.Folded {
			return next
		}
		next = nextPosition(next)
	}
	return -1
}

// activeCount returns the number of non-folded players
func (s *GameState) activeCount() int {
	n := 0
	for _, p := range s.Players {
		if p != nil && !p.Folded {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the state. The AI engine clones before
// determinizing so searches never touch the actor's copy.
func (s *GameState) Clone() *GameState {
	c := *s
	for i, p := range s.Players {
		if p == nil {
			continue
		}
		cp := *p
		cp.Hand = append([]deck.Card(nil), p.Hand...)
		c.Players[i] = &cp
	}
	c.Blind = append([]deck.Card(nil), s.Blind...)
	c.Bids = append([]Bid(nil), s.Bids...)
	c.Discards = append([]deck.Card(nil), s.Discards...)
	c.Tricks = make([]Trick, len(s.Tricks))
	for i, t := range s.Tricks {
		c.Tricks[i] = t
		c.Tricks[i].Plays = append([]PlayedCard(nil), t.Plays...)
	}
	if s.CurrentTrick != nil {
		ct := *s.CurrentTrick
		ct.Plays = append([]PlayedCard(nil), s.CurrentTrick.Plays...)
		c.CurrentTrick = &ct
	}
	return &c
}

// RoundTricksTaken returns per-seat tricks taken this round
func (s *GameState) RoundTricksTaken() [NumPlayers]int {
	var out [NumPlayers]int
	for i, p := range s.Players {
		if p != nil {
			out[i] = p.TricksTaken
		}
	}
	return out
}
