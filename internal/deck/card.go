package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	NoSuit Suit = iota - 1
	Spades
	Hearts
	Diamonds
	Clubs
)

// Suits lists the four suits in a stable order
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// String returns the wire name of a suit (e.g. "SPADES")
func (s Suit) String() string {
	switch s {
	case Spades:
		return "SPADES"
	case Hearts:
		return "HEARTS"
	case Diamonds:
		return "DIAMONDS"
	case Clubs:
		return "CLUBS"
	default:
		return "NONE"
	}
}

// Symbol returns the single-glyph form used in logs
func (s Suit) Symbol() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// SameColor returns true if both suits are red or both are black
func (s Suit) SameColor(o Suit) bool {
	return s.IsRed() == o.IsRed()
}

// ParseSuit parses a wire suit name
func ParseSuit(name string) (Suit, error) {
	switch strings.ToUpper(name) {
	case "SPADES":
		return Spades, nil
	case "HEARTS":
		return Hearts, nil
	case "DIAMONDS":
		return Diamonds, nil
	case "CLUBS":
		return Clubs, nil
	default:
		return NoSuit, fmt.Errorf("unknown suit %q", name)
	}
}

// Rank represents a card rank in the 24-card euchre deck
type Rank int

const (
	Nine Rank = iota + 9
	Ten
	Jack
	Queen
	King
	Ace
)

// Ranks lists the six ranks from low to high
var Ranks = []Rank{Nine, Ten, Jack, Queen, King, Ace}

// String returns the wire name of a rank (e.g. "NINE")
func (r Rank) String() string {
	switch r {
	case Nine:
		return "NINE"
	case Ten:
		return "TEN"
	case Jack:
		return "JACK"
	case Queen:
		return "QUEEN"
	case King:
		return "KING"
	case Ace:
		return "ACE"
	default:
		return "?"
	}
}

// ParseRank parses a wire rank name
func ParseRank(name string) (Rank, error) {
	switch strings.ToUpper(name) {
	case "NINE":
		return Nine, nil
	case "TEN":
		return Ten, nil
	case "JACK":
		return Jack, nil
	case "QUEEN":
		return Queen, nil
	case "KING":
		return King, nil
	case "ACE":
		return Ace, nil
	default:
		return 0, fmt.Errorf("unknown rank %q", name)
	}
}

// Card represents a playing card. Equality is by value, which matches
// equality by wire identity since each card appears once in the deck.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// ID returns the wire identity of the card, e.g. "SPADES_JACK"
func (c Card) ID() string {
	return c.Suit.String() + "_" + c.Rank.String()
}

// String returns a short form for logs, e.g. "J♠"
func (c Card) String() string {
	var r string
	switch c.Rank {
	case Nine:
		r = "9"
	case Ten:
		r = "T"
	case Jack:
		r = "J"
	case Queen:
		r = "Q"
	case King:
		r = "K"
	case Ace:
		r = "A"
	default:
		r = "?"
	}
	return r + c.Suit.Symbol()
}

// ParseCard parses a wire card identity of the form "<SUIT>_<RANK>"
func ParseCard(id string) (Card, error) {
	parts := strings.SplitN(id, "_", 2)
	if len(parts) != 2 {
		return Card{}, fmt.Errorf("invalid card id %q", id)
	}
	suit, err := ParseSuit(parts[0])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card id %q: %w", id, err)
	}
	rank, err := ParseRank(parts[1])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card id %q: %w", id, err)
	}
	return Card{Suit: suit, Rank: rank}, nil
}
