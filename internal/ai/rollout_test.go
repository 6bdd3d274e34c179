package ai

import (
	rand "math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buckeuchre/internal/deck"
	"buckeuchre/internal/engine"
)

func TestRolloutStopsAtAllPassRedeal(t *testing.T) {
	// All four bowers sit in the blind and every hand tops out below
	// bidding strength, so the policy passes around the table.
	hands := [][]string{
		0: {"SPADES_ACE", "HEARTS_KING", "DIAMONDS_QUEEN", "CLUBS_TEN", "CLUBS_NINE"},
		1: {"HEARTS_ACE", "SPADES_KING", "CLUBS_QUEEN", "DIAMONDS_TEN", "DIAMONDS_NINE"},
		2: {"DIAMONDS_ACE", "CLUBS_KING", "SPADES_QUEEN", "HEARTS_TEN", "HEARTS_NINE"},
		3: {"CLUBS_ACE", "DIAMONDS_KING", "HEARTS_QUEEN", "SPADES_TEN", "SPADES_NINE"},
	}
	blind := []string{"SPADES_JACK", "HEARTS_JACK", "DIAMONDS_JACK", "CLUBS_JACK"}

	dealer := 0
	cards := make([]deck.Card, deck.Size)
	for pass := 0; pass < engine.HandSize; pass++ {
		for i := 0; i < engine.NumPlayers; i++ {
			seat := (dealer + 1 + i) % engine.NumPlayers
			cards[pass*engine.NumPlayers+i] = mustCard(t, hands[seat][pass])
		}
	}
	for i, id := range blind {
		cards[engine.HandSize*engine.NumPlayers+i] = mustCard(t, id)
	}
	src := deck.NewFixedDealSource(deck.NewSeededDealSource(2))
	src.PinDeck(cards)
	src.PinDealer(&dealer)

	s := engine.NewGame("rollout-test", time.Unix(1700000000, 0))
	for _, name := range []string{"p0", "p1", "p2", "p3"} {
		_, err := s.AddPlayer(name, name, engine.SeatAI, src)
		require.NoError(t, err)
	}
	require.Equal(t, engine.PhaseBidding, s.Phase)

	rng := rand.New(rand.NewPCG(3, 0))
	values := rollout(s, rng, Character{Aggressiveness: 1, Risk: 1}, src)

	// The simulation stops at the redeal instead of playing out a hand
	// the search never asked about.
	require.Equal(t, 2, s.Round)
	for pos, v := range values {
		require.Equal(t, 0.5, v, "seat %d: a redealt hand carries no signal", pos)
	}
}
