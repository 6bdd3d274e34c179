package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buckeuchre/internal/deck"
)

// buildDeck lays out a 24-card deck so that dealing with the given
// dealer produces exactly the wanted hands and blind. blind[0] becomes
// the turn-up.
func buildDeck(t *testing.T, dealer int, hands [4][]deck.Card, blind []deck.Card) []deck.Card {
	t.Helper()
	require.Len(t, blind, BlindSize)
	cards := make([]deck.Card, deck.Size)
	for pass := 0; pass < HandSize; pass++ {
		for i := 0; i < NumPlayers; i++ {
			seat := (dealer + 1 + i) % NumPlayers
			require.Len(t, hands[seat], HandSize, "seat %d hand", seat)
			cards[pass*NumPlayers+i] = hands[seat][pass]
		}
	}
	copy(cards[HandSize*NumPlayers:], blind)
	return cards
}

// handOf parses card ids into a hand
func handOf(t *testing.T, ids ...string) []deck.Card {
	t.Helper()
	cards := make([]deck.Card, len(ids))
	for i, id := range ids {
		c, err := deck.ParseCard(id)
		require.NoError(t, err)
		cards[i] = c
	}
	return cards
}

func card(t *testing.T, id string) deck.Card {
	t.Helper()
	c, err := deck.ParseCard(id)
	require.NoError(t, err)
	return c
}

// pinnedSource returns a deal source that deals the given deck first
// with the given dealer, then falls back to a seeded shuffle
func pinnedSource(dealer int, cards []deck.Card) *deck.FixedDealSource {
	src := deck.NewFixedDealSource(deck.NewSeededDealSource(1))
	src.PinDeck(cards)
	src.PinDealer(&dealer)
	return src
}

// newTestGame seats four players over the given source and returns the
// started game
func newTestGame(t *testing.T, src deck.DealSource) *GameState {
	t.Helper()
	s := NewGame("test-game", time.Unix(1700000000, 0))
	names := []string{"alice", "bob", "carol", "dave"}
	for i, name := range names {
		_, err := s.AddPlayer(name, name, SeatHuman, src)
		require.NoError(t, err, "seating %s", name)
		_ = i
	}
	return s
}

// standardHands deals a deterministic non-dirty layout: hearts ace
// turn-up, seat 1 loaded with hearts trump
func standardHands(t *testing.T) ([4][]deck.Card, []deck.Card) {
	t.Helper()
	hands := [4][]deck.Card{
		0: handOf(t, "SPADES_ACE", "SPADES_KING", "SPADES_QUEEN", "SPADES_TEN", "SPADES_NINE"),
		1: handOf(t, "SPADES_JACK", "HEARTS_JACK", "HEARTS_KING", "HEARTS_QUEEN", "HEARTS_TEN"),
		2: handOf(t, "DIAMONDS_ACE", "DIAMONDS_KING", "DIAMONDS_QUEEN", "DIAMONDS_JACK", "DIAMONDS_TEN"),
		3: handOf(t, "CLUBS_ACE", "CLUBS_KING", "CLUBS_QUEEN", "CLUBS_JACK", "CLUBS_TEN"),
	}
	blind := handOf(t, "HEARTS_ACE", "HEARTS_NINE", "DIAMONDS_NINE", "CLUBS_NINE")
	return hands, blind
}

// conservedCards collects every card the state accounts for
func conservedCards(s *GameState) []deck.Card {
	var cards []deck.Card
	for _, p := range s.Players {
		if p != nil {
			cards = append(cards, p.Hand...)
		}
	}
	for _, trick := range s.Tricks {
		for _, pc := range trick.Plays {
			cards = append(cards, pc.Card)
		}
	}
	if s.CurrentTrick != nil && !s.CurrentTrick.Complete() {
		for _, pc := range s.CurrentTrick.Plays {
			cards = append(cards, pc.Card)
		}
	}
	cards = append(cards, s.Blind...)
	cards = append(cards, s.Discards...)
	return cards
}

// requireConserved asserts that the state accounts for the full deck
// exactly once
func requireConserved(t *testing.T, s *GameState) {
	t.Helper()
	cards := conservedCards(s)
	require.Len(t, cards, deck.Size)
	seen := make(map[deck.Card]bool, deck.Size)
	for _, c := range cards {
		require.False(t, seen[c], "card %s appears twice", c.ID())
		seen[c] = true
	}
}

func TestAutoStartOnFourthSeat(t *testing.T) {
	hands, blind := standardHands(t)
	src := pinnedSource(0, buildDeck(t, 0, hands, blind))

	s := NewGame("g", time.Now())
	require.Equal(t, PhaseWaitingForPlayers, s.Phase)

	for i, name := range []string{"a", "b", "c"} {
		pos, err := s.AddPlayer(name, name, SeatHuman, src)
		require.NoError(t, err)
		require.Equal(t, i, pos)
		require.Equal(t, PhaseWaitingForPlayers, s.Phase)
	}

	_, err := s.AddPlayer("d", "d", SeatHuman, src)
	require.NoError(t, err)
	require.Equal(t, PhaseBidding, s.Phase)
	require.Equal(t, 1, s.Round)
	require.Equal(t, 0, s.DealerPosition)
	require.Equal(t, 1, s.CurrentBidder)
	require.Equal(t, card(t, "HEARTS_ACE"), s.TurnUp)
	requireConserved(t, s)
}

func TestAddPlayerIdempotent(t *testing.T) {
	src := deck.NewSeededDealSource(7)
	s := NewGame("g", time.Now())
	pos, err := s.AddPlayer("a", "a", SeatHuman, src)
	require.NoError(t, err)
	again, err := s.AddPlayer("a", "a", SeatHuman, src)
	require.NoError(t, err)
	require.Equal(t, pos, again)
	require.Equal(t, 1, s.SeatCount())
}

func TestAddPlayerFullGame(t *testing.T) {
	hands, blind := standardHands(t)
	src := pinnedSource(0, buildDeck(t, 0, hands, blind))
	s := newTestGame(t, src)

	_, err := s.AddPlayer("edith", "edith", SeatHuman, src)
	require.Error(t, err)
	require.Equal(t, CodeSeatTaken, CodeOf(err))
}

func TestDirtyClubsSkipsBidding(t *testing.T) {
	hands, _ := standardHands(t)
	// Swap seat 3's clubs for seat 2's diamonds so the blind can turn
	// up a club.
	hands[3] = handOf(t, "DIAMONDS_ACE", "DIAMONDS_KING", "DIAMONDS_QUEEN", "DIAMONDS_JACK", "DIAMONDS_TEN")
	hands[2] = handOf(t, "CLUBS_KING", "CLUBS_QUEEN", "CLUBS_JACK", "CLUBS_TEN", "CLUBS_NINE")
	blind := handOf(t, "CLUBS_ACE", "HEARTS_ACE", "HEARTS_NINE", "DIAMONDS_NINE")

	src := pinnedSource(2, buildDeck(t, 2, hands, blind))
	s := newTestGame(t, src)

	require.Equal(t, PhasePlaying, s.Phase)
	require.Equal(t, deck.Clubs, s.Trump)
	require.True(t, s.ClubsTurnedUp)
	require.Empty(t, s.Bids)
	require.Equal(t, 3, s.WinningBidder, "seat left of dealer owns the contract")
	require.Equal(t, 3, s.CurrentPlayer)
	require.Equal(t, MinBid, s.HighestBid)
	for _, p := range s.Players {
		require.Equal(t, FoldStay, p.FoldDecision)
	}
	requireConserved(t, s)
}

func TestAllPassRedeal(t *testing.T) {
	hands, blind := standardHands(t)
	src := pinnedSource(0, buildDeck(t, 0, hands, blind))
	// Queue a second non-dirty deck for the redeal.
	src.PinDeck(buildDeck(t, 1, hands, blind))
	s := newTestGame(t, src)

	require.Equal(t, 1, s.Round)
	for _, pos := range []int{1, 2, 3, 0} {
		require.NoError(t, s.ApplyBid(pos, BidPass, src))
	}

	require.Equal(t, PhaseBidding, s.Phase)
	require.Equal(t, 2, s.Round)
	require.Equal(t, 1, s.DealerPosition, "dealer advances on redeal")
	require.Equal(t, 2, s.CurrentBidder)
	require.Empty(t, s.Bids)
	requireConserved(t, s)
}

func TestBiddingValidation(t *testing.T) {
	hands, blind := standardHands(t)
	src := pinnedSource(0, buildDeck(t, 0, hands, blind))
	s := newTestGame(t, src)

	// Out of turn.
	err := s.ApplyBid(2, 3, src)
	require.Equal(t, CodeNotYourTurn, CodeOf(err))

	require.NoError(t, s.ApplyBid(1, 3, src))
	require.Equal(t, 3, s.HighestBid)
	require.Equal(t, 1, s.WinningBidder)

	// Equal bid does not beat the high bid.
	err = s.ApplyBid(2, 3, src)
	require.Equal(t, CodeInvalidAction, CodeOf(err))

	// Out of range.
	err = s.ApplyBid(2, 6, src)
	require.Equal(t, CodeInvalidAction, CodeOf(err))

	require.NoError(t, s.ApplyBid(2, BidPass, src))
	require.NoError(t, s.ApplyBid(3, 4, src))
	require.Equal(t, 3, s.WinningBidder)
	require.NoError(t, s.ApplyBid(0, BidPass, src))

	require.Equal(t, PhaseDeclaringTrump, s.Phase)
	require.Equal(t, 3, s.WinningBidder)
	require.Equal(t, 4, s.HighestBid)
}

func TestVersionMonotonicity(t *testing.T) {
	hands, blind := standardHands(t)
	src := pinnedSource(0, buildDeck(t, 0, hands, blind))
	s := newTestGame(t, src)

	v := s.Version
	require.NoError(t, s.ApplyBid(1, 2, src))
	require.Greater(t, s.Version, v)

	// Rejected actions leave the version untouched.
	v = s.Version
	err := s.ApplyBid(1, 3, src)
	require.Error(t, err)
	require.Equal(t, v, s.Version)

	require.NoError(t, s.ApplyBid(2, BidPass, src))
	require.Greater(t, s.Version, v)
}

func TestFoldDecisions(t *testing.T) {
	hands, blind := standardHands(t)
	src := pinnedSource(0, buildDeck(t, 0, hands, blind))
	s := newTestGame(t, src)

	require.NoError(t, s.ApplyBid(1, 3, src))
	require.NoError(t, s.ApplyBid(2, BidPass, src))
	require.NoError(t, s.ApplyBid(3, BidPass, src))
	require.NoError(t, s.ApplyBid(0, BidPass, src))
	require.NoError(t, s.ApplyTrumpDeclaration(1, deck.Hearts))
	require.Equal(t, PhaseFoldingDecision, s.Phase)

	// The bidder cannot fold.
	err := s.ApplyFoldDecision(1, true)
	require.Equal(t, CodeInvalidAction, CodeOf(err))

	require.NoError(t, s.ApplyFoldDecision(2, true))
	require.True(t, s.Players[2].Folded)
	require.Empty(t, s.Players[2].Hand)
	requireConserved(t, s)

	// Double decision rejected.
	err = s.ApplyFoldDecision(2, false)
	require.Equal(t, CodeInvalidAction, CodeOf(err))

	require.NoError(t, s.ApplyFoldDecision(3, false))
	require.NoError(t, s.ApplyFoldDecision(0, false))

	require.Equal(t, PhasePlaying, s.Phase)
	require.Equal(t, 1, s.CurrentPlayer, "bidder leads the first trick")
	require.Equal(t, 1, s.CurrentTrick.LeadPosition)
}

func TestAllOpponentsFoldEndsRound(t *testing.T) {
	hands, blind := standardHands(t)
	src := pinnedSource(0, buildDeck(t, 0, hands, blind))
	s := newTestGame(t, src)

	require.NoError(t, s.ApplyBid(1, 2, src))
	require.NoError(t, s.ApplyBid(2, BidPass, src))
	require.NoError(t, s.ApplyBid(3, BidPass, src))
	require.NoError(t, s.ApplyBid(0, BidPass, src))
	require.NoError(t, s.ApplyTrumpDeclaration(1, deck.Hearts))
	require.NoError(t, s.ApplyFoldDecision(2, true))
	require.NoError(t, s.ApplyFoldDecision(3, true))
	require.NoError(t, s.ApplyFoldDecision(0, true))

	require.Equal(t, PhaseRoundOver, s.Phase)
	require.Equal(t, TricksPerRound, s.Players[1].TricksTaken)
	requireConserved(t, s)
}
