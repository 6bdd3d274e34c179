package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"buckeuchre/internal/deck"
)

// biddenGameAt drives the standard layout to PLAYING with the given
// bid; the fold arguments name the seats that fold.
func biddenGameAt(t *testing.T, bid int, folds ...int) (*GameState, deck.DealSource) {
	t.Helper()
	hands, blind := standardHands(t)
	src := pinnedSource(0, buildDeck(t, 0, hands, blind))
	src.PinDeck(buildDeck(t, 1, hands, blind))
	s := newTestGame(t, src)

	require.NoError(t, s.ApplyBid(1, bid, src))
	require.NoError(t, s.ApplyBid(2, BidPass, src))
	require.NoError(t, s.ApplyBid(3, BidPass, src))
	require.NoError(t, s.ApplyBid(0, BidPass, src))
	require.NoError(t, s.ApplyTrumpDeclaration(1, deck.Hearts))
	folded := map[int]bool{}
	for _, pos := range folds {
		folded[pos] = true
	}
	for _, pos := range []int{2, 3, 0} {
		require.NoError(t, s.ApplyFoldDecision(pos, folded[pos]))
	}
	return s, src
}

// playStandardRound plays the standard layout out; seat 1 takes four
// tricks and seat 0 the last
func playStandardRound(t *testing.T, s *GameState) {
	t.Helper()
	playTrick(t, s, [2]string{"1", "HEARTS_JACK"}, [2]string{"2", "DIAMONDS_JACK"}, [2]string{"3", "CLUBS_TEN"}, [2]string{"0", "SPADES_NINE"})
	playTrick(t, s, [2]string{"1", "HEARTS_KING"}, [2]string{"2", "DIAMONDS_TEN"}, [2]string{"3", "CLUBS_JACK"}, [2]string{"0", "SPADES_TEN"})
	playTrick(t, s, [2]string{"1", "HEARTS_QUEEN"}, [2]string{"2", "DIAMONDS_QUEEN"}, [2]string{"3", "CLUBS_QUEEN"}, [2]string{"0", "SPADES_QUEEN"})
	playTrick(t, s, [2]string{"1", "HEARTS_TEN"}, [2]string{"2", "DIAMONDS_KING"}, [2]string{"3", "CLUBS_KING"}, [2]string{"0", "SPADES_KING"})
	playTrick(t, s, [2]string{"1", "SPADES_JACK"}, [2]string{"2", "DIAMONDS_ACE"}, [2]string{"3", "CLUBS_ACE"}, [2]string{"0", "SPADES_ACE"})
	require.Equal(t, PhaseRoundOver, s.Phase)
}

func TestScoreRoundSet(t *testing.T) {
	s, _ := biddenGameAt(t, 5)
	playStandardRound(t, s)

	// Bid five, took four: set. Only the bidder moves, up by the bid.
	deltas, err := s.ScoreRound()
	require.NoError(t, err)
	require.Equal(t, [NumPlayers]int{0, 5, 0, 0}, deltas)
	require.Equal(t, StartingScore+5, s.Players[1].Score)
	require.Equal(t, StartingScore, s.Players[0].Score, "stayers are unaffected by a set")
}

func TestScoreRoundOnce(t *testing.T) {
	s, _ := biddenGameAt(t, 3)
	playStandardRound(t, s)

	_, err := s.ScoreRound()
	require.NoError(t, err)
	_, err = s.ScoreRound()
	require.Error(t, err)
}

func TestScoreRoundWrongPhase(t *testing.T) {
	s, _ := biddenGameAt(t, 3)
	_, err := s.ScoreRound()
	require.Equal(t, CodeInvalidAction, CodeOf(err))
}

func TestStartNextRound(t *testing.T) {
	s, src := biddenGameAt(t, 3)
	playStandardRound(t, s)

	_, err := s.ScoreRound()
	require.NoError(t, err)
	require.Equal(t, PhaseRoundOver, s.Phase)

	require.NoError(t, s.StartNextRound(src))
	require.Equal(t, 2, s.Round)
	require.Equal(t, 1, s.DealerPosition)
	require.Equal(t, PhaseBidding, s.Phase)
	require.False(t, s.Scored)
	require.Empty(t, s.Tricks)
	require.Empty(t, s.Discards)
	for _, p := range s.Players {
		require.Len(t, p.Hand, HandSize)
		require.Zero(t, p.TricksTaken)
		require.False(t, p.Folded)
	}
	requireConserved(t, s)

	// Scores carry across the deal.
	require.Equal(t, StartingScore-4, s.Players[1].Score)
	require.Equal(t, StartingScore-1, s.Players[0].Score)
}

func TestGameTermination(t *testing.T) {
	s, _ := biddenGameAt(t, 3)
	// Drop the bidder to the brink so this round ends the game.
	s.Players[1].Score = 4
	playStandardRound(t, s)

	_, err := s.ScoreRound()
	require.NoError(t, err)
	require.Equal(t, PhaseGameOver, s.Phase)
	require.Equal(t, 1, s.Winner)
	require.Equal(t, 0, s.Players[1].Score)

	// Nothing moves a finished game.
	require.Error(t, s.StartNextRound(deck.NewSeededDealSource(1)))
	err = s.ApplyBid(1, 3, deck.NewSeededDealSource(1))
	require.Equal(t, CodeInvalidAction, CodeOf(err))
	require.Equal(t, 1, s.Winner)
}

func TestGameTerminationTieLowestSeat(t *testing.T) {
	s, _ := biddenGameAt(t, 3)
	// Both the bidder and seat 0 land on -1 this round (seat 0 takes the
	// last trick).
	s.Players[1].Score = 3
	s.Players[0].Score = 0
	playStandardRound(t, s)

	_, err := s.ScoreRound()
	require.NoError(t, err)
	require.Equal(t, PhaseGameOver, s.Phase)
	require.Equal(t, -1, s.Players[0].Score)
	require.Equal(t, -1, s.Players[1].Score)
	require.Equal(t, 0, s.Winner, "ties break to the lowest seat")
}

func TestAllFoldScoring(t *testing.T) {
	s, src := biddenGameAt(t, 2, 2, 3, 0)
	require.Equal(t, PhaseRoundOver, s.Phase)
	require.Equal(t, TricksPerRound, s.Players[1].TricksTaken)

	deltas, err := s.ScoreRound()
	require.NoError(t, err)
	require.Equal(t, [NumPlayers]int{0, -TricksPerRound, 0, 0}, deltas)
	require.NoError(t, s.StartNextRound(src))
	require.Equal(t, PhaseBidding, s.Phase)
}

func TestFinishRound(t *testing.T) {
	s, src := biddenGameAt(t, 3)
	playStandardRound(t, s)

	deltas, err := s.FinishRound(src)
	require.NoError(t, err)
	require.Equal(t, -4, deltas[1])
	require.Equal(t, PhaseBidding, s.Phase)
	require.Equal(t, 2, s.Round)
}

func TestCloneIsDeep(t *testing.T) {
	s, _ := biddenGameAt(t, 3)
	c := s.Clone()

	require.NoError(t, s.ApplyCardPlay(1, card(t, "HEARTS_JACK")))
	require.Len(t, c.Players[1].Hand, HandSize)
	require.Empty(t, c.CurrentTrick.Plays)
	require.NotEqual(t, s.Version, c.Version)
}

func TestLegalActionsByPhase(t *testing.T) {
	hands, blind := standardHands(t)
	src := pinnedSource(0, buildDeck(t, 0, hands, blind))
	s := newTestGame(t, src)

	// Bidding: pass plus every raise above the current high bid.
	acts := s.LegalActions(1)
	require.Len(t, acts, 1+MaxBid-MinBid+1)
	require.Equal(t, "BID_PASS", acts[0].Key())
	require.Nil(t, s.LegalActions(2), "only the current bidder has actions")

	require.NoError(t, s.ApplyBid(1, 4, src))
	acts = s.LegalActions(2)
	require.Len(t, acts, 2)
	require.Equal(t, "BID_5", acts[1].Key())

	require.NoError(t, s.ApplyBid(2, BidPass, src))
	require.NoError(t, s.ApplyBid(3, BidPass, src))
	require.NoError(t, s.ApplyBid(0, BidPass, src))

	acts = s.LegalActions(1)
	require.Len(t, acts, 4)
	require.Equal(t, "TRUMP_SPADES", acts[0].Key())

	require.NoError(t, s.ApplyTrumpDeclaration(1, deck.Hearts))
	acts = s.LegalActions(2)
	require.Len(t, acts, 2)
	require.ElementsMatch(t, []string{"STAY", "FOLD"}, []string{acts[0].Key(), acts[1].Key()})
	require.Nil(t, s.LegalActions(1), "the bidder owes no fold decision")
}
