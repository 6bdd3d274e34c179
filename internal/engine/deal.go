package engine

import (
	"buckeuchre/internal/deck"
)

// dealRound distributes a shuffled deck for a new round: five single
// cards per pass starting left of the dealer, the 21st card turned up,
// and the last four (turn-up included) forming the blind. If the
// turn-up is a club the round is "dirty": bidding is skipped, clubs are
// trump, nobody may fold, and the seat left of the dealer owns the
// minimum contract and leads.
func (s *GameState) dealRound(cards []deck.Card) error {
	if err := validateDeck(cards); err != nil {
		return err
	}

	for _, p := range s.Players {
		if p == nil {
			return Internal("cannot deal with empty seats")
		}
		p.Hand = nil
		p.TricksTaken = 0
		p.Folded = false
		p.FoldDecision = FoldUndecided
	}

	// Single cards at a time, five passes, starting left of dealer.
	for pass := 0; pass < HandSize; pass++ {
		for i := 0; i < NumPlayers; i++ {
			seat := (s.DealerPosition + 1 + i) % NumPlayers
			s.Players[seat].Hand = append(s.Players[seat].Hand, cards[pass*NumPlayers+i])
		}
	}

	s.TurnUp = cards[HandSize*NumPlayers]
	s.Blind = append([]deck.Card(nil), cards[HandSize*NumPlayers:]...)
	s.ClubsTurnedUp = s.TurnUp.Suit == deck.Clubs

	s.Bids = nil
	s.HighestBid = 0
	s.WinningBidder = -1
	s.Trump = deck.NoSuit
	s.Tricks = nil
	s.CurrentTrick = nil
	s.CurrentPlayer = -1
	s.CurrentBidder = -1
	s.Discards = nil
	s.Scored = false

	if s.ClubsTurnedUp {
		lead := nextPosition(s.DealerPosition)
		s.Trump = deck.Clubs
		s.WinningBidder = lead
		s.HighestBid = MinBid
		for _, p := range s.Players {
			p.FoldDecision = FoldStay
		}
		s.Phase = PhasePlaying
		s.CurrentTrick = &Trick{Number: 1, LeadPosition: lead, Winner: -1}
		s.CurrentPlayer = lead
	} else {
		s.Phase = PhaseBidding
		s.CurrentBidder = nextPosition(s.DealerPosition)
	}

	s.touch()
	return nil
}

// validateDeck rejects anything that is not a permutation of the
// 24-card deck. Pinned decks from the dev endpoints go through here.
func validateDeck(cards []deck.Card) error {
	if len(cards) != deck.Size {
		return InvalidAction("deck must contain %d cards, got %d", deck.Size, len(cards))
	}
	seen := make(map[deck.Card]bool, deck.Size)
	for _, c := range cards {
		if seen[c] {
			return InvalidAction("duplicate card %s in deck", c.ID())
		}
		seen[c] = true
	}
	return nil
}
