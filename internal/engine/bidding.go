package engine

import "buckeuchre/internal/deck"

// ApplyBid places a bid (or pass) for the player at pos. Numeric bids
// must strictly exceed the current high bid. When all four players have
// bid: four passes trigger a redeal with the dealer advanced, otherwise
// the winning bidder moves on to declare trump.
func (s *GameState) ApplyBid(pos, amount int, src deck.DealSource) error {
	if s.Phase != PhaseBidding {
		return InvalidAction("cannot bid in phase %s", s.Phase)
	}
	if pos != s.CurrentBidder {
		return NotYourTurn("it is position %d's turn to bid", s.CurrentBidder)
	}
	if amount != BidPass && (amount < MinBid || amount > MaxBid) {
		return InvalidAction("bid must be PASS or %d..%d, got %d", MinBid, MaxBid, amount)
	}
	if amount != BidPass && amount <= s.HighestBid {
		return InvalidAction("bid %d does not beat the current high bid %d", amount, s.HighestBid)
	}

	s.Bids = append(s.Bids, Bid{Position: pos, Amount: amount})
	if amount != BidPass {
		s.HighestBid = amount
		s.WinningBidder = pos
	}

	if next, ok := s.nextUnbidPosition(); ok {
		s.CurrentBidder = next
		s.touch()
		return nil
	}

	// All four have bid.
	s.CurrentBidder = -1
	if s.WinningBidder < 0 {
		// Four passes: redeal with the dealer advanced.
		s.Round++
		s.DealerPosition = nextPosition(s.DealerPosition)
		return s.dealRound(src.NextDeal().Cards)
	}

	s.Phase = PhaseDeclaringTrump
	s.touch()
	return nil
}

// nextUnbidPosition finds the next player clockwise from the current
// bidder who has not yet bid this round
func (s *GameState) nextUnbidPosition() (int, bool) {
	bid := make(map[int]bool, len(s.Bids))
	for _, b := range s.Bids {
		bid[b.Position] = true
	}
	next := nextPosition(s.CurrentBidder)
	for i := 0; i < NumPlayers; i++ {
		if !bid[next] {
			return next, true
		}
		next = nextPosition(next)
	}
	return -1, false
}
