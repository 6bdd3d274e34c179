package engine

import "buckeuchre/internal/deck"

// ApplyTrumpDeclaration sets the trump suit. Only the winning bidder
// may declare, and any of the four suits is legal. The blind is set
// aside and every non-bidder then owes a fold decision.
func (s *GameState) ApplyTrumpDeclaration(pos int, suit deck.Suit) error {
	if s.Phase != PhaseDeclaringTrump {
		return InvalidAction("cannot declare trump in phase %s", s.Phase)
	}
	if pos != s.WinningBidder {
		return NotYourTurn("only the winning bidder (position %d) declares trump", s.WinningBidder)
	}
	if suit < deck.Spades || suit > deck.Clubs {
		return InvalidAction("unknown trump suit")
	}

	s.Trump = suit
	s.Phase = PhaseFoldingDecision
	s.Players[s.WinningBidder].FoldDecision = FoldStay
	s.touch()
	return nil
}

// ApplyFoldDecision records a non-bidder's stay/fold choice. Folding is
// forbidden on dirty clubs. A folded player's hand moves to the discard
// pile so the deck stays fully accounted for. Once every non-bidder has
// decided, play begins with the bidder leading; if all three opponents
// folded the bidder takes the round unopposed and it ends immediately.
func (s *GameState) ApplyFoldDecision(pos int, fold bool) error {
	if s.Phase != PhaseFoldingDecision {
		return InvalidAction("cannot make a fold decision in phase %s", s.Phase)
	}
	if pos < 0 || pos >= NumPlayers || s.Players[pos] == nil {
		return InvalidAction("no player at position %d", pos)
	}
	if pos == s.WinningBidder {
		return InvalidAction("the bidder cannot fold")
	}
	p := s.Players[pos]
	if p.FoldDecision != FoldUndecided {
		return InvalidAction("position %d already decided", pos)
	}
	if fold && s.ClubsTurnedUp {
		return InvalidAction("folding is forbidden when clubs are turned up")
	}

	if fold {
		p.FoldDecision = FoldFold
		p.Folded = true
		s.Discards = append(s.Discards, p.Hand...)
		p.Hand = nil
	} else {
		p.FoldDecision = FoldStay
	}

	for _, other := range s.Players {
		if other.FoldDecision == FoldUndecided {
			s.touch()
			return nil
		}
	}

	// Everyone has decided.
	if s.activeCount() == 1 {
		// All opponents folded: the bidder takes every trick unopposed.
		s.Players[s.WinningBidder].TricksTaken = TricksPerRound
		s.Phase = PhaseRoundOver
		s.CurrentPlayer = -1
		s.touch()
		return nil
	}

	s.Phase = PhasePlaying
	s.CurrentTrick = &Trick{Number: 1, LeadPosition: s.WinningBidder, Winner: -1}
	s.CurrentPlayer = s.WinningBidder
	s.touch()
	return nil
}

// UndecidedFolder returns the first non-bidder clockwise from the
// bidder who still owes a fold decision. Used to drive AI seats; humans
// may decide in any order.
func (s *GameState) UndecidedFolder() (int, bool) {
	if s.Phase != PhaseFoldingDecision {
		return -1, false
	}
	pos := nextPosition(s.WinningBidder)
	for i := 0; i < NumPlayers-1; i++ {
		if p := s.Players[pos]; p != nil && p.FoldDecision == FoldUndecided {
			return pos, true
		}
		pos = nextPosition(pos)
	}
	return -1, false
}
