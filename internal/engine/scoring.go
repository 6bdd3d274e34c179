package engine

import "buckeuchre/internal/deck"

// ScoreRound applies the round's score deltas exactly once at
// ROUND_OVER. Scores count down: a bidder who makes the contract
// subtracts the tricks taken, a set bidder adds the bid back, and
// non-bidders who stayed subtract any tricks they took. Reaching zero
// or below ends the game; ties go to the lowest seat.
func (s *GameState) ScoreRound() ([NumPlayers]int, error) {
	var deltas [NumPlayers]int
	if s.Phase != PhaseRoundOver {
		return deltas, InvalidAction("cannot score in phase %s", s.Phase)
	}
	if s.Scored {
		return deltas, Internal("round %d already scored", s.Round)
	}
	if s.WinningBidder < 0 || s.HighestBid < MinBid {
		return deltas, Internal("round over with no contract")
	}

	bidder := s.Players[s.WinningBidder]
	if bidder.TricksTaken >= s.HighestBid {
		deltas[s.WinningBidder] = -bidder.TricksTaken
		for i, p := range s.Players {
			if i == s.WinningBidder {
				continue
			}
			if p.FoldDecision == FoldStay && p.TricksTaken >= 1 {
				deltas[i] = -p.TricksTaken
			}
		}
	} else {
		deltas[s.WinningBidder] = s.HighestBid
	}

	for i, p := range s.Players {
		p.Score += deltas[i]
	}
	s.Scored = true

	winner := -1
	for i, p := range s.Players {
		if p.Score > 0 {
			continue
		}
		if winner < 0 || p.Score < s.Players[winner].Score {
			winner = i
		}
	}
	if winner >= 0 {
		s.Phase = PhaseGameOver
		s.Winner = winner
	}

	s.touch()
	return deltas, nil
}

// StartNextRound advances the dealer and deals the next round. Only
// legal after the current round has been scored and nobody has won.
func (s *GameState) StartNextRound(src deck.DealSource) error {
	if s.Phase != PhaseRoundOver {
		return InvalidAction("cannot start a round in phase %s", s.Phase)
	}
	if !s.Scored {
		return Internal("round %d not scored", s.Round)
	}
	s.Round++
	s.DealerPosition = nextPosition(s.DealerPosition)
	return s.dealRound(src.NextDeal().Cards)
}

// FinishRound scores the round and, unless the game ended, deals the
// next one. The actor uses ScoreRound and StartNextRound separately so
// it can pause between them; FinishRound is the single-step form.
func (s *GameState) FinishRound(src deck.DealSource) ([NumPlayers]int, error) {
	deltas, err := s.ScoreRound()
	if err != nil {
		return deltas, err
	}
	if s.Phase == PhaseGameOver {
		return deltas, nil
	}
	return deltas, s.StartNextRound(src)
}
