package engine

import "buckeuchre/internal/deck"

// CanPlayCard checks whether playing card from hand is legal against
// the current trick: the card must be held, the player must not have
// folded, and the led effective suit must be followed when the hand
// contains it.
func CanPlayCard(card deck.Card, hand []deck.Card, trick *Trick, trump deck.Suit, folded bool) error {
	if folded {
		return InvalidAction("folded players cannot play")
	}
	held := false
	for _, c := range hand {
		if c == card {
			held = true
			break
		}
	}
	if !held {
		return InvalidAction("card %s is not in hand", card.ID())
	}

	lead := trick.LeadSuit(trump)
	if lead == deck.NoSuit {
		return nil
	}
	if deck.EffectiveSuit(card, trump) == lead {
		return nil
	}
	for _, c := range hand {
		if deck.EffectiveSuit(c, trump) == lead {
			return InvalidAction("must follow %s", lead)
		}
	}
	return nil
}

// LegalPlays returns the cards the given hand may legally play to the
// trick
func LegalPlays(hand []deck.Card, trick *Trick, trump deck.Suit) []deck.Card {
	lead := trick.LeadSuit(trump)
	if lead == deck.NoSuit {
		return append([]deck.Card(nil), hand...)
	}
	var suited []deck.Card
	for _, c := range hand {
		if deck.EffectiveSuit(c, trump) == lead {
			suited = append(suited, c)
		}
	}
	if len(suited) > 0 {
		return suited
	}
	return append([]deck.Card(nil), hand...)
}

// trickWinner determines the winning play by trick power: highest trump
// wins, otherwise the highest card of the led effective suit. Ties are
// impossible because each card appears once.
func trickWinner(t *Trick, trump deck.Suit) int {
	lead := t.LeadSuit(trump)
	best := -1
	bestPower := -1
	for _, pc := range t.Plays {
		if power := deck.TrickPower(pc.Card, trump, lead); power > bestPower {
			best = pc.Position
			bestPower = power
		}
	}
	return best
}

// ApplyCardPlay plays a card for the player at pos. On trick completion
// the winner is recorded and the trick stays visible in CurrentTrick
// until BeginNextTrick clears it (the actor holds a reveal pause in
// between); after the final trick the phase moves to ROUND_OVER.
func (s *GameState) ApplyCardPlay(pos int, card deck.Card) error {
	if s.Phase != PhasePlaying {
		return InvalidAction("cannot play a card in phase %s", s.Phase)
	}
	if s.CurrentTrick == nil {
		return Internal("playing phase with no current trick")
	}
	if s.CurrentTrick.Complete() {
		return InvalidAction("trick %d is complete, waiting for the next trick", s.CurrentTrick.Number)
	}
	if pos != s.CurrentPlayer {
		return NotYourTurn("it is position %d's turn", s.CurrentPlayer)
	}
	p := s.Players[pos]
	if err := CanPlayCard(card, p.Hand, s.CurrentTrick, s.Trump, p.Folded); err != nil {
		return err
	}

	for i, c := range p.Hand {
		if c == card {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			break
		}
	}
	s.CurrentTrick.Plays = append(s.CurrentTrick.Plays, PlayedCard{Position: pos, Card: card})

	if len(s.CurrentTrick.Plays) < s.activeCount() {
		s.CurrentPlayer = s.nextActivePosition(pos)
		s.touch()
		return nil
	}

	// Trick complete.
	winner := trickWinner(s.CurrentTrick, s.Trump)
	if winner < 0 {
		return Internal("completed trick has no winner")
	}
	s.CurrentTrick.Winner = winner
	s.Players[winner].TricksTaken++
	s.Tricks = append(s.Tricks, *s.CurrentTrick)

	if len(s.Tricks) >= TricksPerRound {
		s.Phase = PhaseRoundOver
		s.CurrentPlayer = -1
	} else {
		// Winner leads the next trick once the reveal pause ends.
		s.CurrentPlayer = winner
	}
	s.touch()
	return nil
}

// BeginNextTrick clears a completed trick and starts the next one led
// by its winner. The actor calls this after the reveal pause.
func (s *GameState) BeginNextTrick() error {
	if s.Phase != PhasePlaying {
		return InvalidAction("cannot start a trick in phase %s", s.Phase)
	}
	if s.CurrentTrick == nil || !s.CurrentTrick.Complete() {
		return Internal("current trick is not complete")
	}
	winner := s.CurrentTrick.Winner
	s.CurrentTrick = &Trick{
		Number:       s.CurrentTrick.Number + 1,
		LeadPosition: winner,
		Winner:       -1,
	}
	s.CurrentPlayer = winner
	s.touch()
	return nil
}
