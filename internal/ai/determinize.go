package ai

import (
	rand "math/rand/v2"

	"buckeuchre/internal/deck"
	"buckeuchre/internal/engine"
)

// maxConstrainedDeals bounds the greedy attempts at honoring void
// constraints before falling back to an unconstrained shuffle.
const maxConstrainedDeals = 3

// voids infers which effective suits each opponent has shown out of.
// A player who did not follow the led suit cannot hold it. Nothing can
// be inferred before trump is declared.
func voids(s *engine.GameState) map[int]map[deck.Suit]bool {
	out := make(map[int]map[deck.Suit]bool)
	if s.Trump == deck.NoSuit {
		return out
	}
	mark := func(t *engine.Trick) {
		if t == nil || len(t.Plays) == 0 {
			return
		}
		lead := deck.EffectiveSuit(t.Plays[0].Card, s.Trump)
		for _, pc := range t.Plays[1:] {
			if deck.EffectiveSuit(pc.Card, s.Trump) != lead {
				if out[pc.Position] == nil {
					out[pc.Position] = make(map[deck.Suit]bool)
				}
				out[pc.Position][lead] = true
			}
		}
	}
	for i := range s.Tricks {
		mark(&s.Tricks[i])
	}
	mark(s.CurrentTrick)
	return out
}

// unseenCards returns the deck minus everything the viewer can see:
// their own hand, every played card, and the turn-up
func unseenCards(s *engine.GameState, viewer int) []deck.Card {
	seen := make(map[deck.Card]bool, deck.Size)
	for _, c := range s.Players[viewer].Hand {
		seen[c] = true
	}
	for _, t := range s.Tricks {
		for _, pc := range t.Plays {
			seen[pc.Card] = true
		}
	}
	if s.CurrentTrick != nil {
		for _, pc := range s.CurrentTrick.Plays {
			seen[pc.Card] = true
		}
	}
	seen[s.TurnUp] = true

	var unseen []deck.Card
	for _, c := range deck.New() {
		if !seen[c] {
			unseen = append(unseen, c)
		}
	}
	return unseen
}

// determinize clones the state and replaces every hidden zone with a
// sampled world consistent with what the viewer has observed: opponent
// hand sizes, folded discards, the blind, and (best effort) shown-out
// suits.
func determinize(s *engine.GameState, viewer int, rng *rand.Rand) *engine.GameState {
	c := s.Clone()
	unseen := unseenCards(s, viewer)
	constraints := voids(s)

	for attempt := 0; attempt < maxConstrainedDeals; attempt++ {
		rng.Shuffle(len(unseen), func(i, j int) { unseen[i], unseen[j] = unseen[j], unseen[i] })
		if assignHiddenZones(c, viewer, unseen, constraints) {
			return c
		}
	}
	// Constraints unsatisfiable by greedy assignment; sample freely.
	rng.Shuffle(len(unseen), func(i, j int) { unseen[i], unseen[j] = unseen[j], unseen[i] })
	assignHiddenZones(c, viewer, unseen, nil)
	return c
}

// assignHiddenZones deals the unseen pool into opponent hands, the
// blind, and the discard pile. Returns false if the void constraints
// could not be honored with this ordering.
func assignHiddenZones(c *engine.GameState, viewer int, unseen []deck.Card, constraints map[int]map[deck.Suit]bool) bool {
	pool := append([]deck.Card(nil), unseen...)

	take := func(n int, banned map[deck.Suit]bool) ([]deck.Card, bool) {
		var cards []deck.Card
		for len(cards) < n {
			found := -1
			for i, card := range pool {
				if banned != nil && banned[deck.EffectiveSuit(card, c.Trump)] {
					continue
				}
				found = i
				break
			}
			if found < 0 {
				return nil, false
			}
			cards = append(cards, pool[found])
			pool = append(pool[:found], pool[found+1:]...)
		}
		return cards, true
	}

	for i, p := range c.Players {
		if i == viewer || p == nil || len(p.Hand) == 0 {
			continue
		}
		hand, ok := take(len(p.Hand), constraints[i])
		if !ok {
			return false
		}
		p.Hand = hand
	}

	// The blind and folded discards are dead zones; no constraints
	// apply beyond their sizes.
	hidden, ok := take(len(c.Blind)-1, nil)
	if !ok {
		return false
	}
	c.Blind = append([]deck.Card{c.TurnUp}, hidden...)
	if n := len(c.Discards); n > 0 {
		discards, ok := take(n, nil)
		if !ok {
			return false
		}
		c.Discards = discards
	}
	return true
}
