package ai

import (
	rand "math/rand/v2"

	"buckeuchre/internal/deck"
	"buckeuchre/internal/engine"
)

// maxRolloutSteps caps a simulation so a bug in the policy can never
// hang a search.
const maxRolloutSteps = 200

// Character shapes the rollout policy. The zero value means balanced.
type Character struct {
	// Aggressiveness scales bidding thresholds; above 1.0 bids more.
	Aggressiveness float64
	// Risk scales card-play boldness; above 1.0 leads high more often.
	Risk float64
}

func (c Character) normalized() Character {
	if c.Aggressiveness == 0 {
		c.Aggressiveness = 1
	}
	if c.Risk == 0 {
		c.Risk = 1
	}
	return c
}

// suitStrength scores a hand under a candidate trump suit: trump cards
// by their trump rank, plus a bump for off-suit aces that can win
// plain tricks
func suitStrength(hand []deck.Card, trump deck.Suit) int {
	strength := 0
	for _, c := range hand {
		if deck.IsTrump(c, trump) {
			strength += deck.TrumpPower(c, trump)
		} else if c.Rank == deck.Ace {
			strength += 2
		}
	}
	return strength
}

// bestTrump picks the suit the hand is strongest in
func bestTrump(hand []deck.Card) (deck.Suit, int) {
	best, bestStrength := deck.Spades, -1
	for _, suit := range deck.Suits {
		if s := suitStrength(hand, suit); s > bestStrength {
			best, bestStrength = suit, s
		}
	}
	return best, bestStrength
}

// desiredBid maps hand strength to a contract size
func desiredBid(strength int, ch Character) int {
	scaled := float64(strength) * ch.Aggressiveness
	switch {
	case scaled >= 20:
		return 5
	case scaled >= 16:
		return 4
	case scaled >= 12:
		return 3
	case scaled >= 8:
		return engine.MinBid
	default:
		return engine.BidPass
	}
}

// trumpHolding counts trump cards and whether the hand holds a bower
func trumpHolding(hand []deck.Card, trump deck.Suit) (count int, bower bool) {
	for _, c := range hand {
		if deck.IsTrump(c, trump) {
			count++
			if deck.IsRightBower(c, trump) || deck.IsLeftBower(c, trump) {
				bower = true
			}
		}
	}
	return count, bower
}

// policyAction picks one action for the acting seat using cheap
// heuristics. The legal set is never empty when a seat owes a decision.
func policyAction(s *engine.GameState, pos int, rng *rand.Rand, ch Character) engine.Action {
	legal := s.LegalActions(pos)
	if len(legal) == 0 {
		return engine.Action{}
	}

	switch legal[0].Type {
	case engine.ActionBid:
		_, strength := bestTrump(s.Players[pos].Hand)
		want := desiredBid(strength, ch)
		if want <= s.HighestBid {
			return engine.Action{Type: engine.ActionBid, Bid: engine.BidPass}
		}
		bid := s.HighestBid + 1
		if bid < engine.MinBid {
			bid = engine.MinBid
		}
		return engine.Action{Type: engine.ActionBid, Bid: bid}

	case engine.ActionTrump:
		suit, _ := bestTrump(s.Players[pos].Hand)
		return engine.Action{Type: engine.ActionTrump, Suit: suit}

	case engine.ActionFold:
		count, bower := trumpHolding(s.Players[pos].Hand, s.Trump)
		stay := bower || count >= 2 || (count == 1 && ch.Risk > 1)
		if len(legal) == 1 {
			// Dirty clubs: staying is the only option.
			return legal[0]
		}
		return engine.Action{Type: engine.ActionFold, Fold: !stay}

	case engine.ActionCard:
		return engine.Action{Type: engine.ActionCard, Card: pickCard(s, pos, legal, rng, ch)}
	}
	return legal[rng.IntN(len(legal))]
}

// pickCard leads high and follows low: when leading or able to beat
// the current trick, play the strongest legal card; when beaten, dump
// the weakest
func pickCard(s *engine.GameState, pos int, legal []engine.Action, rng *rand.Rand, ch Character) deck.Card {
	trick := s.CurrentTrick
	lead := trick.LeadSuit(s.Trump)

	power := func(c deck.Card) int {
		ls := lead
		if ls == deck.NoSuit {
			ls = deck.EffectiveSuit(c, s.Trump)
		}
		return deck.TrickPower(c, s.Trump, ls)
	}

	// Occasionally randomize so rollouts explore; bolder characters
	// randomize less.
	if rng.Float64() > 0.85*ch.Risk {
		return legal[rng.IntN(len(legal))].Card
	}

	bestOnTable := -1
	for _, pc := range trick.Plays {
		if p := deck.TrickPower(pc.Card, s.Trump, lead); p > bestOnTable {
			bestOnTable = p
		}
	}

	var highest, lowest deck.Card
	highPower, lowPower := -1, 1<<30
	for _, a := range legal {
		p := power(a.Card)
		if p > highPower {
			highest, highPower = a.Card, p
		}
		if p < lowPower {
			lowest, lowPower = a.Card, p
		}
	}

	if lead == deck.NoSuit || highPower > bestOnTable {
		return highest
	}
	return lowest
}

// rollout plays the determinized state to the end of the current round
// and returns each seat's normalized value in [0, 1], where 1 is the
// best possible hand outcome (a five-trick sweep)
func rollout(s *engine.GameState, rng *rand.Rand, ch Character, deals deck.DealSource) [engine.NumPlayers]float64 {
	startRound := s.Round
	for step := 0; step < maxRolloutSteps; step++ {
		if s.Phase == engine.PhaseRoundOver || s.Phase == engine.PhaseGameOver {
			break
		}
		if s.Round != startRound {
			// An all-pass redeal replaced the searched hand, so this
			// simulation carries no signal about it.
			return neutralValues()
		}
		if s.Phase == engine.PhasePlaying && s.CurrentTrick != nil && s.CurrentTrick.Complete() {
			if err := s.BeginNextTrick(); err != nil {
				break
			}
			continue
		}
		pos, _, ok := s.CurrentActor()
		if !ok {
			break
		}
		a := policyAction(s, pos, rng, ch)
		if err := s.Apply(pos, a, deals); err != nil {
			break
		}
	}

	deltas, err := s.ScoreRound()
	if err != nil {
		return neutralValues()
	}
	var values [engine.NumPlayers]float64
	for i, d := range deltas {
		values[i] = normalizeDelta(d)
	}
	return values
}

// neutralValues is the no-information outcome for every seat
func neutralValues() [engine.NumPlayers]float64 {
	var values [engine.NumPlayers]float64
	for i := range values {
		values[i] = 0.5
	}
	return values
}

// normalizeDelta maps a hand score delta in [-5, +5] to [0, 1] with
// lower deltas better
func normalizeDelta(d int) float64 {
	v := (float64(-d) + 5) / 10
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
