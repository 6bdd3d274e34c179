package engine

import (
	"fmt"

	"buckeuchre/internal/deck"
)

// ActionType tags the variants of the action sum type
type ActionType string

const (
	ActionBid   ActionType = "BID"
	ActionTrump ActionType = "TRUMP"
	ActionFold  ActionType = "FOLD"
	ActionCard  ActionType = "CARD"
)

// Action is one in-round decision: a bid, a trump declaration, a
// stay/fold choice, or a card play. The zero values of the unused
// payload fields are ignored.
type Action struct {
	Type ActionType
	Bid  int
	Suit deck.Suit
	Fold bool
	Card deck.Card
}

// Key serializes the action to a stable string, used as MCTS tree child
// keys and in logs
func (a Action) Key() string {
	switch a.Type {
	case ActionBid:
		if a.Bid == BidPass {
			return "BID_PASS"
		}
		return fmt.Sprintf("BID_%d", a.Bid)
	case ActionTrump:
		return "TRUMP_" + a.Suit.String()
	case ActionFold:
		if a.Fold {
			return "FOLD"
		}
		return "STAY"
	case ActionCard:
		return "CARD_" + a.Card.ID()
	default:
		return "UNKNOWN"
	}
}

// Apply dispatches the action to the matching rule-engine transition
func (s *GameState) Apply(pos int, a Action, src deck.DealSource) error {
	switch a.Type {
	case ActionBid:
		return s.ApplyBid(pos, a.Bid, src)
	case ActionTrump:
		return s.ApplyTrumpDeclaration(pos, a.Suit)
	case ActionFold:
		return s.ApplyFoldDecision(pos, a.Fold)
	case ActionCard:
		return s.ApplyCardPlay(pos, a.Card)
	default:
		return InvalidAction("unknown action type %q", a.Type)
	}
}

// LegalActions enumerates every action the player at pos may take in
// the current phase. An empty slice means the player owes no decision.
func (s *GameState) LegalActions(pos int) []Action {
	if pos < 0 || pos >= NumPlayers || s.Players[pos] == nil {
		return nil
	}
	var actions []Action

	switch s.Phase {
	case PhaseBidding:
		if pos != s.CurrentBidder {
			return nil
		}
		actions = append(actions, Action{Type: ActionBid, Bid: BidPass})
		lowest := s.HighestBid + 1
		if lowest < MinBid {
			lowest = MinBid
		}
		for amount := lowest; amount <= MaxBid; amount++ {
			actions = append(actions, Action{Type: ActionBid, Bid: amount})
		}

	case PhaseDeclaringTrump:
		if pos != s.WinningBidder {
			return nil
		}
		for _, suit := range deck.Suits {
			actions = append(actions, Action{Type: ActionTrump, Suit: suit})
		}

	case PhaseFoldingDecision:
		if pos == s.WinningBidder || s.Players[pos].FoldDecision != FoldUndecided {
			return nil
		}
		actions = append(actions, Action{Type: ActionFold, Fold: false})
		if !s.ClubsTurnedUp {
			actions = append(actions, Action{Type: ActionFold, Fold: true})
		}

	case PhasePlaying:
		if pos != s.CurrentPlayer || s.CurrentTrick.Complete() {
			return nil
		}
		for _, c := range LegalPlays(s.Players[pos].Hand, s.CurrentTrick, s.Trump) {
			actions = append(actions, Action{Type: ActionCard, Card: c})
		}
	}
	return actions
}

// CurrentActor returns the seat that owes the next decision and the
// kind of decision owed. During the folding phase undecided players act
// in clockwise order from the bidder; during a trick-reveal pause
// nobody acts.
func (s *GameState) CurrentActor() (int, ActionType, bool) {
	switch s.Phase {
	case PhaseBidding:
		return s.CurrentBidder, ActionBid, s.CurrentBidder >= 0
	case PhaseDeclaringTrump:
		return s.WinningBidder, ActionTrump, s.WinningBidder >= 0
	case PhaseFoldingDecision:
		if pos, ok := s.UndecidedFolder(); ok {
			return pos, ActionFold, true
		}
		return -1, ActionFold, false
	case PhasePlaying:
		if s.CurrentTrick != nil && !s.CurrentTrick.Complete() && s.CurrentPlayer >= 0 {
			return s.CurrentPlayer, ActionCard, true
		}
		return -1, ActionCard, false
	default:
		return -1, "", false
	}
}
