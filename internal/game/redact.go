package game

import (
	"time"

	"buckeuchre/internal/deck"
	"buckeuchre/internal/engine"
)

// ViewPlayer is the per-recipient projection of a seat. Only the
// viewer's own seat enumerates cards; everyone else shows a count.
type ViewPlayer struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Position     int                 `json:"position"`
	Hand         []string            `json:"hand,omitempty"`
	CardCount    int                 `json:"cardCount"`
	Score        int                 `json:"score"`
	TricksTaken  int                 `json:"tricksTaken"`
	Connected    bool                `json:"connected"`
	Folded       bool                `json:"folded"`
	FoldDecision engine.FoldDecision `json:"foldDecision"`
	Type         engine.SeatType     `json:"type"`
}

// ViewPlay is one card played to a trick
type ViewPlay struct {
	Position int    `json:"position"`
	Card     string `json:"card"`
}

// ViewTrick is the public form of a trick
type ViewTrick struct {
	Number       int        `json:"number"`
	LeadPosition int        `json:"leadPosition"`
	Plays        []ViewPlay `json:"plays"`
	Winner       int        `json:"winner"`
}

// View is a full game state redacted for a single recipient. A viewer
// position of -1 produces the spectator view with no hands.
type View struct {
	GameID         string        `json:"gameId"`
	Phase          engine.Phase  `json:"phase"`
	Round          int           `json:"round"`
	DealerPosition int           `json:"dealerPosition"`
	Players        []ViewPlayer  `json:"players"`
	TurnUp         string        `json:"turnUp,omitempty"`
	ClubsTurnedUp  bool          `json:"clubsTurnedUp"`
	Bids           []engine.Bid  `json:"bids,omitempty"`
	CurrentBidder  int           `json:"currentBidder"`
	HighestBid     int           `json:"highestBid"`
	WinningBidder  int           `json:"winningBidder"`
	Trump          string        `json:"trump,omitempty"`
	Tricks         []ViewTrick   `json:"tricks,omitempty"`
	CurrentTrick   *ViewTrick    `json:"currentTrick,omitempty"`
	CurrentPlayer  int           `json:"currentPlayer"`
	Winner         int           `json:"winner"`
	ViewerPosition int           `json:"viewerPosition"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	Version        uint64        `json:"version"`
}

func viewTrick(t *engine.Trick) *ViewTrick {
	if t == nil {
		return nil
	}
	v := &ViewTrick{
		Number:       t.Number,
		LeadPosition: t.LeadPosition,
		Winner:       t.Winner,
	}
	for _, pc := range t.Plays {
		v.Plays = append(v.Plays, ViewPlay{Position: pc.Position, Card: pc.Card.ID()})
	}
	return v
}

func cardIDs(cards []deck.Card) []string {
	if len(cards) == 0 {
		return nil
	}
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID()
	}
	return ids
}

// Redact projects the state for the given viewer position
func Redact(s *engine.GameState, viewer int) *View {
	v := &View{
		GameID:         s.ID,
		Phase:          s.Phase,
		Round:          s.Round,
		DealerPosition: s.DealerPosition,
		ClubsTurnedUp:  s.ClubsTurnedUp,
		Bids:           append([]engine.Bid(nil), s.Bids...),
		CurrentBidder:  s.CurrentBidder,
		HighestBid:     s.HighestBid,
		WinningBidder:  s.WinningBidder,
		CurrentTrick:   viewTrick(s.CurrentTrick),
		CurrentPlayer:  s.CurrentPlayer,
		Winner:         s.Winner,
		ViewerPosition: viewer,
		UpdatedAt:      s.UpdatedAt,
		Version:        s.Version,
	}
	if s.Phase != engine.PhaseWaitingForPlayers {
		v.TurnUp = s.TurnUp.ID()
	}
	if s.Trump != deck.NoSuit {
		v.Trump = s.Trump.String()
	}
	for _, t := range s.Tricks {
		trick := t
		v.Tricks = append(v.Tricks, *viewTrick(&trick))
	}
	for i, p := range s.Players {
		if p == nil {
			continue
		}
		vp := ViewPlayer{
			ID:           p.ID,
			Name:         p.Name,
			Position:     i,
			CardCount:    len(p.Hand),
			Score:        p.Score,
			TricksTaken:  p.TricksTaken,
			Connected:    p.Connected,
			Folded:       p.Folded,
			FoldDecision: p.FoldDecision,
			Type:         p.Type,
		}
		if i == viewer {
			vp.Hand = cardIDs(p.Hand)
		}
		v.Players = append(v.Players, vp)
	}
	return v
}
