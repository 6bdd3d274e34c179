package deck

// Bower semantics: with trump T, the jack of T (right bower) is the
// highest trump and the jack of the same-color suit (left bower) is the
// second highest. The left bower counts as a member of T for every
// follow-suit and winner computation.

// SameColorSuit returns the other suit of the same color
func SameColorSuit(s Suit) Suit {
	switch s {
	case Spades:
		return Clubs
	case Clubs:
		return Spades
	case Hearts:
		return Diamonds
	case Diamonds:
		return Hearts
	default:
		return NoSuit
	}
}

// IsRightBower returns true if the card is the jack of trump
func IsRightBower(c Card, trump Suit) bool {
	return c.Rank == Jack && c.Suit == trump
}

// IsLeftBower returns true if the card is the jack of the suit sharing
// trump's color
func IsLeftBower(c Card, trump Suit) bool {
	return c.Rank == Jack && trump != NoSuit && c.Suit == SameColorSuit(trump)
}

// EffectiveSuit returns the suit the card plays as under the given
// trump: the left bower relocates to the trump suit, everything else
// keeps its natural suit. With no trump declared the natural suit is
// returned.
func EffectiveSuit(c Card, trump Suit) Suit {
	if IsLeftBower(c, trump) {
		return trump
	}
	return c.Suit
}

// IsTrump returns true if the card's effective suit is trump
func IsTrump(c Card, trump Suit) bool {
	return trump != NoSuit && EffectiveSuit(c, trump) == trump
}

// TrumpPower orders cards within the trump suit:
// right bower > left bower > A > K > Q > T > 9.
// Returns 0 for non-trump cards.
func TrumpPower(c Card, trump Suit) int {
	if !IsTrump(c, trump) {
		return 0
	}
	if IsRightBower(c, trump) {
		return 7
	}
	if IsLeftBower(c, trump) {
		return 6
	}
	switch c.Rank {
	case Ace:
		return 5
	case King:
		return 4
	case Queen:
		return 3
	case Ten:
		return 2
	default: // Nine
		return 1
	}
}

// OffSuitPower orders cards within a single non-trump suit: A > K > Q >
// J > T > 9
func OffSuitPower(c Card) int {
	return int(c.Rank)
}

// TrickPower calculates the trick-taking power of a card given the
// trump suit and the led effective suit. Trump beats the led suit,
// which beats everything else; cross-suit non-trump cards never win.
func TrickPower(c Card, trump, lead Suit) int {
	if IsTrump(c, trump) {
		return 1000 + TrumpPower(c, trump)
	}
	if EffectiveSuit(c, trump) == lead {
		return 100 + OffSuitPower(c)
	}
	return 0
}
