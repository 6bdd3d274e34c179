package deck

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	rand "math/rand/v2"
	"sync"

	"buckeuchre/internal/randutil"
)

// Size is the number of cards in the buck euchre deck
const Size = 24

// New returns the full 24-card deck in canonical order
func New() []Card {
	cards := make([]Card, 0, Size)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// Deal is one round's worth of randomness: a full shuffled deck plus
// the dealer position for the first round of a game. Later rounds take
// the dealer from the previous round.
type Deal struct {
	Cards  []Card
	Dealer int
}

// DealSource provides deck orderings and the initial dealer. The
// default source shuffles with crypto-seeded randomness; tests and the
// dev endpoints substitute a pinned source.
type DealSource interface {
	NextDeal() Deal
}

// CryptoDealSource shuffles with a PCG seeded from crypto/rand per
// deal, so deck orderings are unpredictable across games and rounds.
type CryptoDealSource struct{}

// NewCryptoDealSource creates the default production deal source
func NewCryptoDealSource() *CryptoDealSource {
	return &CryptoDealSource{}
}

// NextDeal returns a freshly shuffled deck and a random dealer
func (s *CryptoDealSource) NextDeal() Deal {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}
	rng := randutil.New(int64(binary.LittleEndian.Uint64(buf[:])))

	cards := New()
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return Deal{Cards: cards, Dealer: rng.IntN(4)}
}

// SeededDealSource shuffles with a deterministic seed. Used by AI
// determinization and by tests that need reproducible decks.
type SeededDealSource struct {
	rng *rand.Rand
}

// NewSeededDealSource creates a deal source seeded from the given value
func NewSeededDealSource(seed int64) *SeededDealSource {
	return &SeededDealSource{rng: randutil.New(seed)}
}

// NextDeal returns the next deterministic shuffle
func (s *SeededDealSource) NextDeal() Deal {
	cards := New()
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return Deal{Cards: cards, Dealer: s.rng.IntN(4)}
}

// FixedDealSource lets tests and the dev endpoints pin the next deck
// ordering and/or the dealer position. Unpinned values fall back to the
// wrapped source. Pinned decks are consumed one deal at a time.
type FixedDealSource struct {
	mu       sync.Mutex
	fallback DealSource
	decks    [][]Card
	dealer   *int
}

// NewFixedDealSource creates a pinnable deal source over a fallback
func NewFixedDealSource(fallback DealSource) *FixedDealSource {
	return &FixedDealSource{fallback: fallback}
}

// PinDeck queues a deck ordering for the next deal. Passing nil clears
// all queued decks.
func (s *FixedDealSource) PinDeck(cards []Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cards == nil {
		s.decks = nil
		return
	}
	queued := make([]Card, len(cards))
	copy(queued, cards)
	s.decks = append(s.decks, queued)
}

// PinDealer fixes the dealer position for future deals. Passing nil
// clears the pin.
func (s *FixedDealSource) PinDealer(position *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position == nil {
		s.dealer = nil
		return
	}
	p := *position
	s.dealer = &p
}

// NextDeal returns the next pinned deal, falling back to the wrapped
// source for anything unpinned
func (s *FixedDealSource) NextDeal() Deal {
	s.mu.Lock()
	defer s.mu.Unlock()

	deal := s.fallback.NextDeal()
	if len(s.decks) > 0 {
		deal.Cards = s.decks[0]
		s.decks = s.decks[1:]
	}
	if s.dealer != nil {
		deal.Dealer = *s.dealer
	}
	return deal
}
