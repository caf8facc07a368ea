package games

import "github.com/shopspring/decimal"

var (
	suits = []string{"♠", "♥", "♦", "♣"}
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

type Card struct {
	Rank string
	Suit string
}

func (c Card) String() string {
	return c.Rank + c.Suit
}

func (c Card) Value() int {
	switch c.Rank {
	case "A":
		return 11
	case "J", "Q", "K":
		return 10
	default:
		value := 0
		for _, ch := range c.Rank {
			value = value*10 + int(ch-'0')
		}
		return value
	}
}

// NewDeck returns a shuffled 52-card deck. Cards are drawn from the end.
func NewDeck(src Source) []Card {
	src = sourceOrDefault(src)
	deck := make([]Card, 0, len(suits)*len(ranks))
	for _, suit := range suits {
		for _, rank := range ranks {
			deck = append(deck, Card{Rank: rank, Suit: suit})
		}
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// HandValue counts aces as 11 and demotes them to 1 one at a time while the hand is over 21.
func HandValue(hand []Card) int {
	total := 0
	aces := 0
	for _, card := range hand {
		total += card.Value()
		if card.Rank == "A" {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

type BlackjackState string

const (
	BlackjackDealing    BlackjackState = "dealing"
	BlackjackPlayerTurn BlackjackState = "player_turn"
	BlackjackDealerTurn BlackjackState = "dealer_turn"
	BlackjackResolved   BlackjackState = "resolved"
)

const dealerStandsOn = 17

var naturalPayout = decimal.NewFromFloat(2.5)

type Blackjack struct {
	src     Source
	deck    []Card
	player  []Card
	dealer  []Card
	wager   int64
	doubled bool
	state   BlackjackState
	outcome Outcome
}

func NewBlackjack(src Source, wager int64) *Blackjack {
	src = sourceOrDefault(src)
	return newBlackjack(src, NewDeck(src), wager)
}

func newBlackjack(src Source, deck []Card, wager int64) *Blackjack {
	b := &Blackjack{
		src:   sourceOrDefault(src),
		deck:  deck,
		wager: wager,
		state: BlackjackDealing,
	}
	b.player = append(b.player, b.draw())
	b.dealer = append(b.dealer, b.draw())
	b.player = append(b.player, b.draw())
	b.dealer = append(b.dealer, b.draw())

	if HandValue(b.player) == 21 {
		b.state = BlackjackResolved
		b.outcome = settle(GameBlackjack, KindBlackjack, b.wager, naturalPayout)
		return b
	}
	b.state = BlackjackPlayerTurn
	return b
}

func (b *Blackjack) draw() Card {
	if len(b.deck) == 0 {
		b.deck = NewDeck(b.src)
	}
	card := b.deck[len(b.deck)-1]
	b.deck = b.deck[:len(b.deck)-1]
	return card
}

func (b *Blackjack) Hit() error {
	if b.state != BlackjackPlayerTurn {
		return b.stateError()
	}
	b.player = append(b.player, b.draw())
	value := HandValue(b.player)
	switch {
	case value > 21:
		b.resolve()
	case value == 21:
		b.dealerTurn()
	}
	return nil
}

func (b *Blackjack) Stand() error {
	if b.state != BlackjackPlayerTurn {
		return b.stateError()
	}
	b.dealerTurn()
	return nil
}

func (b *Blackjack) CanDouble() bool {
	return b.state == BlackjackPlayerTurn && len(b.player) == 2 && !b.doubled
}

// Double doubles the wager, draws exactly one card and hands over to the dealer.
// The extra stake must already be charged by the caller.
func (b *Blackjack) Double() error {
	if !b.CanDouble() {
		if b.state == BlackjackResolved {
			return ErrGameOver
		}
		return ErrInvalidAction
	}
	b.doubled = true
	b.wager *= 2
	b.player = append(b.player, b.draw())
	if HandValue(b.player) > 21 {
		b.resolve()
		return nil
	}
	b.dealerTurn()
	return nil
}

func (b *Blackjack) dealerTurn() {
	b.state = BlackjackDealerTurn
	for HandValue(b.dealer) < dealerStandsOn && HandValue(b.player) <= 21 {
		b.dealer = append(b.dealer, b.draw())
	}
	b.resolve()
}

func (b *Blackjack) resolve() {
	player := HandValue(b.player)
	dealer := HandValue(b.dealer)
	b.state = BlackjackResolved
	switch {
	case player > 21:
		b.outcome = lost(GameBlackjack, KindBust, b.wager)
	case dealer > 21 || player > dealer:
		b.outcome = settle(GameBlackjack, KindWin, b.wager, evenMoney)
	case player == dealer:
		b.outcome = settle(GameBlackjack, KindPush, b.wager, push)
	default:
		b.outcome = lost(GameBlackjack, KindLose, b.wager)
	}
}

func (b *Blackjack) stateError() error {
	if b.state == BlackjackResolved {
		return ErrGameOver
	}
	return ErrInvalidAction
}

func (b *Blackjack) State() BlackjackState { return b.state }

func (b *Blackjack) Wager() int64 { return b.wager }

func (b *Blackjack) Doubled() bool { return b.doubled }

func (b *Blackjack) PlayerHand() []Card { return append([]Card(nil), b.player...) }

func (b *Blackjack) DealerHand() []Card { return append([]Card(nil), b.dealer...) }

func (b *Blackjack) Outcome() (Outcome, bool) {
	if b.state != BlackjackResolved {
		return Outcome{}, false
	}
	return b.outcome, true
}
