package games

import "github.com/shopspring/decimal"

var SlotSymbols = []string{"🍒", "🍋", "🍊", "🍇", "💎", "7️⃣"}

// Only exact triples pay.
var slotPayouts = map[string]decimal.Decimal{
	"🍒🍒🍒":    decimal.NewFromInt(2),
	"🍋🍋🍋":    decimal.NewFromInt(3),
	"🍊🍊🍊":    decimal.NewFromInt(4),
	"🍇🍇🍇":    decimal.NewFromInt(5),
	"💎💎💎":    decimal.NewFromInt(10),
	"7️⃣7️⃣7️⃣": decimal.NewFromInt(50),
}

type Reels [3]string

func (r Reels) String() string {
	return r[0] + r[1] + r[2]
}

func SpinSlots(src Source) Reels {
	src = sourceOrDefault(src)
	var reels Reels
	for i := range reels {
		reels[i] = SlotSymbols[src.IntN(len(SlotSymbols))]
	}
	return reels
}

func SlotsMultiplier(reels Reels) (decimal.Decimal, bool) {
	mult, ok := slotPayouts[reels.String()]
	return mult, ok
}

func ResolveSlots(reels Reels, wager int64) Outcome {
	mult, ok := SlotsMultiplier(reels)
	if !ok {
		return lost(GameSlots, KindLose, wager)
	}
	return settle(GameSlots, KindWin, wager, mult)
}

// SlotsPaytable lists symbol and multiplier in alphabet order, for help embeds.
func SlotsPaytable() []SlotsLine {
	lines := make([]SlotsLine, 0, len(SlotSymbols))
	for _, symbol := range SlotSymbols {
		lines = append(lines, SlotsLine{Symbol: symbol, Multiplier: slotPayouts[symbol+symbol+symbol]})
	}
	return lines
}

type SlotsLine struct {
	Symbol     string
	Multiplier decimal.Decimal
}
