package engine

import (
	"github.com/shopspring/decimal"
)

// BonusWagerMode controls whether bonus-funded stakes count toward the main
// wager total or are tracked as a separate pool. This is a deliberate
// configuration choice, never inferred from the data.
type BonusWagerMode string

const (
	BonusWagerMerged   BonusWagerMode = "merged"
	BonusWagerSeparate BonusWagerMode = "separate"
)

// WagerSummary holds decimal-accumulated totals for one window. Summation
// order never affects the result.
type WagerSummary struct {
	WagerTotal      decimal.Decimal `json:"wager_total"`
	WagerCount      int             `json:"wager_count"`
	ProfitTotal     decimal.Decimal `json:"profit_total"`
	BonusWagerTotal decimal.Decimal `json:"bonus_wager_total"`
}

// Aggregate sums wager volume and settled profit for bets placed inside the
// window. Open bets contribute stake but zero profit until they settle.
func Aggregate(w Window, bets []Bet, mode BonusWagerMode) (WagerSummary, error) {
	if err := w.validate(); err != nil {
		return WagerSummary{}, err
	}
	out := WagerSummary{
		WagerTotal:      decimal.Zero,
		ProfitTotal:     decimal.Zero,
		BonusWagerTotal: decimal.Zero,
	}
	for i := range bets {
		b := &bets[i]
		if b.Placed == nil || !w.Contains(b.Placed.At) {
			continue
		}
		stake := b.Stake()
		if mode == BonusWagerSeparate && b.Source == SourceBonus {
			out.BonusWagerTotal = out.BonusWagerTotal.Add(stake)
		} else {
			out.WagerTotal = out.WagerTotal.Add(stake)
		}
		out.WagerCount++
		out.ProfitTotal = out.ProfitTotal.Add(b.Profit())
	}
	if out.WagerTotal.IsNegative() {
		return WagerSummary{}, internalErrorf("negative wager total %s", out.WagerTotal)
	}
	return out, nil
}
