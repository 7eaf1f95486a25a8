package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type OpenItem struct {
	Ref      string          `json:"ref"`
	PlacedAt time.Time       `json:"placed_at"`
	Amount   decimal.Decimal `json:"amount"`
}

type LateItem struct {
	Ref           string          `json:"ref"`
	PlacedAt      time.Time       `json:"placed_at"`
	SettledAt     time.Time       `json:"settled_at"`
	GapMinutes    float64         `json:"gap_minutes"`
	PlacedAmount  decimal.Decimal `json:"placed_amount"`
	SettledAmount decimal.Decimal `json:"settled_amount"`
}

// SettlementSummary classifies every bet in scope into exactly one of
// open, late-gap, on-time-settled, or missing-placed. Item lists carry the
// full sets; display capping is the consumer's concern.
type SettlementSummary struct {
	OpenCount       int             `json:"open_count"`
	OpenTotalAmount decimal.Decimal `json:"open_total_amount"`
	OpenItems       []OpenItem      `json:"open_items"`

	LateGapCount        int        `json:"late_gap_count"`
	LateGapTotalMinutes float64    `json:"late_gap_total_minutes"`
	LateItems           []LateItem `json:"late_items"`

	OnTimeCount int `json:"on_time_count"`

	MissingPlacedCount int      `json:"missing_placed_count"`
	MissingPlacedRefs  []string `json:"missing_placed_refs"`
}

// Track classifies bets placed inside the window. Missing-placed anomalies
// are always reported over the member's full history, even for a
// single-cycle scope: a settlement with no placement is a cross-cycle
// data problem, not a property of the queried window.
func Track(w Window, bets []Bet, threshold time.Duration) SettlementSummary {
	out := SettlementSummary{OpenTotalAmount: decimal.Zero}
	for i := range bets {
		b := &bets[i]
		if b.MissingPlaced() {
			out.MissingPlacedCount++
			out.MissingPlacedRefs = append(out.MissingPlacedRefs, b.Ref)
			continue
		}
		if b.Placed == nil || !w.Contains(b.Placed.At) {
			continue
		}
		if b.Open() {
			out.OpenCount++
			out.OpenTotalAmount = out.OpenTotalAmount.Add(b.Stake())
			out.OpenItems = append(out.OpenItems, OpenItem{
				Ref:      b.Ref,
				PlacedAt: b.Placed.At,
				Amount:   b.Stake(),
			})
			continue
		}
		gap := b.Gap()
		if gap > threshold {
			out.LateGapCount++
			out.LateGapTotalMinutes += gap.Minutes()
			out.LateItems = append(out.LateItems, LateItem{
				Ref:           b.Ref,
				PlacedAt:      b.Placed.At,
				SettledAt:     b.Settled.At,
				GapMinutes:    gap.Minutes(),
				PlacedAmount:  b.Placed.Amount,
				SettledAmount: b.Settled.Amount,
			})
			continue
		}
		out.OnTimeCount++
	}
	sort.Strings(out.MissingPlacedRefs)
	return out
}
