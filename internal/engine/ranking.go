package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Dimension string

const (
	DimensionGame     Dimension = "game"
	DimensionProvider Dimension = "provider"
)

type Metric string

const (
	MetricWager  Metric = "wager"
	MetricProfit Metric = "profit"
)

type RankingEntry struct {
	Name        string          `json:"name"`
	WagerTotal  decimal.Decimal `json:"wager_total"`
	ProfitTotal decimal.Decimal `json:"profit_total"`
}

// Rank groups bets placed in the window by game or provider name, sorts
// descending by the requested metric and truncates to topN. Ties break by
// ascending name so re-running on identical input is byte-identical; this
// is mandatory, not cosmetic. topN <= 0 returns all groups.
func Rank(w Window, bets []Bet, dim Dimension, by Metric, topN int) []RankingEntry {
	totals := make(map[string]*RankingEntry)
	for i := range bets {
		b := &bets[i]
		if b.Placed == nil || !w.Contains(b.Placed.At) {
			continue
		}
		name := b.GameName()
		if dim == DimensionProvider {
			name = b.ProviderName()
		}
		if name == "" {
			continue
		}
		entry, ok := totals[name]
		if !ok {
			entry = &RankingEntry{Name: name, WagerTotal: decimal.Zero, ProfitTotal: decimal.Zero}
			totals[name] = entry
		}
		entry.WagerTotal = entry.WagerTotal.Add(b.Stake())
		entry.ProfitTotal = entry.ProfitTotal.Add(b.Profit())
	}

	entries := make([]RankingEntry, 0, len(totals))
	for _, entry := range totals {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		av, bv := a.WagerTotal, b.WagerTotal
		if by == MetricProfit {
			av, bv = a.ProfitTotal, b.ProfitTotal
		}
		if cmp := av.Cmp(bv); cmp != 0 {
			return cmp > 0
		}
		return a.Name < b.Name
	})
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}
