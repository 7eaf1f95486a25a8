package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LastOp is the most recent financial operation inside the reported window:
// the context row at the top of a result card.
type LastOp struct {
	Type        string          `json:"type"` // DEPOSIT | BONUS | ADJUSTMENT
	At          time.Time       `json:"at"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method,omitempty"`
	BonusDetail string          `json:"bonus_detail,omitempty"`
	BonusKind   string          `json:"bonus_kind,omitempty"`
}

// Report is the single-cycle result shape. It is computed fresh per request
// and never mutated after construction.
type Report struct {
	MemberID   string `json:"member_id"`
	CycleIndex int    `json:"cycle_index"`

	LastOp LastOp `json:"last_op"`
	Window Window `json:"window"`

	Wager       WagerSummary    `json:"wager"`
	Requirement decimal.Decimal `json:"requirement"`
	Remaining   decimal.Decimal `json:"remaining"`
	BonusTotal  decimal.Decimal `json:"bonus_total"`

	Settlement       SettlementSummary `json:"settlement"`
	GlobalSettlement SettlementSummary `json:"global_settlement"`

	TopGamesByProfit     []RankingEntry `json:"top_games_by_profit"`
	TopProvidersByProfit []RankingEntry `json:"top_providers_by_profit"`
}

// Brief is the cycle-range result shape. The range may collapse to a single
// index. Wager and profit rankings are separate lists because they can
// legitimately differ.
type Brief struct {
	MemberID  string `json:"member_id"`
	CycleFrom int    `json:"cycle_from"`
	CycleTo   int    `json:"cycle_to"`

	LastOp LastOp `json:"last_op"`
	Window Window `json:"window"`

	Wager       WagerSummary    `json:"wager"`
	Requirement decimal.Decimal `json:"requirement"`
	Remaining   decimal.Decimal `json:"remaining"`

	Settlement       SettlementSummary `json:"settlement"`
	GlobalSettlement SettlementSummary `json:"global_settlement"`

	TopGamesByWager      []RankingEntry `json:"top_games_by_wager"`
	TopGamesByProfit     []RankingEntry `json:"top_games_by_profit"`
	TopProvidersByWager  []RankingEntry `json:"top_providers_by_wager"`
	TopProvidersByProfit []RankingEntry `json:"top_providers_by_profit"`
}

// CycleIndexEntry populates the caller's cycle selector. The label carries
// no currency or locale formatting; callers format the raw fields.
type CycleIndexEntry struct {
	Index         int             `json:"index"`
	StartAt       time.Time       `json:"start_at"`
	EndAt         *time.Time      `json:"end_at,omitempty"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Label         string          `json:"label"`
}

// ProfitRow attributes one settled bet to the balance that funded it.
type ProfitRow struct {
	At     time.Time       `json:"at"`
	Source string          `json:"source"` // MAIN | BONUS | ADJUSTMENT
	Amount decimal.Decimal `json:"amount"`
	Detail string          `json:"detail,omitempty"`
	Ref    string          `json:"ref,omitempty"`
}

// bonusKind buckets a bonus description for the back office. The keyword
// lists cover the Turkish-language exports these reports come from.
func bonusKind(text string) string {
	s := strings.ToLower(text)
	switch {
	case containsAny(s, "trial", "deneme"):
		return "trial"
	case containsAny(s, "freespin", "free", "spin"):
		return "freespin"
	case containsAny(s, "cashback", "kayıp", "kayip", "loss"):
		return "cashback"
	case containsAny(s, "deposit", "yatırım", "yatirim"):
		return "deposit"
	default:
		return "other"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// lastFinancialOp finds the latest DEPOSIT/BONUS/ADJUSTMENT inside the
// window. A cycle always opens with a deposit, so the fallback only fires
// for degenerate windows.
func lastFinancialOp(events []Event, w Window) LastOp {
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if !w.Contains(ev.At) {
			continue
		}
		switch ev.Kind {
		case KindDeposit:
			return LastOp{Type: string(KindDeposit), At: ev.At, Amount: ev.Amount, Method: paymentLabel(ev)}
		case KindAdjustment:
			return LastOp{Type: string(KindAdjustment), At: ev.At, Amount: ev.Amount, Method: paymentLabel(ev)}
		case KindBonus:
			detail := ev.BonusName
			if detail == "" {
				detail = ev.Details
			}
			return LastOp{
				Type:        string(KindBonus),
				At:          ev.At,
				Amount:      ev.Amount,
				BonusDetail: detail,
				BonusKind:   bonusKind(detail),
			}
		}
	}
	return LastOp{Type: string(KindDeposit), At: w.From, Amount: decimal.Zero}
}

// bonusTotal sums BONUS credits inside the window.
func bonusTotal(events []Event, w Window) decimal.Decimal {
	total := decimal.Zero
	for _, ev := range events {
		if ev.Kind == KindBonus && w.Contains(ev.At) {
			total = total.Add(ev.Amount)
		}
	}
	return total
}

// remaining floors the unmet requirement at zero.
func remaining(requirement, wagerTotal decimal.Decimal) decimal.Decimal {
	r := requirement.Sub(wagerTotal)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// BuildReport assembles the single-cycle report for one member.
func BuildReport(memberID string, events []Event, cycles []Cycle, bets []Bet, cycleIndex int, opts Options) (*Report, error) {
	w, err := cycleWindow(cycles, cycleIndex)
	if err != nil {
		return nil, err
	}
	wager, err := Aggregate(w, bets, opts.BonusWagerMode)
	if err != nil {
		return nil, err
	}
	req := cycles[cycleIndex-1].DepositAmount.Abs().Mul(opts.multiplier())
	threshold := opts.threshold()
	return &Report{
		MemberID:             memberID,
		CycleIndex:           cycleIndex,
		LastOp:               lastFinancialOp(events, w),
		Window:               w,
		Wager:                wager,
		Requirement:          req,
		Remaining:            remaining(req, wager.WagerTotal),
		BonusTotal:           bonusTotal(events, w),
		Settlement:           Track(w, bets, threshold),
		GlobalSettlement:     Track(globalWindow(), bets, threshold),
		TopGamesByProfit:     Rank(w, bets, DimensionGame, MetricProfit, opts.topN()),
		TopProvidersByProfit: Rank(w, bets, DimensionProvider, MetricProfit, opts.topN()),
	}, nil
}

// BuildBrief assembles the cycle-range brief for one member.
func BuildBrief(memberID string, events []Event, cycles []Cycle, bets []Bet, from, to int, opts Options) (*Brief, error) {
	w, err := rangeWindow(cycles, from, to)
	if err != nil {
		return nil, err
	}
	wager, err := Aggregate(w, bets, opts.BonusWagerMode)
	if err != nil {
		return nil, err
	}
	req := decimal.Zero
	for _, c := range cycles[from-1 : to] {
		req = req.Add(c.DepositAmount.Abs())
	}
	req = req.Mul(opts.multiplier())
	threshold := opts.threshold()
	return &Brief{
		MemberID:             memberID,
		CycleFrom:            from,
		CycleTo:              to,
		LastOp:               lastFinancialOp(events, w),
		Window:               w,
		Wager:                wager,
		Requirement:          req,
		Remaining:            remaining(req, wager.WagerTotal),
		Settlement:           Track(w, bets, threshold),
		GlobalSettlement:     Track(globalWindow(), bets, threshold),
		TopGamesByWager:      Rank(w, bets, DimensionGame, MetricWager, opts.topN()),
		TopGamesByProfit:     Rank(w, bets, DimensionGame, MetricProfit, opts.topN()),
		TopProvidersByWager:  Rank(w, bets, DimensionProvider, MetricWager, opts.topN()),
		TopProvidersByProfit: Rank(w, bets, DimensionProvider, MetricProfit, opts.topN()),
	}, nil
}

// BuildCycleIndex lists a member's cycles for the caller's selector.
func BuildCycleIndex(cycles []Cycle) []CycleIndexEntry {
	entries := make([]CycleIndexEntry, 0, len(cycles))
	for _, c := range cycles {
		label := c.StartAt.Format(time.RFC3339) + " • " + c.DepositAmount.String()
		if c.PaymentMethod != "" {
			label += " • [" + c.PaymentMethod + "]"
		}
		entries = append(entries, CycleIndexEntry{
			Index:         c.Index,
			StartAt:       c.StartAt,
			EndAt:         c.EndAt,
			DepositAmount: c.DepositAmount,
			PaymentMethod: c.PaymentMethod,
			Label:         label,
		})
	}
	return entries
}

// BuildProfitStream lists settlements inside the cycle window together with
// the balance that funded each bet, ordered by settle time.
func BuildProfitStream(cycles []Cycle, bets []Bet, cycleIndex int) ([]ProfitRow, error) {
	w, err := cycleWindow(cycles, cycleIndex)
	if err != nil {
		return nil, err
	}
	var rows []ProfitRow
	for i := range bets {
		b := &bets[i]
		if b.Settled == nil || !w.Contains(b.Settled.At) {
			continue
		}
		rows = append(rows, ProfitRow{
			At:     b.Settled.At,
			Source: b.Source,
			Amount: b.Settled.Amount,
			Detail: b.SourceDetail,
			Ref:    b.Ref,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].At.Before(rows[j].At) })
	return rows, nil
}
