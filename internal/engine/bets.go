package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Funding sources for bet/profit attribution.
const (
	SourceMain       = "MAIN"
	SourceBonus      = "BONUS"
	SourceAdjustment = "ADJUSTMENT"
)

// Bet pairs a BET_PLACED event with its optional BET_SETTLED counterpart by
// reference id. A bet missing its settlement is open; a settlement missing
// its placement anywhere in the member's history is a missing-placed
// anomaly.
type Bet struct {
	Ref     string
	Placed  *Event
	Settled *Event

	// Funding attribution of the placement (or the settlement for
	// missing-placed anomalies): the nearest preceding financial event.
	Source       string
	SourceDetail string
}

func (b *Bet) Open() bool          { return b.Placed != nil && b.Settled == nil }
func (b *Bet) MissingPlaced() bool { return b.Placed == nil && b.Settled != nil }
func (b *Bet) SettledBoth() bool   { return b.Placed != nil && b.Settled != nil }

// Stake is the wager amount of the placement. Exports ledger the stake with
// either sign, so the absolute value is what counts toward a requirement.
func (b *Bet) Stake() decimal.Decimal {
	if b.Placed == nil {
		return decimal.Zero
	}
	return b.Placed.Amount.Abs()
}

// Profit is settled amount minus stake; zero until the bet settles.
func (b *Bet) Profit() decimal.Decimal {
	if !b.SettledBoth() {
		return decimal.Zero
	}
	return b.Settled.Amount.Sub(b.Stake())
}

// Gap is the placed-to-settled delay; zero unless both sides exist.
func (b *Bet) Gap() time.Duration {
	if !b.SettledBoth() {
		return 0
	}
	return b.Settled.At.Sub(b.Placed.At)
}

func (b *Bet) GameName() string {
	if b.Placed != nil && b.Placed.GameName != "" {
		return b.Placed.GameName
	}
	if b.Settled != nil {
		return b.Settled.GameName
	}
	return ""
}

func (b *Bet) ProviderName() string {
	if b.Placed != nil && b.Placed.ProviderName != "" {
		return b.Placed.ProviderName
	}
	if b.Settled != nil {
		return b.Settled.ProviderName
	}
	return ""
}

// betKey returns the pairing key for a bet event. Rows without any
// reference fall back to a synthetic per-row key so they only ever pair
// with themselves.
func betKey(ev Event, row int) string {
	if ev.ReferenceID != "" {
		return "R:" + ev.ReferenceID
	}
	return fmt.Sprintf("F:%d", row)
}

// PairBets matches placements to settlements over the member's full
// history. The placement index is built once per member, so a cycle-scoped
// query still sees cross-cycle pairings; duplicate placed references keep
// the earliest event and warn, matching how partially corrupt exports are
// tolerated elsewhere.
func PairBets(events []Event) ([]Bet, []Warning) {
	var warnings []Warning

	// Nearest preceding financial event per row, for funding attribution.
	lastFin := make([]int, len(events))
	fin := -1
	for i, ev := range events {
		switch ev.Kind {
		case KindDeposit, KindBonus:
			fin = i
		case KindAdjustment:
			if ev.Amount.IsPositive() {
				fin = i
			}
		}
		lastFin[i] = fin
	}

	// Full-history placement index: earliest placement wins per key.
	placedRows := make(map[string]int)
	var placedOrder []int
	for i, ev := range events {
		if ev.Kind != KindBetPlaced {
			continue
		}
		key := betKey(ev, i)
		if _, ok := placedRows[key]; ok {
			warnings = append(warnings, Warning{
				Kind:   WarnDuplicateRef,
				Detail: fmt.Sprintf("reference %s placed again at %s; keeping the earliest", ev.ReferenceID, ev.At.Format(time.RFC3339)),
			})
			continue
		}
		placedRows[key] = i
		placedOrder = append(placedOrder, i)
	}

	bets := make([]Bet, 0, len(placedOrder))
	betIdxByKey := make(map[string]int, len(placedOrder))
	for _, row := range placedOrder {
		ev := &events[row]
		source, detail := fundingSource(events, lastFin, row)
		bets = append(bets, Bet{
			Ref:          displayRef(*ev, row),
			Placed:       ev,
			Source:       source,
			SourceDetail: detail,
		})
		betIdxByKey[betKey(*ev, row)] = len(bets) - 1
	}

	for i := range events {
		ev := &events[i]
		if ev.Kind != KindBetSettled {
			continue
		}
		if idx, ok := betIdxByKey[betKey(*ev, i)]; ok && ev.ReferenceID != "" {
			if bets[idx].Settled != nil {
				warnings = append(warnings, Warning{
					Kind:   WarnDuplicateRef,
					Detail: fmt.Sprintf("reference %s settled more than once", ev.ReferenceID),
				})
				continue
			}
			bets[idx].Settled = ev
			continue
		}
		// No placement anywhere in history: missing-placed anomaly.
		source, detail := fundingSource(events, lastFin, i)
		bets = append(bets, Bet{
			Ref:          displayRef(*ev, i),
			Settled:      ev,
			Source:       source,
			SourceDetail: detail,
		})
	}
	return bets, warnings
}

func displayRef(ev Event, row int) string {
	if ev.ReferenceID != "" {
		return ev.ReferenceID
	}
	return fmt.Sprintf("F:%d", row)
}

// fundingSource walks back to the nearest financial event: a deposit funds
// from the main balance, a bonus from the bonus pool, a positive adjustment
// from a manual credit. Default is MAIN.
func fundingSource(events []Event, lastFin []int, row int) (string, string) {
	i := lastFin[row]
	if i < 0 {
		return SourceMain, ""
	}
	ev := events[i]
	switch ev.Kind {
	case KindDeposit:
		return SourceMain, paymentLabel(ev)
	case KindBonus:
		detail := ev.BonusName
		if detail == "" {
			detail = ev.Details
		}
		if detail == "" {
			detail = "Bonus"
		}
		return SourceBonus, detail
	case KindAdjustment:
		return SourceAdjustment, paymentLabel(ev)
	}
	return SourceMain, ""
}
