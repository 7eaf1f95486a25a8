package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cycle is the span of a member's activity between one qualifying deposit
// and the next. The most recent cycle stays open (EndAt nil) until another
// deposit arrives.
type Cycle struct {
	Index         int             `json:"index"`
	StartAt       time.Time       `json:"start_at"`
	EndAt         *time.Time      `json:"end_at,omitempty"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
}

// Segment partitions one member's ordered event stream into cycles. Every
// DEPOSIT starts a new cycle and closes the previous one at its timestamp;
// indices are 1-based and chronological. Zero deposits yield zero cycles:
// everything is pre-cycle and only visible to global aggregates.
func Segment(events []Event) []Cycle {
	var cycles []Cycle
	for _, ev := range events {
		if ev.Kind != KindDeposit {
			continue
		}
		if n := len(cycles); n > 0 {
			end := ev.At
			cycles[n-1].EndAt = &end
		}
		cycles = append(cycles, Cycle{
			Index:         len(cycles) + 1,
			StartAt:       ev.At,
			DepositAmount: ev.Amount,
			PaymentMethod: paymentLabel(ev),
		})
	}
	return cycles
}

// paymentLabel joins the payment method and free-text details the way the
// back office displays them.
func paymentLabel(ev Event) string {
	switch {
	case ev.PaymentMethod != "" && ev.Details != "":
		return ev.PaymentMethod + " / " + ev.Details
	case ev.PaymentMethod != "":
		return ev.PaymentMethod
	default:
		return ev.Details
	}
}

// Window is a half-open time span [From, To). A nil To means unbounded; a
// zero From means the window opens at the beginning of history.
type Window struct {
	From time.Time  `json:"from"`
	To   *time.Time `json:"to,omitempty"`
}

func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if w.To != nil && !t.Before(*w.To) {
		return false
	}
	return true
}

// globalWindow covers the member's entire history.
func globalWindow() Window { return Window{} }

func (w Window) validate() error {
	if w.To != nil && w.To.Before(w.From) {
		return internalErrorf("window ends %s before it starts %s", w.To, w.From)
	}
	return nil
}

// cycleWindow resolves a 1-based cycle index against the segmented cycles.
func cycleWindow(cycles []Cycle, index int) (Window, error) {
	if index < 1 || index > len(cycles) {
		return Window{}, requestErrorf(ErrInvalidCycleIndex, "cycle %d of %d", index, len(cycles))
	}
	c := cycles[index-1]
	return Window{From: c.StartAt, To: c.EndAt}, nil
}

// rangeWindow resolves an inclusive 1-based cycle range. Cycles are
// contiguous, so the union of [from..to] is a single window bounded by the
// first cycle's start and the last cycle's end.
func rangeWindow(cycles []Cycle, from, to int) (Window, error) {
	if from > to {
		return Window{}, requestErrorf(ErrInvalidRange, "start %d after end %d", from, to)
	}
	if from < 1 || to > len(cycles) {
		return Window{}, requestErrorf(ErrInvalidRange, "cycles %d..%d of %d", from, to, len(cycles))
	}
	first := cycles[from-1]
	last := cycles[to-1]
	return Window{From: first.StartAt, To: last.EndAt}, nil
}
