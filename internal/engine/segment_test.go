package engine

import (
	"testing"
)

func TestSegmentBoundsAndIndices(t *testing.T) {
	events := []Event{
		placed("M1", 0, 10, "PRE", "Slots", "Acme"), // pre-cycle
		deposit("M1", 5, 1000, "Visa"),
		placed("M1", 10, 100, "B1", "Slots", "Acme"),
		deposit("M1", 60, 500, "Wire"),
		placed("M1", 70, 50, "B2", "Slots", "Acme"),
	}
	cycles := Segment(events)
	if len(cycles) != 2 {
		t.Fatalf("cycles=%d want=2", len(cycles))
	}
	first, second := cycles[0], cycles[1]
	if first.Index != 1 || second.Index != 2 {
		t.Fatalf("indices=%d,%d want=1,2", first.Index, second.Index)
	}
	if !first.StartAt.Equal(at(5)) {
		t.Fatalf("first start=%s want=%s", first.StartAt, at(5))
	}
	if first.EndAt == nil || !first.EndAt.Equal(at(60)) {
		t.Fatalf("first end=%v want=%s", first.EndAt, at(60))
	}
	if second.EndAt != nil {
		t.Fatalf("most recent cycle must stay open, got end=%v", second.EndAt)
	}
	if first.DepositAmount.Cmp(dec(1000)) != 0 {
		t.Fatalf("deposit=%s want=1000", first.DepositAmount)
	}
	if first.PaymentMethod != "Visa" {
		t.Fatalf("method=%q want=Visa", first.PaymentMethod)
	}
	// Non-overlapping and contiguous: first cycle ends exactly where the
	// second starts.
	if !first.EndAt.Equal(second.StartAt) {
		t.Fatalf("cycles not contiguous: %s vs %s", first.EndAt, second.StartAt)
	}
}

func TestSegmentCoversEverythingFromFirstDeposit(t *testing.T) {
	events := []Event{
		deposit("M1", 0, 100, ""),
		placed("M1", 1, 10, "A", "", ""),
		deposit("M1", 2, 200, ""),
		placed("M1", 3, 10, "B", "", ""),
		deposit("M1", 4, 300, ""),
		placed("M1", 5, 10, "C", "", ""),
	}
	cycles := Segment(events)
	for _, ev := range events {
		covered := 0
		for _, c := range cycles {
			w := Window{From: c.StartAt, To: c.EndAt}
			if w.Contains(ev.At) {
				covered++
			}
		}
		if covered != 1 {
			t.Fatalf("event at %s covered by %d cycles, want exactly 1", ev.At, covered)
		}
	}
}

func TestSegmentZeroDeposits(t *testing.T) {
	events := []Event{
		placed("M1", 0, 10, "A", "", ""),
		settled("M1", 1, 20, "A", "", ""),
	}
	if cycles := Segment(events); len(cycles) != 0 {
		t.Fatalf("cycles=%d want=0", len(cycles))
	}
}

func TestSegmentIdenticalTimestampDeposits(t *testing.T) {
	events := []Event{
		deposit("M1", 0, 100, "First"),
		deposit("M1", 0, 200, "Second"),
	}
	cycles := Segment(events)
	if len(cycles) != 2 {
		t.Fatalf("cycles=%d want=2", len(cycles))
	}
	if cycles[0].PaymentMethod != "First" {
		t.Fatalf("input order must win the boundary tie, got %q first", cycles[0].PaymentMethod)
	}
	if cycles[0].EndAt == nil || !cycles[0].EndAt.Equal(cycles[1].StartAt) {
		t.Fatalf("tie cycles must stay contiguous")
	}
}

func TestCycleWindowErrors(t *testing.T) {
	cycles := Segment([]Event{deposit("M1", 0, 100, "")})
	if _, err := cycleWindow(cycles, 0); err == nil {
		t.Fatalf("expected invalid_cycle_index for 0")
	}
	if _, err := cycleWindow(cycles, 2); err == nil {
		t.Fatalf("expected invalid_cycle_index for 2")
	}
	_, err := cycleWindow(cycles, 2)
	reqErr, ok := AsRequestError(err)
	if !ok || reqErr.Kind != ErrInvalidCycleIndex {
		t.Fatalf("err=%v want kind=%s", err, ErrInvalidCycleIndex)
	}
}

func TestRangeWindowErrors(t *testing.T) {
	cycles := Segment([]Event{
		deposit("M1", 0, 100, ""),
		deposit("M1", 10, 100, ""),
	})
	if _, err := rangeWindow(cycles, 2, 1); err == nil {
		t.Fatalf("expected invalid_range for start > end")
	}
	_, err := rangeWindow(cycles, 2, 1)
	reqErr, ok := AsRequestError(err)
	if !ok || reqErr.Kind != ErrInvalidRange {
		t.Fatalf("err=%v want kind=%s", err, ErrInvalidRange)
	}
	if _, err := rangeWindow(cycles, 1, 3); err == nil {
		t.Fatalf("expected invalid_range for out-of-bounds end")
	}
	w, err := rangeWindow(cycles, 1, 2)
	if err != nil {
		t.Fatalf("range 1..2: %v", err)
	}
	if !w.From.Equal(at(0)) || w.To != nil {
		t.Fatalf("range window=%+v want from=%s open-ended", w, at(0))
	}
}
