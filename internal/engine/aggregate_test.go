package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAggregateWindowFiltersByPlacement(t *testing.T) {
	events := []Event{
		deposit("M1", 0, 1000, ""),
		placed("M1", 10, 100, "R1", "", ""),
		settled("M1", 15, 150, "R1", "", ""),
		deposit("M1", 60, 500, ""),
		placed("M1", 70, 200, "R2", "", ""),
	}
	cycles := Segment(events)
	bets, _ := PairBets(events)

	w1, _ := cycleWindow(cycles, 1)
	sum1, err := Aggregate(w1, bets, BonusWagerMerged)
	if err != nil {
		t.Fatalf("aggregate cycle 1: %v", err)
	}
	if sum1.WagerTotal.Cmp(dec(100)) != 0 || sum1.WagerCount != 1 {
		t.Fatalf("cycle1 wager=%s count=%d want 100/1", sum1.WagerTotal, sum1.WagerCount)
	}
	if sum1.ProfitTotal.Cmp(dec(50)) != 0 {
		t.Fatalf("cycle1 profit=%s want=50", sum1.ProfitTotal)
	}

	w2, _ := cycleWindow(cycles, 2)
	sum2, err := Aggregate(w2, bets, BonusWagerMerged)
	if err != nil {
		t.Fatalf("aggregate cycle 2: %v", err)
	}
	if sum2.WagerTotal.Cmp(dec(200)) != 0 {
		t.Fatalf("cycle2 wager=%s want=200", sum2.WagerTotal)
	}
	// Open bet contributes zero profit until settled.
	if sum2.ProfitTotal.Cmp(decimal.Zero) != 0 {
		t.Fatalf("cycle2 profit=%s want=0", sum2.ProfitTotal)
	}
}

func TestAggregateRangeAdditivity(t *testing.T) {
	events := []Event{
		deposit("M1", 0, 100, ""),
		placed("M1", 5, 30, "A", "", ""),
		deposit("M1", 10, 100, ""),
		placed("M1", 15, 70, "B", "", ""),
		deposit("M1", 20, 100, ""),
		placed("M1", 25, 110, "C", "", ""),
	}
	cycles := Segment(events)
	bets, _ := PairBets(events)

	total := decimal.Zero
	for i := 1; i <= 3; i++ {
		w, _ := cycleWindow(cycles, i)
		sum, err := Aggregate(w, bets, BonusWagerMerged)
		if err != nil {
			t.Fatalf("aggregate cycle %d: %v", i, err)
		}
		total = total.Add(sum.WagerTotal)
	}
	w, _ := rangeWindow(cycles, 1, 3)
	sum, err := Aggregate(w, bets, BonusWagerMerged)
	if err != nil {
		t.Fatalf("aggregate range: %v", err)
	}
	if sum.WagerTotal.Cmp(total) != 0 {
		t.Fatalf("range wager=%s want sum of singles %s", sum.WagerTotal, total)
	}
}

func TestAggregateNegativeStakeRowsCountAbsolute(t *testing.T) {
	events := []Event{
		deposit("M1", 0, 100, ""),
		placed("M1", 1, -40, "R1", "", ""), // ledger-style negative stake
	}
	cycles := Segment(events)
	bets, _ := PairBets(events)
	w, _ := cycleWindow(cycles, 1)
	sum, err := Aggregate(w, bets, BonusWagerMerged)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if sum.WagerTotal.Cmp(dec(40)) != 0 {
		t.Fatalf("wager=%s want=40", sum.WagerTotal)
	}
}

func TestAggregateRejectsInvertedWindow(t *testing.T) {
	events := []Event{
		deposit("M1", 0, 100, ""),
		placed("M1", 1, 10, "R1", "", ""),
	}
	bets, _ := PairBets(events)

	to := at(0)
	w := Window{From: at(10), To: &to}
	_, err := Aggregate(w, bets, BonusWagerMerged)
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("err=%v want wrapped %v", err, ErrInternal)
	}
	// An inverted window is a bug, not bad input: it must never surface
	// as a request error the caller could blame on the upload.
	if _, ok := AsRequestError(err); ok {
		t.Fatalf("err=%v must not classify as a request error", err)
	}
}

func TestAggregateSeparateBonusWagerPool(t *testing.T) {
	events := []Event{
		deposit("M1", 0, 100, ""),
		placed("M1", 1, 60, "R1", "", ""),
		bonus("M1", 2, 50, "Promo"),
		placed("M1", 3, 40, "R2", "", ""),
	}
	cycles := Segment(events)
	bets, _ := PairBets(events)
	w, _ := cycleWindow(cycles, 1)

	merged, err := Aggregate(w, bets, BonusWagerMerged)
	if err != nil {
		t.Fatalf("merged: %v", err)
	}
	if merged.WagerTotal.Cmp(dec(100)) != 0 || merged.BonusWagerTotal.Cmp(decimal.Zero) != 0 {
		t.Fatalf("merged wager=%s bonus=%s want 100/0", merged.WagerTotal, merged.BonusWagerTotal)
	}

	separate, err := Aggregate(w, bets, BonusWagerSeparate)
	if err != nil {
		t.Fatalf("separate: %v", err)
	}
	if separate.WagerTotal.Cmp(dec(60)) != 0 || separate.BonusWagerTotal.Cmp(dec(40)) != 0 {
		t.Fatalf("separate wager=%s bonus=%s want 60/40", separate.WagerTotal, separate.BonusWagerTotal)
	}
	if separate.WagerCount != 2 {
		t.Fatalf("count=%d want=2 in both modes", separate.WagerCount)
	}
}
