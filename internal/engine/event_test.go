package engine

import "testing"

func TestParseEventKindSpellings(t *testing.T) {
	cases := []struct {
		in   string
		want EventKind
		ok   bool
	}{
		{"DEPOSIT", KindDeposit, true},
		{"deposit", KindDeposit, true},
		{"Yatırım", KindDeposit, true},
		{"BET_PLACED", KindBetPlaced, true},
		{"stake", KindBetPlaced, true},
		{"Free Spins Bet", KindBetPlaced, true},
		{"BET_SETTLED", KindBetSettled, true},
		{"payout", KindBetSettled, true},
		{"Free Spins Winnings", KindBetSettled, true},
		{"Free Spins Given", KindBonus, true},
		{"Deneme Bonusu", KindBonus, true},
		{"withdrawal_approved", KindWithdrawalApproved, true},
		{"withdrawal_declined", KindWithdrawalDeclined, true},
		{"manual adjustment", KindAdjustment, true},
		{"", "", false},
		{"TELEPORT", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseEventKind(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseEventKind(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseEventsDropsBadRows(t *testing.T) {
	rows := []EventRow{
		{MemberID: "M1", Kind: "DEPOSIT", At: "2024-05-01 12:00:00", Amount: dec(100)},
		{MemberID: "M1", Kind: "DEPOSIT", At: "yesterday-ish", Amount: dec(50)},
		{MemberID: "", Kind: "DEPOSIT", At: "2024-05-01 12:05:00", Amount: dec(10)},
		{MemberID: "M1", Kind: "MYSTERY", At: "2024-05-01 12:06:00", Amount: dec(10)},
	}
	events, warnings := ParseEvents(rows)
	if len(events) != 1 {
		t.Fatalf("events=%d want=1", len(events))
	}
	if len(warnings) != 3 {
		t.Fatalf("warnings=%v want 3", warnings)
	}
	want := map[string]bool{WarnBadTimestamp: false, WarnMissingMember: false, WarnUnknownKind: false}
	for _, w := range warnings {
		want[w.Kind] = true
	}
	for kind, seen := range want {
		if !seen {
			t.Errorf("missing warning kind %s", kind)
		}
	}
}

func TestParseEventsAcceptsMultipleLayouts(t *testing.T) {
	rows := []EventRow{
		{MemberID: "M1", Kind: "DEPOSIT", At: "2024-05-01T12:00:00Z", Amount: dec(1)},
		{MemberID: "M1", Kind: "DEPOSIT", At: "2024-05-01 12:01:00", Amount: dec(1)},
		{MemberID: "M1", Kind: "DEPOSIT", At: "01.05.2024 12:02:00", Amount: dec(1)},
		{MemberID: "M1", Kind: "DEPOSIT", At: "01.05.2024 12:03", Amount: dec(1)},
	}
	events, warnings := ParseEvents(rows)
	if len(warnings) != 0 {
		t.Fatalf("warnings=%v want none", warnings)
	}
	if len(events) != 4 {
		t.Fatalf("events=%d want=4", len(events))
	}
}

func TestNormalizeStreamRestoresOrder(t *testing.T) {
	events := []Event{
		deposit("M1", 10, 100, ""),
		deposit("M1", 0, 50, ""),
	}
	sorted, warnings := normalizeStream("M1", events)
	if len(warnings) != 1 || warnings[0].Kind != WarnOutOfOrder {
		t.Fatalf("warnings=%v want one %s", warnings, WarnOutOfOrder)
	}
	if !sorted[0].At.Equal(at(0)) || !sorted[1].At.Equal(at(10)) {
		t.Fatalf("order=%v,%v want ascending", sorted[0].At, sorted[1].At)
	}
}

func TestNormalizeStreamKeepsTiesStable(t *testing.T) {
	events := []Event{
		deposit("M1", 5, 1, "first"),
		deposit("M1", 5, 2, "second"),
		deposit("M1", 0, 3, ""),
	}
	sorted, _ := normalizeStream("M1", events)
	if sorted[1].PaymentMethod != "first" || sorted[2].PaymentMethod != "second" {
		t.Fatalf("tie order=%q,%q want first,second", sorted[1].PaymentMethod, sorted[2].PaymentMethod)
	}
}

func TestNormalizeStreamQuietWhenOrdered(t *testing.T) {
	events := []Event{
		deposit("M1", 0, 1, ""),
		deposit("M1", 5, 1, ""),
	}
	_, warnings := normalizeStream("M1", events)
	if len(warnings) != 0 {
		t.Fatalf("warnings=%v want none", warnings)
	}
}
