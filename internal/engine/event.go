package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventKind is the closed set of per-member ledger event kinds. Every
// computation in this package switches on it exhaustively.
type EventKind string

const (
	KindDeposit            EventKind = "DEPOSIT"
	KindBonus              EventKind = "BONUS"
	KindAdjustment         EventKind = "ADJUSTMENT"
	KindWithdrawalApproved EventKind = "WITHDRAWAL_APPROVED"
	KindWithdrawalDeclined EventKind = "WITHDRAWAL_DECLINED"
	KindBetPlaced          EventKind = "BET_PLACED"
	KindBetSettled         EventKind = "BET_SETTLED"
)

// EventRow is one row of the parsed transaction table as handed in by the
// loader. Timestamps arrive as strings so that a single bad cell degrades to
// a row warning instead of failing the whole upload.
type EventRow struct {
	MemberID      string          `json:"member_id"`
	Kind          string          `json:"kind"`
	At            string          `json:"at"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Details       string          `json:"details,omitempty"`
	BonusName     string          `json:"bonus_name,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	GameName      string          `json:"game_name,omitempty"`
	ProviderName  string          `json:"provider_name,omitempty"`
}

// Event is a typed, time-parsed row.
type Event struct {
	MemberID      string          `json:"member_id"`
	Kind          EventKind       `json:"kind"`
	At            time.Time       `json:"at"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Details       string          `json:"details,omitempty"`
	BonusName     string          `json:"bonus_name,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	GameName      string          `json:"game_name,omitempty"`
	ProviderName  string          `json:"provider_name,omitempty"`
}

// Warning kinds for non-fatal data-quality findings.
const (
	WarnOutOfOrder    = "out_of_order_timestamp"
	WarnBadTimestamp  = "unparseable_timestamp"
	WarnUnknownKind   = "unknown_event_kind"
	WarnMissingMember = "missing_member_id"
	WarnDuplicateRef  = "duplicate_reference_id"
)

type Warning struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
}

func parseEventTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// ParseEventKind folds the spellings seen in real exports into the closed
// kind set. Free-spin streams count as regular bet traffic; free-spin grants
// count as bonuses.
func ParseEventKind(raw string) (EventKind, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "_")
	switch {
	case s == "":
		return "", false
	case strings.Contains(s, "free_spins_settled"), strings.Contains(s, "free_spins_winnings"):
		return KindBetSettled, true
	case strings.Contains(s, "free_spins_bet"):
		return KindBetPlaced, true
	case strings.Contains(s, "free_spin_given"), strings.Contains(s, "free_spins_given"):
		return KindBonus, true
	case s == "bet_placed", strings.Contains(s, "stake"), strings.Contains(s, "wager"):
		return KindBetPlaced, true
	case s == "bet_settled", strings.Contains(s, "settled"), strings.Contains(s, "payout"):
		return KindBetSettled, true
	case s == "deposit", s == "yatirim", s == "yatırım":
		return KindDeposit, true
	case strings.Contains(s, "bonus"):
		return KindBonus, true
	case strings.Contains(s, "withdrawal_decline"):
		return KindWithdrawalDeclined, true
	case strings.Contains(s, "withdrawal"):
		return KindWithdrawalApproved, true
	case strings.Contains(s, "adjust"):
		return KindAdjustment, true
	}
	switch EventKind(strings.ToUpper(s)) {
	case KindDeposit, KindBonus, KindAdjustment, KindWithdrawalApproved, KindWithdrawalDeclined, KindBetPlaced, KindBetSettled:
		return EventKind(strings.ToUpper(s)), true
	}
	return "", false
}

// ParseEvents converts raw rows into typed events. Rows with unusable
// timestamps or kinds are dropped with a warning; out-of-order timestamps
// warn and are recovered by a stable sort so segmentation stays well-defined.
func ParseEvents(rows []EventRow) ([]Event, []Warning) {
	events := make([]Event, 0, len(rows))
	var warnings []Warning
	for i, row := range rows {
		kind, ok := ParseEventKind(row.Kind)
		if !ok {
			warnings = append(warnings, Warning{
				Kind:   WarnUnknownKind,
				Detail: fmt.Sprintf("row %d: kind %q", i, row.Kind),
			})
			continue
		}
		at, err := parseEventTime(row.At)
		if err != nil {
			warnings = append(warnings, Warning{
				Kind:   WarnBadTimestamp,
				Detail: fmt.Sprintf("row %d: %v", i, err),
			})
			continue
		}
		if strings.TrimSpace(row.MemberID) == "" {
			warnings = append(warnings, Warning{
				Kind:   WarnMissingMember,
				Detail: fmt.Sprintf("row %d has no member_id", i),
			})
			continue
		}
		events = append(events, Event{
			MemberID:      strings.TrimSpace(row.MemberID),
			Kind:          kind,
			At:            at,
			Amount:        row.Amount,
			PaymentMethod: strings.TrimSpace(row.PaymentMethod),
			Details:       strings.TrimSpace(row.Details),
			BonusName:     strings.TrimSpace(row.BonusName),
			ReferenceID:   strings.TrimSpace(row.ReferenceID),
			GameName:      strings.TrimSpace(row.GameName),
			ProviderName:  strings.TrimSpace(row.ProviderName),
		})
	}
	return events, warnings
}

// normalizeStream checks one member's timestamp monotonicity and restores it
// with a stable sort when violated. Input order is the tie-break, so two
// events at the same instant keep their upload order.
func normalizeStream(memberID string, events []Event) ([]Event, []Warning) {
	var warnings []Warning
	for i := 1; i < len(events); i++ {
		if events[i].At.Before(events[i-1].At) {
			warnings = append(warnings, Warning{
				Kind:   WarnOutOfOrder,
				Detail: fmt.Sprintf("member %s has out-of-order timestamps", memberID),
			})
			sort.SliceStable(events, func(a, b int) bool {
				return events[a].At.Before(events[b].At)
			})
			break
		}
	}
	return events, warnings
}

// groupByMember splits a mixed table into per-member streams, preserving
// input order within each stream.
func groupByMember(events []Event) map[string][]Event {
	byMember := make(map[string][]Event)
	for _, ev := range events {
		byMember[ev.MemberID] = append(byMember[ev.MemberID], ev)
	}
	return byMember
}
