package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(min int) time.Time {
	return t0.Add(time.Duration(min) * time.Minute)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func deposit(member string, min int, amount int64, method string) Event {
	return Event{MemberID: member, Kind: KindDeposit, At: at(min), Amount: dec(amount), PaymentMethod: method}
}

func bonus(member string, min int, amount int64, name string) Event {
	return Event{MemberID: member, Kind: KindBonus, At: at(min), Amount: dec(amount), BonusName: name}
}

func placed(member string, min int, amount int64, ref, game, provider string) Event {
	return Event{MemberID: member, Kind: KindBetPlaced, At: at(min), Amount: dec(amount), ReferenceID: ref, GameName: game, ProviderName: provider}
}

func settled(member string, min int, amount int64, ref, game, provider string) Event {
	return Event{MemberID: member, Kind: KindBetSettled, At: at(min), Amount: dec(amount), ReferenceID: ref, GameName: game, ProviderName: provider}
}
