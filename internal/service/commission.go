package service

import (
	"github.com/shopspring/decimal"

	"github.com/fsdevblog/taskcenter/internal/domain"
)

// DefaultCommissionRate ставка комиссии, если для VIP уровня аккаунта нет записи в vip_tiers.
// TODO: значение унаследовано без документации, подтвердить у владельца продукта.
var DefaultCommissionRate = decimal.New(6, -2) //nolint:mnd

const centsPrecision = 2

// EffectiveVipLevel уровень 0 (и отрицательные) считается базовым уровнем 1.
func EffectiveVipLevel(level int) int {
	if level < 1 {
		return 1
	}
	return level
}

// CommissionRateFor возвращает ставку уровня tier либо DefaultCommissionRate, если уровень не найден.
func CommissionRateFor(tier *domain.VipTier) decimal.Decimal {
	if tier == nil {
		return DefaultCommissionRate
	}
	return tier.CommissionRate
}

// CommissionRange пользовательский диапазон комиссии [Min, Max].
type CommissionRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// CustomRangeOf возвращает диапазон комиссии аккаунта, если включен пользовательский режим,
// обе границы заданы и Max >= Min.
func CustomRangeOf(account *domain.Account) (CommissionRange, bool) {
	if !account.UseCustomCommission ||
		!account.CustomCommissionMin.Valid ||
		!account.CustomCommissionMax.Valid {
		return CommissionRange{}, false
	}
	rng := CommissionRange{
		Min: account.CustomCommissionMin.Decimal,
		Max: account.CustomCommissionMax.Decimal,
	}
	if rng.Max.LessThan(rng.Min) {
		return CommissionRange{}, false
	}
	return rng, true
}

// Mid середина диапазона.
func (r CommissionRange) Mid() decimal.Decimal {
	return r.Min.Add(r.Max).Div(decimal.NewFromInt(2)) //nolint:mnd
}

// VipCommission комиссия в режиме VIP ставки: price * rate без округления.
func VipCommission(price, rate decimal.Decimal) decimal.Decimal {
	return price.Mul(rate)
}

// CustomCommission равномерно выбирает комиссию из [r.Min, r.Max], округляет до центов
// и гарантирует попадание результата в диапазон.
func CustomCommission(rnd RandSource, r CommissionRange) decimal.Decimal {
	span := r.Max.Sub(r.Min)
	value := r.Min.Add(span.Mul(decimal.NewFromFloat(rnd.Float64()))).Round(centsPrecision)

	if value.LessThan(r.Min) {
		return r.Min
	}
	if value.GreaterThan(r.Max) {
		return r.Max
	}
	return value
}

// RateFunc возвращает ставку VIP уровня аккаунта.
type RateFunc func() (decimal.Decimal, error)

// Commission считает комиссию для аккаунта за товар price. rateOf вызывается только в режиме VIP ставки,
// ошибка поиска ставки на пользовательский режим не влияет.
func Commission(
	rnd RandSource,
	account *domain.Account,
	price decimal.Decimal,
	rateOf RateFunc,
) (decimal.Decimal, domain.CommissionModeType, error) {
	if rng, ok := CustomRangeOf(account); ok {
		return CustomCommission(rnd, rng), domain.CommissionModeCustom, nil
	}
	rate, err := rateOf()
	if err != nil {
		return decimal.Zero, "", err
	}
	return VipCommission(price, rate), domain.CommissionModeVip, nil
}
