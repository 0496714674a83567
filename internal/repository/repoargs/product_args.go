package repoargs

import "github.com/shopspring/decimal"

// EligibleProducts фильтр каталога: товары уровня VipLevelID с ценой не выше MaxPrice.
type EligibleProducts struct {
	VipLevelID int
	MaxPrice   decimal.Decimal
}
