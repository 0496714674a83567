package repoargs

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrder struct {
	ID          uuid.UUID
	UserID      string
	ProductID   int64
	ProductName string
	Quantity    int
	TotalAmount decimal.Decimal
}

// CompleteOrder аргументы перевода pending заказа в completed. Заказ ищется по паре UserID + ProductID.
type CompleteOrder struct {
	UserID      string
	ProductID   int64
	TotalAmount decimal.Decimal
	Commission  decimal.Decimal
}
