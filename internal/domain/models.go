package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Account struct {
	UserID              string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Balance             decimal.Decimal
	VipLevel            int
	UseCustomCommission bool
	CustomCommissionMin decimal.NullDecimal
	CustomCommissionMax decimal.NullDecimal
}

type Product struct {
	ID         int64
	Name       string
	Price      decimal.Decimal
	VipLevelID int
}

type VipTier struct {
	ID             int
	CommissionRate decimal.Decimal
}

type Order struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      string
	ProductID   int64
	ProductName string
	Quantity    int
	TotalAmount decimal.Decimal
	Commission  decimal.NullDecimal
	Status      OrderStatusType
}

type OutboxMessage struct {
	ID         int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	MessageKey string
	Topic      string
	Payload    []byte
	Status     OutboxStatusType
	Attempts   int
}
