package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type AccountRepository interface {
	FindByUserID(ctx context.Context, userID string) (*domain.Account, error)
	FindByUserIDForUpdate(ctx context.Context, userID string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, userID string, balance decimal.Decimal) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	ListEligible(ctx context.Context, args repoargs.EligibleProducts) ([]domain.Product, error)
}

type VipTierRepository interface {
	FindByID(ctx context.Context, id int) (*domain.VipTier, error)
}

type OrderRepository interface {
	Create(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error)
	FindPendingByUserID(ctx context.Context, userID string) (*domain.Order, error)
	Complete(ctx context.Context, args repoargs.CompleteOrder) (*domain.Order, error)
	Cancel(ctx context.Context, userID string) (*domain.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.Order, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, args repoargs.CreateOutboxMessage) error
	GetPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, ids []int64) error
	IncrementAttempts(ctx context.Context, ids []int64, maxAttempts int) error
}

// Locker выдает эксклюзивную блокировку по ключу без ожидания. Если ключ занят,
// TryLock возвращает domain.ErrLockNotAcquired. Возвращаемая функция снимает блокировку.
type Locker interface {
	TryLock(ctx context.Context, key string) (func(context.Context) error, error)
}

// RandSource источник случайных чисел. Реализация должна быть безопасна для конкурентного использования.
type RandSource interface {
	// Float64 возвращает число из [0.0, 1.0).
	Float64() float64
	// IntN возвращает число из [0, n).
	IntN(n int) int
}
