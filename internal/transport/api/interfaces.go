package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/service"
)

type SettlementServicer interface {
	Settle(ctx context.Context, args service.SettleArgs) (*service.SettlementResult, error)
}

type SelectorServicer interface {
	TakeOrder(ctx context.Context, userID string) (*domain.Order, error)
}

type OrderServicer interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	PendingForUser(ctx context.Context, userID string) (*domain.Order, error)
	CancelPending(ctx context.Context, userID string) (*domain.Order, error)
}

type AccountServicer interface {
	Get(ctx context.Context, userID string) (*service.AccountView, error)
}

// HealthChecker проверяет доступность хранилища.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
