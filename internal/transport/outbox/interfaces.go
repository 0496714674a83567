package outbox

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/service"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type Servicer interface {
	PendingMessages(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	ReportDelivery(ctx context.Context, results []service.DeliveryResult) error
}
