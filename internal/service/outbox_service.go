package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

const DefaultOutboxMaxAttempts = 5

// DeliveryResult результат попытки отправки сообщения outbox.
type DeliveryResult struct {
	MessageID int64
	Error     error
}

type OutboxService struct {
	uow         uow.UOW
	outboxRepo  OutboxRepository
	maxAttempts int
}

func NewOutboxService(u uow.UOW) (*OutboxService, error) {
	outboxRepo, err := uow.GetRepositoryAs[OutboxRepository](u, uow.RepositoryName(repoargs.OutboxRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &OutboxService{
		uow:         u,
		outboxRepo:  outboxRepo,
		maxAttempts: DefaultOutboxMaxAttempts,
	}, nil
}

// SetMaxAttempts устанавливает кол-во попыток отправки, после которых сообщение помечается failed.
func (o *OutboxService) SetMaxAttempts(attempts int) *OutboxService {
	if attempts > 0 {
		o.maxAttempts = attempts
	}
	return o
}

// PendingMessages возвращает не более limit сообщений, ожидающих отправки.
func (o *OutboxService) PendingMessages(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	messages, err := o.outboxRepo.GetPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("pending outbox messages: %w", err)
	}
	return messages, nil
}

// ReportDelivery в одной транзакции помечает успешно отправленные сообщения как sent, а для остальных
// увеличивает счетчик попыток.
func (o *OutboxService) ReportDelivery(ctx context.Context, results []DeliveryResult) error {
	sentIDs, failedIDs := splitDeliveryResults(results)
	if len(sentIDs) == 0 && len(failedIDs) == 0 {
		return nil
	}

	txErr := o.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		repo, repoErr := uow.GetAs[OutboxRepository](tx, uow.RepositoryName(repoargs.OutboxRepoName))
		if repoErr != nil {
			return repoErr //nolint:wrapcheck
		}
		if err := repo.MarkSent(c, sentIDs); err != nil {
			return err //nolint:wrapcheck
		}
		return repo.IncrementAttempts(c, failedIDs, o.maxAttempts) //nolint:wrapcheck
	})
	if txErr != nil {
		return fmt.Errorf("report outbox delivery: %w", txErr)
	}
	return nil
}

func splitDeliveryResults(results []DeliveryResult) ([]int64, []int64) {
	sent := make([]int64, 0, len(results))
	failed := make([]int64, 0, len(results))
	for _, r := range results {
		if r.Error == nil {
			sent = append(sent, r.MessageID)
		} else {
			failed = append(failed, r.MessageID)
		}
	}
	return sent, failed
}
