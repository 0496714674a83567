package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

type OrderService struct {
	uow       uow.UOW
	locker    Locker
	orderRepo OrderRepository
	l         *logrus.Entry
}

func NewOrderService(u uow.UOW, locker Locker, l *logrus.Logger) (*OrderService, error) {
	orderRepo, err := uow.GetRepositoryAs[OrderRepository](u, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &OrderService{
		uow:       u,
		locker:    locker,
		orderRepo: orderRepo,
		l:         l.WithField("component", "order_service"),
	}, nil
}

// ListByUser возвращает заказы пользователя, новые первыми.
func (o *OrderService) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := o.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders of user `%s`: %w", userID, err)
	}
	return orders, nil
}

// PendingForUser возвращает pending заказ пользователя или domain.ErrRecordNotFound.
func (o *OrderService) PendingForUser(ctx context.Context, userID string) (*domain.Order, error) {
	order, err := o.orderRepo.FindPendingByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("pending order of user `%s`: %w", userID, err)
	}
	return order, nil
}

// CancelPending переводит pending заказ пользователя в cancelled. Если pending заказа нет,
// возвращает domain.ErrOrderUpdateFailed.
func (o *OrderService) CancelPending(ctx context.Context, userID string) (*domain.Order, error) {
	var order *domain.Order

	err := withUserLock(ctx, o.locker, o.l, userID, func() error {
		return o.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
			repo, repoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
			if repoErr != nil {
				return repoErr //nolint:wrapcheck
			}
			cancelled, cancelErr := repo.Cancel(c, userID)
			if cancelErr != nil {
				if errors.Is(cancelErr, domain.ErrRecordNotFound) {
					return domain.ErrOrderUpdateFailed
				}
				return cancelErr //nolint:wrapcheck
			}
			order = cancelled
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("cancel pending order of user `%s`: %w", userID, err)
	}

	o.l.WithFields(logrus.Fields{"userID": userID, "orderID": order.ID}).Info("order cancelled")
	return order, nil
}
