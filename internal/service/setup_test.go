package service

import (
	"context"
	"io"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/logger"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/internal/service/mocks"
	"github.com/fsdevblog/taskcenter/pkg/uow"
	uowmocks "github.com/fsdevblog/taskcenter/pkg/uow/mocks"
)

// serviceMocks набор моков, общий для тестов сервисов.
type serviceMocks struct {
	ctrl     *gomock.Controller
	uow      *uowmocks.MockUOW
	tx       *uowmocks.MockTX
	accounts *mocks.MockAccountRepository
	products *mocks.MockProductRepository
	tiers    *mocks.MockVipTierRepository
	orders   *mocks.MockOrderRepository
	outbox   *mocks.MockOutboxRepository
	locker   *mocks.MockLocker
}

func newServiceMocks(ctrl *gomock.Controller) *serviceMocks {
	m := &serviceMocks{
		ctrl:     ctrl,
		uow:      uowmocks.NewMockUOW(ctrl),
		tx:       uowmocks.NewMockTX(ctrl),
		accounts: mocks.NewMockAccountRepository(ctrl),
		products: mocks.NewMockProductRepository(ctrl),
		tiers:    mocks.NewMockVipTierRepository(ctrl),
		orders:   mocks.NewMockOrderRepository(ctrl),
		outbox:   mocks.NewMockOutboxRepository(ctrl),
		locker:   mocks.NewMockLocker(ctrl),
	}

	// Репозитории доступны как из uow (вне транзакции), так и из транзакции.
	m.uow.EXPECT().GetRepository(gomock.Any()).DoAndReturn(m.repository).AnyTimes()
	m.tx.EXPECT().Get(gomock.Any()).DoAndReturn(m.repository).AnyTimes()
	return m
}

func (m *serviceMocks) repository(name uow.RepositoryName) (uow.Repository, error) {
	switch repoargs.RepositoryName(name) {
	case repoargs.AccountRepoName:
		return m.accounts, nil
	case repoargs.ProductRepoName:
		return m.products, nil
	case repoargs.VipTierRepoName:
		return m.tiers, nil
	case repoargs.OrderRepoName:
		return m.orders, nil
	case repoargs.OutboxRepoName:
		return m.outbox, nil
	default:
		return nil, uow.ErrRepositoryNotRegistered
	}
}

// expectTx транзакция выполняет fn с моком TX и возвращает ее результат.
func (m *serviceMocks) expectTx() *gomock.Call {
	return m.uow.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, m.tx)
		})
}

// expectLock блокировка пользователя userID свободна и снимается после выполнения.
func (m *serviceMocks) expectLock(userID string) {
	m.locker.EXPECT().
		TryLock(gomock.Any(), userLockKey(userID)).
		Return(func(context.Context) error { return nil }, nil)
}

// expectBusyLock блокировка пользователя userID занята другим запросом.
func (m *serviceMocks) expectBusyLock(userID string) {
	m.locker.EXPECT().
		TryLock(gomock.Any(), userLockKey(userID)).
		Return(nil, domain.ErrLockNotAcquired)
}

func testLogger() *logrus.Logger {
	return logger.New(io.Discard)
}
