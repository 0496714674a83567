package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/taskcenter/internal/domain"
)

type OrderServiceTestSuite struct {
	suite.Suite
	mockCtrl     *gomock.Controller
	m            *serviceMocks
	orderService *OrderService
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.m = newServiceMocks(s.mockCtrl)

	orderService, servErr := NewOrderService(s.m.uow, s.m.locker, testLogger())
	s.Require().NoError(servErr)
	s.orderService = orderService
}

func (s *OrderServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *OrderServiceTestSuite) TestListByUser() {
	orders := []domain.Order{
		{ID: uuid.New(), UserID: "user-1", Status: domain.OrderStatusPending},
		{ID: uuid.New(), UserID: "user-1", Status: domain.OrderStatusCompleted},
	}
	s.m.orders.EXPECT().GetByUserID(gomock.Any(), "user-1").Return(orders, nil)

	got, err := s.orderService.ListByUser(context.Background(), "user-1")
	s.Require().NoError(err)
	s.Equal(orders, got)

	dbErr := errors.New("timeout")
	s.m.orders.EXPECT().GetByUserID(gomock.Any(), "user-2").Return(nil, dbErr)

	_, err = s.orderService.ListByUser(context.Background(), "user-2")
	s.ErrorIs(err, dbErr)
}

func (s *OrderServiceTestSuite) TestPendingForUser() {
	pending := &domain.Order{ID: uuid.New(), UserID: "user-1", Status: domain.OrderStatusPending}
	s.m.orders.EXPECT().FindPendingByUserID(gomock.Any(), "user-1").Return(pending, nil)

	got, err := s.orderService.PendingForUser(context.Background(), "user-1")
	s.Require().NoError(err)
	s.Equal(pending, got)

	s.m.orders.EXPECT().FindPendingByUserID(gomock.Any(), "user-2").Return(nil, domain.ErrRecordNotFound)

	_, err = s.orderService.PendingForUser(context.Background(), "user-2")
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *OrderServiceTestSuite) TestCancelPending() {
	s.Run("cancelled", func() {
		cancelled := &domain.Order{ID: uuid.New(), UserID: "user-1", Status: domain.OrderStatusCancelled}
		s.m.expectLock("user-1")
		s.m.expectTx()
		s.m.orders.EXPECT().Cancel(gomock.Any(), "user-1").Return(cancelled, nil)

		got, err := s.orderService.CancelPending(context.Background(), "user-1")
		s.Require().NoError(err)
		s.Equal(domain.OrderStatusCancelled, got.Status)
	})

	s.Run("no pending order", func() {
		s.m.expectLock("user-2")
		s.m.expectTx()
		s.m.orders.EXPECT().Cancel(gomock.Any(), "user-2").Return(nil, domain.ErrRecordNotFound)

		_, err := s.orderService.CancelPending(context.Background(), "user-2")
		s.ErrorIs(err, domain.ErrOrderUpdateFailed)
	})

	s.Run("in progress", func() {
		s.m.expectBusyLock("user-3")

		_, err := s.orderService.CancelPending(context.Background(), "user-3")
		s.ErrorIs(err, domain.ErrSettlementInProgress)
	})
}
