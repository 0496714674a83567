package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/taskcenter/internal/domain"
)

type OutboxServiceTestSuite struct {
	suite.Suite
	mockCtrl      *gomock.Controller
	m             *serviceMocks
	outboxService *OutboxService
}

func TestOutboxServiceSuite(t *testing.T) {
	suite.Run(t, new(OutboxServiceTestSuite))
}

func (s *OutboxServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.m = newServiceMocks(s.mockCtrl)

	outboxService, servErr := NewOutboxService(s.m.uow)
	s.Require().NoError(servErr)
	s.outboxService = outboxService.SetMaxAttempts(3)
}

func (s *OutboxServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *OutboxServiceTestSuite) TestPendingMessages() {
	messages := []domain.OutboxMessage{{ID: 1, Topic: "order.settled"}, {ID: 2, Topic: "order.settled"}}
	s.m.outbox.EXPECT().GetPending(gomock.Any(), 10).Return(messages, nil)

	got, err := s.outboxService.PendingMessages(context.Background(), 10)
	s.Require().NoError(err)
	s.Equal(messages, got)
}

func (s *OutboxServiceTestSuite) TestReportDelivery() {
	s.m.expectTx()
	s.m.outbox.EXPECT().MarkSent(gomock.Any(), []int64{1, 3}).Return(nil)
	s.m.outbox.EXPECT().IncrementAttempts(gomock.Any(), []int64{2}, 3).Return(nil)

	err := s.outboxService.ReportDelivery(context.Background(), []DeliveryResult{
		{MessageID: 1},
		{MessageID: 2, Error: errors.New("broker unavailable")},
		{MessageID: 3},
	})
	s.NoError(err)
}

func (s *OutboxServiceTestSuite) TestReportDelivery_Empty() {
	s.m.uow.EXPECT().Do(gomock.Any(), gomock.Any()).Times(0)

	s.NoError(s.outboxService.ReportDelivery(context.Background(), nil))
}

func (s *OutboxServiceTestSuite) TestReportDelivery_Error() {
	dbErr := errors.New("timeout")
	s.m.expectTx()
	s.m.outbox.EXPECT().MarkSent(gomock.Any(), []int64{1}).Return(dbErr)
	s.m.outbox.EXPECT().IncrementAttempts(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	err := s.outboxService.ReportDelivery(context.Background(), []DeliveryResult{{MessageID: 1}})
	s.ErrorIs(err, dbErr)
}

func TestSplitDeliveryResults(t *testing.T) {
	sent, failed := splitDeliveryResults([]DeliveryResult{
		{MessageID: 5, Error: errors.New("x")},
		{MessageID: 6},
	})
	assert.Equal(t, []int64{6}, sent)
	assert.Equal(t, []int64{5}, failed)
}
