package outbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/service"
	"github.com/fsdevblog/taskcenter/internal/transport/outbox/mocks"
)

type RelayTestSuite struct {
	suite.Suite
	relay         *Relay
	mockPublisher *mocks.MockPublisher
	mockService   *mocks.MockServicer
	ctrl          *gomock.Controller
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelayTestSuite))
}

func (s *RelayTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockPublisher = mocks.NewMockPublisher(s.ctrl)
	s.mockService = mocks.NewMockServicer(s.ctrl)

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	s.relay = New(s.mockService, s.mockPublisher, logger).
		SetWorkers(2).
		SetBatchSize(10).
		SetIdleInterval(10 * time.Millisecond)
}

func (s *RelayTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func testMessages() []domain.OutboxMessage {
	return []domain.OutboxMessage{
		{ID: 1, MessageKey: "order-1", Topic: "order.settled", Payload: []byte(`{"n":1}`)},
		{ID: 2, MessageKey: "order-2", Topic: "order.settled", Payload: []byte(`{"n":2}`), Attempts: 2},
	}
}

// TestProcess_NoMessages нет сообщений для отправки.
func (s *RelayTestSuite) TestProcess_NoMessages() {
	s.mockService.EXPECT().
		PendingMessages(gomock.Any(), 10).
		Return([]domain.OutboxMessage{}, nil)

	err := s.relay.process(s.T().Context())

	s.ErrorIs(err, ErrNoMessages)
}

// TestProcess_Success все сообщения опубликованы и помечены как доставленные.
func (s *RelayTestSuite) TestProcess_Success() {
	s.mockService.EXPECT().
		PendingMessages(gomock.Any(), 10).
		Return(testMessages(), nil)

	s.mockPublisher.EXPECT().
		Publish(gomock.Any(), "order.settled", "order-1", []byte(`{"n":1}`)).
		Return(nil)
	s.mockPublisher.EXPECT().
		Publish(gomock.Any(), "order.settled", "order-2", []byte(`{"n":2}`)).
		Return(nil)

	s.mockService.EXPECT().
		ReportDelivery(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, results []service.DeliveryResult) {
			s.Require().Len(results, 2)
			for _, r := range results {
				s.NoError(r.Error)
			}
		}).
		Return(nil)

	s.NoError(s.relay.process(s.T().Context()))
}

// TestProcess_PublishError ошибка публикации передается в сервисный слой вместе с id сообщения.
func (s *RelayTestSuite) TestProcess_PublishError() {
	publishErr := errors.New("broker unavailable")

	s.mockService.EXPECT().
		PendingMessages(gomock.Any(), 10).
		Return(testMessages(), nil)

	s.mockPublisher.EXPECT().
		Publish(gomock.Any(), "order.settled", "order-1", gomock.Any()).
		Return(nil)
	s.mockPublisher.EXPECT().
		Publish(gomock.Any(), "order.settled", "order-2", gomock.Any()).
		Return(publishErr)

	s.mockService.EXPECT().
		ReportDelivery(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, results []service.DeliveryResult) {
			s.Require().Len(results, 2)
			for _, r := range results {
				switch r.MessageID {
				case 1:
					s.NoError(r.Error)
				case 2:
					s.ErrorIs(r.Error, publishErr)
				default:
					s.Failf("unexpected message", "id=%d", r.MessageID)
				}
			}
		}).
		Return(nil)

	// результат сохранен, но ошибка доставки сообщается Run для паузы перед следующей попыткой.
	s.ErrorIs(s.relay.process(s.T().Context()), ErrDeliveryFailed)
}

// TestProcess_ServiceError ошибка выборки сообщений пробрасывается наружу.
func (s *RelayTestSuite) TestProcess_ServiceError() {
	dbErr := errors.New("db is down")
	s.mockService.EXPECT().
		PendingMessages(gomock.Any(), 10).
		Return(nil, dbErr)

	s.ErrorIs(s.relay.process(s.T().Context()), dbErr)
}

// TestRun_StopsOnCancel Run завершается после отмены контекста.
func (s *RelayTestSuite) TestRun_StopsOnCancel() {
	s.mockService.EXPECT().
		PendingMessages(gomock.Any(), 10).
		Return(nil, nil).
		AnyTimes()

	ctx, cancel := context.WithCancel(s.T().Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.relay.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("relay did not stop after context cancel")
	}
}

// TestRun_BacksOffOnFailedDelivery брокер недоступен: пачки выбираются не чаще, чем позволяет пауза,
// и попытки доставки не сгорают за миллисекунды.
func (s *RelayTestSuite) TestRun_BacksOffOnFailedDelivery() {
	relay := New(s.mockService, s.mockPublisher, logrus.New()).
		SetWorkers(2).
		SetBatchSize(10).
		SetIdleInterval(50 * time.Millisecond)

	var fetches atomic.Int32
	s.mockService.EXPECT().
		PendingMessages(gomock.Any(), 10).
		DoAndReturn(func(context.Context, int) ([]domain.OutboxMessage, error) {
			fetches.Add(1)
			return testMessages(), nil
		}).
		AnyTimes()
	s.mockPublisher.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("broker unavailable")).
		AnyTimes()
	s.mockService.EXPECT().ReportDelivery(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	ctx, cancel := context.WithTimeout(s.T().Context(), 300*time.Millisecond)
	defer cancel()
	relay.Run(ctx)

	// паузы 50, 100, 200 мс (+ разброс): за 300 мс не больше четырех выборок.
	s.GreaterOrEqual(fetches.Load(), int32(1))
	s.LessOrEqual(fetches.Load(), int32(4))
}

func TestBackoff(t *testing.T) {
	r := New(nil, nil, logrus.New()).SetIdleInterval(time.Second)

	for failures, base := range map[int]time.Duration{
		1:  time.Second,
		2:  2 * time.Second,
		3:  4 * time.Second,
		10: defaultMaxBackoff,
		64: defaultMaxBackoff,
	} {
		got := r.backoff(failures)
		assert.GreaterOrEqual(t, got, base, "failures=%d", failures)
		assert.LessOrEqual(t, got, time.Duration(float64(base)*(1+maxJitterPercent)), "failures=%d", failures)
	}

	// интервал больше потолка не уменьшается.
	long := New(nil, nil, logrus.New()).SetIdleInterval(time.Minute)
	assert.GreaterOrEqual(t, long.backoff(3), time.Minute)
}

func TestJitter(t *testing.T) {
	for range 1000 {
		v := jitter(100, 0.15, 0.15)
		assert.GreaterOrEqual(t, v, 85.0)
		assert.LessOrEqual(t, v, 115.0)
	}

	// отрицательные границы заменяются на 15%.
	v := jitter(100, -1, 0.5)
	assert.GreaterOrEqual(t, v, 85.0)
	assert.LessOrEqual(t, v, 115.0)
}
