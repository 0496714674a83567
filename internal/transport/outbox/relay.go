// Package outbox переносит события из таблицы outbox_messages в брокер сообщений.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/service"
)

const (
	defaultServiceTimeout = 3 * time.Second
	defaultPublishTimeout = 10 * time.Second
	defaultIdleInterval   = time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultBatchSize      = 100
	defaultWorkers        = 4
)

// Relay периодически выбирает pending сообщения outbox и публикует их.
type Relay struct {
	publisher    Publisher
	svs          Servicer
	l            *logrus.Entry
	batchSize    int
	workers      int
	idleInterval time.Duration
}

func New(svs Servicer, publisher Publisher, l *logrus.Logger) *Relay {
	loggerEntry := l.WithFields(logrus.Fields{
		"component": "outbox",
		"module":    "relay",
	})

	return &Relay{
		svs:          svs,
		publisher:    publisher,
		l:            loggerEntry,
		batchSize:    defaultBatchSize,
		workers:      defaultWorkers,
		idleInterval: defaultIdleInterval,
	}
}

// SetBatchSize устанавливает кол-во сообщений, выбираемых за одну итерацию.
func (r *Relay) SetBatchSize(size int) *Relay {
	if size > 0 {
		r.batchSize = size
	}
	return r
}

// SetWorkers устанавливает кол-во воркеров, параллельно публикующих сообщения.
func (r *Relay) SetWorkers(workers int) *Relay {
	if workers > 0 {
		r.workers = workers
	}
	return r
}

// SetIdleInterval устанавливает паузу между итерациями, когда сообщений нет или произошла ошибка.
func (r *Relay) SetIdleInterval(interval time.Duration) *Relay {
	if interval > 0 {
		r.idleInterval = interval
	}
	return r
}

// Run обрабатывает outbox до отмены ctx.
//
// В каждой итерации запрашивает через сервисный слой пачку pending сообщений, раздает их воркерам
// и сообщает сервисному слою результаты отправки. Если сообщений нет, ждет idleInterval. После ошибки
// (в том числе неудачной публикации хотя бы одного сообщения) ждет с экспоненциально растущей паузой,
// чтобы кратковременная недоступность брокера не исчерпала попытки доставки.
func (r *Relay) Run(ctx context.Context) {
	r.l.WithFields(logrus.Fields{
		"batchSize": r.batchSize,
		"workers":   r.workers,
	}).Info("Starting")

	failures := 0
	for {
		err := r.process(ctx)

		var wait time.Duration
		switch {
		case err == nil:
			failures = 0
			if ctx.Err() != nil {
				r.l.Info("Got stop signal, exiting...")
				return
			}
			continue
		case errors.Is(err, ErrNoMessages):
			failures = 0
			wait = r.idleInterval
		default:
			failures++
			wait = r.backoff(failures)
			if ctx.Err() == nil {
				r.l.WithError(err).WithField("retryIn", wait).Error("process error")
			}
		}

		select {
		case <-ctx.Done():
			r.l.Info("Got stop signal, exiting...")
			return
		case <-time.After(wait):
		}
	}
}

// backoff пауза после failures ошибок подряд: idleInterval * 2^(failures-1), но не больше
// defaultMaxBackoff (или idleInterval, если он больше), с разбросом до +30%.
func (r *Relay) backoff(failures int) time.Duration {
	limit := max(defaultMaxBackoff, r.idleInterval)

	wait := r.idleInterval
	for i := 1; i < failures && wait < limit; i++ {
		wait *= 2
	}
	wait = min(wait, limit)

	return time.Duration(jitter(float64(wait), 0, maxJitterPercent))
}

// process выполняет одну итерацию. Возвращает ErrNoMessages, если публиковать нечего.
func (r *Relay) process(ctx context.Context) error {
	messages, err := r.produce(ctx)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	results := r.runWorkers(ctx, messages)
	if len(results) == 0 {
		return nil
	}

	// результат сохраняем даже если ctx отменен, иначе отправленные сообщения уйдут повторно.
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultServiceTimeout)
	defer cancel()

	if reportErr := r.svs.ReportDelivery(reportCtx, results); reportErr != nil {
		return fmt.Errorf("process: %w", reportErr)
	}

	failed := 0
	for _, result := range results {
		if result.Error != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("process: %w: %d of %d", ErrDeliveryFailed, failed, len(results))
	}
	return nil
}

func (r *Relay) produce(ctx context.Context) ([]domain.OutboxMessage, error) {
	produceCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	messages, err := r.svs.PendingMessages(produceCtx, r.batchSize)
	if err != nil {
		return nil, fmt.Errorf("produce: %w", err)
	}
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	return messages, nil
}

// runWorkers публикует сообщения в workers горутин (fan-out) и собирает результаты (fan-in).
// Сообщения, которые не успели взять в работу до отмены ctx, в результат не попадают.
func (r *Relay) runWorkers(ctx context.Context, messages []domain.OutboxMessage) []service.DeliveryResult {
	taskCh := make(chan *domain.OutboxMessage, len(messages))
	for i := range messages {
		taskCh <- &messages[i]
	}
	close(taskCh)

	resultCh := make(chan service.DeliveryResult, len(messages))

	wg := new(sync.WaitGroup)
	for i := range r.workers {
		wg.Add(1)
		go r.worker(ctx, wg, i+1, taskCh, resultCh)
	}
	wg.Wait()
	close(resultCh)

	results := make([]service.DeliveryResult, 0, len(messages))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

func (r *Relay) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	workerID int,
	taskCh <-chan *domain.OutboxMessage,
	resultCh chan<- service.DeliveryResult,
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-taskCh:
			if !ok {
				return
			}
			resultCh <- r.publish(ctx, workerID, msg)
		}
	}
}

func (r *Relay) publish(ctx context.Context, workerID int, msg *domain.OutboxMessage) service.DeliveryResult {
	pubCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	err := r.publisher.Publish(pubCtx, msg.Topic, msg.MessageKey, msg.Payload)

	l := r.l.WithFields(logrus.Fields{
		"worker":    workerID,
		"messageID": msg.ID,
		"topic":     msg.Topic,
		"attempt":   msg.Attempts + 1,
	})
	if err != nil {
		l.WithError(err).Warn("publish outbox message")
	} else {
		l.Debug("Published")
	}
	return service.DeliveryResult{MessageID: msg.ID, Error: err}
}
