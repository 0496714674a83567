package pgrepo

import (
	"context"

	"github.com/fsdevblog/taskcenter/internal/domain"
	"github.com/fsdevblog/taskcenter/internal/repository/repoargs"
	"github.com/fsdevblog/taskcenter/pkg/uow"
)

type OutboxRepository struct {
	conn uow.DBTX
}

func NewOutboxRepository(conn uow.DBTX) *OutboxRepository {
	return &OutboxRepository{conn: conn}
}

func (o *OutboxRepository) Create(ctx context.Context, args repoargs.CreateOutboxMessage) error {
	_, err := o.conn.Exec(ctx,
		`INSERT INTO outbox_messages (message_key, topic, payload, status) VALUES ($1, $2, $3, $4)`,
		args.MessageKey, args.Topic, args.Payload, domain.OutboxStatusPending,
	)
	if err != nil {
		return convertErr(err, "creating outbox message `%s`", args.MessageKey)
	}
	return nil
}

// GetPending возвращает не более limit неотправленных сообщений, самые старые первыми.
func (o *OutboxRepository) GetPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	rows, err := o.conn.Query(ctx,
		`SELECT id, created_at, updated_at, message_key, topic, payload, status, attempts
		FROM outbox_messages WHERE status = $1 ORDER BY id LIMIT $2`,
		domain.OutboxStatusPending, limit,
	)
	if err != nil {
		return nil, convertErr(err, "getting pending outbox messages")
	}
	defer rows.Close()

	var messages []domain.OutboxMessage
	for rows.Next() {
		var m domain.OutboxMessage
		if scanErr := rows.Scan(
			&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.MessageKey, &m.Topic, &m.Payload, &m.Status, &m.Attempts,
		); scanErr != nil {
			return nil, convertErr(scanErr, "scanning outbox message")
		}
		messages = append(messages, m)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting pending outbox messages")
	}
	return messages, nil
}

func (o *OutboxRepository) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := o.conn.Exec(ctx,
		`UPDATE outbox_messages SET status = $1, updated_at = now() WHERE id = ANY($2)`,
		domain.OutboxStatusSent, ids,
	)
	if err != nil {
		return convertErr(err, "marking outbox messages `%v` as sent", ids)
	}
	return nil
}

// IncrementAttempts увеличивает счетчик попыток сообщений ids. Сообщения, исчерпавшие maxAttempts,
// переводятся в failed и больше не выбираются GetPending.
func (o *OutboxRepository) IncrementAttempts(ctx context.Context, ids []int64, maxAttempts int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := o.conn.Exec(ctx,
		`UPDATE outbox_messages
		SET attempts = attempts + 1,
			status = CASE WHEN attempts + 1 >= $2 THEN $3 ELSE status END,
			updated_at = now()
		WHERE id = ANY($1)`,
		ids, maxAttempts, domain.OutboxStatusFailed,
	)
	if err != nil {
		return convertErr(err, "incrementing attempts for outbox messages `%v`", ids)
	}
	return nil
}
