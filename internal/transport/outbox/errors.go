package outbox

import "errors"

var (
	ErrNoMessages = errors.New("no outbox messages")
	// ErrDeliveryFailed хотя бы одно сообщение пачки не опубликовано.
	ErrDeliveryFailed = errors.New("outbox delivery failed")
)
