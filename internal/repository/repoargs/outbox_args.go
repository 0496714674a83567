package repoargs

type CreateOutboxMessage struct {
	MessageKey string
	Topic      string
	Payload    []byte
}
