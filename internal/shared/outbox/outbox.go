package outbox

import "time"

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Message is an outbox row persisted inside the same DB transaction as the
// settlement state change. The worker relay reads pending rows and publishes
// them to the message bus.
type Message struct {
	OutboxID   string
	EventType  string
	Payload    []byte
	Status     string
	RetryCount int
	CreatedAt  time.Time
	SentAt     *time.Time
}
