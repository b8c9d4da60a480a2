package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope published for every inventory change.
type Event struct {
	Event         string    `json:"event"`   // e.g. "inventory.item.registered"
	Version       string    `json:"version"` // e.g. "v1"
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       any       `json:"payload"`
	TraceID       string    `json:"traceId"`
	CorrelationID string    `json:"correlationId"`
}

func NewEvent(name, source string, payload any) *Event {
	return &Event{
		Event:         name,
		Version:       EventVersionV1,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
		TraceID:       uuid.NewString(),
		CorrelationID: uuid.NewString(),
	}
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RoutingKey is "<event>.<version>", e.g. "inventory.item.deleted.v1".
func (e *Event) RoutingKey() string {
	return e.Event + "." + e.Version
}

// Publisher delivers events to a broker. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
