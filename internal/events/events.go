// Package events publishes domain events for the notification dispatcher and
// other downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeCancellationRecorded = "cancellation.recorded"
	TypeAlertActivated       = "noshow.alert.activated"
	TypeAlertUpdated         = "noshow.alert.updated"
	TypeAlertResolved        = "noshow.alert.resolved"
	TypePolicyUpdated        = "policy.updated"
)

// Event доменное событие. Key определяет партицию: события одного ключа идут по порядку.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OwnerID    string    `json:"owner_id"`
	Key        string    `json:"-"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// New событие с новым ID
func New(eventType, ownerID, key string, occurredAt time.Time, data any) Event {
	if key == "" {
		key = ownerID
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OwnerID:    ownerID,
		Key:        key,
		OccurredAt: occurredAt,
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// NopPublisher отбрасывает события, когда брокеры не настроены
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
func (NopPublisher) Close() error                            { return nil }
