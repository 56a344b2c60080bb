// Package registry maps wallet event types to their Pub/Sub topic and typed
// payload.
package registry

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox/payloads"
)

var errNoTopic = errors.New("wallet events topic is required")

// EventDescriptor is the routing entry for one event type.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string

	decode func(json.RawMessage) (any, error)
}

// ResolvedEvent is a stored row decoded into its typed payload.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry resolves outbox rows. It is immutable after construction.
type EventRegistry struct {
	routes map[enums.OutboxEventType]EventDescriptor
}

func walletEvent[T any](eventType enums.OutboxEventType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:     eventType,
		AggregateType: enums.AggregateWallet,
		Topic:         topic,
		decode: func(raw json.RawMessage) (any, error) {
			out := new(T)
			if err := json.Unmarshal(raw, out); err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}

// NewEventRegistry routes every wallet event to the configured topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topic := cfg.WalletEventsTopic
	if topic == "" {
		return nil, errNoTopic
	}
	reg := &EventRegistry{routes: map[enums.OutboxEventType]EventDescriptor{}}
	for _, d := range []EventDescriptor{
		walletEvent[payloads.WalletProvisionedEvent](enums.EventWalletProvisioned, topic),
		walletEvent[payloads.DepositSettledEvent](enums.EventWalletDepositSettled, topic),
		walletEvent[payloads.TransferCompletedEvent](enums.EventWalletTransferSettled, topic),
	} {
		reg.routes[d.EventType] = d
	}
	return reg, nil
}

// Resolve checks the row against its route and decodes the payload. Every
// failure is a NonRetryableError.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	d, ok := r.routes[row.EventType]
	switch {
	case !ok:
		return nil, permanent("unsupported event type %s", row.EventType)
	case d.AggregateType != row.AggregateType:
		return nil, permanent("aggregate mismatch: expected %s got %s", d.AggregateType, row.AggregateType)
	case row.AggregateID == uuid.Nil:
		return nil, permanent("%s row %s has no aggregate id", row.EventType, row.ID)
	}

	env, err := outbox.DecodeEnvelope(row.Payload)
	if err != nil {
		return nil, permanent("%s: %w", row.EventType, err)
	}
	payload, err := d.decode(env.Data)
	if err != nil {
		return nil, permanent("decode %s payload: %w", row.EventType, err)
	}
	return &ResolvedEvent{Descriptor: d, Envelope: env, Payload: payload}, nil
}
