package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

var (
	errNoTransaction    = errors.New("outbox emit requires a transaction")
	errUnknownEventType = errors.New("unknown outbox event type")
	errUnknownAggregate = errors.New("unknown outbox aggregate type")
	errNoAggregateID    = errors.New("outbox event has no aggregate id")
)

// DomainEvent is a wallet state change waiting to be recorded. AggregateID is
// the wallet id and later becomes the Pub/Sub ordering key.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("%w: %q", errUnknownEventType, e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("%w: %q", errUnknownAggregate, e.AggregateType)
	case e.AggregateID == uuid.Nil:
		return errNoAggregateID
	}
	return nil
}

// Emitter queues domain events inside a caller-owned transaction.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error
}

// Service writes outbox rows alongside ledger mutations so an event exists iff
// the mutation committed.
type Service struct {
	repo    *Repository
	logg    *logger.Logger
	now     func() time.Time
	eventID func() string
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
		eventID: uuid.NewString,
	}
}

func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errNoTransaction
	}
	if err := event.validate(); err != nil {
		return err
	}
	row, env, err := s.buildRow(event)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("insert outbox row: %w", err)
	}

	if s.logg != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event_id":   env.EventID,
			"event_type": event.EventType,
			"wallet_id":  event.AggregateID.String(),
		}), "outbox.queued")
	}
	return nil
}

func (s *Service) buildRow(event DomainEvent) (models.OutboxEvent, PayloadEnvelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("encode %s data: %w", event.EventType, err)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}
	env := PayloadEnvelope{
		Version:    envelopeVersion,
		EventID:    s.eventID(),
		OccurredAt: occurred.UTC(),
		Actor:      event.Actor,
		Data:       data,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("encode envelope: %w", err)
	}
	return models.OutboxEvent{
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       raw,
	}, env, nil
}
