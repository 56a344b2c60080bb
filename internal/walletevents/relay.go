package walletevents

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/metrics"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
	idleCeiling           = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

type outcome string

const (
	outcomePublished outcome = "published"
	outcomeRetry     outcome = "retry"
	outcomeDead      outcome = "dead"
)

type delivery struct {
	result outcome
	topic  string
	err    error
}

// Store is the slice of the outbox repository the relay drives.
type Store interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

// Resolver decodes outbox rows into typed wallet events.
type Resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// Sink delivers one message to a topic and waits for the broker ack.
type Sink interface {
	Send(ctx context.Context, topic string, msg *gcppubsub.Message) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type RelayParams struct {
	Config   config.OutboxConfig
	Logger   *logger.Logger
	Metrics  *metrics.RelayMetrics
	DB       txRunner
	Store    Store
	Resolver Resolver
	Sink     Sink
}

// Relay moves committed wallet events from outbox_events to Pub/Sub.
// Rows are marked in the same transaction that claimed them.
type Relay struct {
	logg        *logger.Logger
	metrics     *metrics.RelayMetrics
	db          txRunner
	store       Store
	resolver    Resolver
	sink        Sink
	batchSize   int
	maxAttempts int
	interval    time.Duration
	now         func() time.Time
	jitter      func(time.Duration) time.Duration
}

func NewRelay(params RelayParams) (*Relay, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.Store == nil:
		return nil, errors.New("outbox store is required")
	case params.Resolver == nil:
		return nil, errors.New("event resolver is required")
	case params.Sink == nil:
		return nil, errors.New("event sink is required")
	}

	r := &Relay{
		logg:        params.Logger,
		metrics:     params.Metrics,
		db:          params.DB,
		store:       params.Store,
		resolver:    params.Resolver,
		sink:        params.Sink,
		batchSize:   positiveOr(params.Config.BatchSize, defaultBatchSize),
		maxAttempts: positiveOr(params.Config.MaxAttempts, defaultMaxAttempts),
		interval:    time.Duration(params.Config.PollIntervalMS) * time.Millisecond,
		now:         time.Now,
		jitter:      randomJitter,
	}
	if r.interval <= 0 {
		r.interval = defaultPollInterval
	}
	return r, nil
}

// Run drains the outbox until ctx is canceled. Batch errors stretch the wait
// up to idleCeiling; a busy outbox is drained back to back.
func (r *Relay) Run(ctx context.Context) error {
	wait := r.interval
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "wallet event relay stopping")
			return err
		}

		handled, err := r.Drain(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "wallet event relay batch failed", err)
			wait = stretch(wait, r.interval)
		case handled > 0:
			wait = r.interval
			continue
		default:
			wait = r.interval
		}

		if err := pause(ctx, r.jitter(wait)); err != nil {
			return err
		}
	}
}

// Drain relays one batch and reports how many rows it settled.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	handled := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.store.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim outbox rows: %w", err)
		}
		for _, row := range rows {
			if err := r.record(ctx, tx, row, r.relay(ctx, row)); err != nil {
				return err
			}
			handled++
		}
		return nil
	})
	return handled, err
}

func (r *Relay) relay(ctx context.Context, row models.OutboxEvent) delivery {
	resolved, err := r.resolver.Resolve(row)
	if err != nil {
		return delivery{result: outcomeDead, err: err}
	}
	topic := resolved.Descriptor.Topic

	msg := &gcppubsub.Message{
		Data:        row.Payload,
		OrderingKey: orderingKey(row),
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"occurred_at":    resolved.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if resolved.Envelope.Actor != nil {
		msg.Attributes["user_id"] = resolved.Envelope.Actor.UserID.String()
	}

	sendCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	if err := r.sink.Send(sendCtx, topic, msg); err != nil {
		var permanent registry.NonRetryableError
		if errors.As(err, &permanent) || row.AttemptCount+1 >= r.maxAttempts {
			return delivery{result: outcomeDead, topic: topic, err: err}
		}
		return delivery{result: outcomeRetry, topic: topic, err: err}
	}
	if !row.CreatedAt.IsZero() {
		r.metrics.ObserveLag(r.now().Sub(row.CreatedAt).Seconds())
	}
	return delivery{result: outcomePublished, topic: topic}
}

func (r *Relay) record(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, d delivery) error {
	r.metrics.IncRelayed(string(row.EventType), string(d.result))

	fields := map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    row.EventType,
		"wallet_id":     row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
		"outcome":       d.result,
	}
	if d.topic != "" {
		fields["topic"] = d.topic
	}
	logCtx := r.logg.WithFields(ctx, fields)

	switch d.result {
	case outcomePublished:
		if err := r.store.MarkPublishedTx(tx, row.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		r.logg.Info(logCtx, "wallet event relayed")
	case outcomeRetry:
		r.logg.Warn(r.logg.WithField(logCtx, "error", d.err.Error()), "wallet event publish failed, will retry")
		if err := r.store.MarkFailedTx(tx, row.ID, d.err); err != nil {
			return fmt.Errorf("mark failed %s: %w", row.ID, err)
		}
	case outcomeDead:
		r.logg.Warn(r.logg.WithField(logCtx, "error", d.err.Error()), "wallet event parked")
		if err := r.store.MarkTerminalTx(tx, row.ID, d.err, r.maxAttempts); err != nil {
			return fmt.Errorf("mark terminal %s: %w", row.ID, err)
		}
	}
	return nil
}

// orderingKey keeps events for one wallet in commit order on the topic.
func orderingKey(row models.OutboxEvent) string {
	if row.AggregateType != enums.AggregateWallet || row.AggregateID == uuid.Nil {
		return ""
	}
	return row.AggregateID.String()
}

func stretch(current, base time.Duration) time.Duration {
	if current < base {
		current = base
	}
	if next := current * 2; next < idleCeiling {
		return next
	}
	return idleCeiling
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(rand.Int63n(int64(jitterWindow)))
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
