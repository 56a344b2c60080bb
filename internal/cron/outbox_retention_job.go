package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

const (
	defaultOutboxRetention   = 30 * 24 * time.Hour
	defaultOutboxMinAttempts = 10
	defaultPruneBatch        = 500
)

// OutboxRetentionJobParams configures pruning of delivered and dead wallet
// event rows.
type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         dbpkg.TxRunner
	Repository outboxPruner
	Retention  time.Duration
	// MinAttempts marks a failed row as dead; match the relay's max attempts.
	MinAttempts int
	BatchSize   int
	Now         func() time.Time
}

type outboxPruner interface {
	PruneDelivered(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttempts, limit int) (int64, error)
}

type outboxRetentionJob struct {
	logg        *logger.Logger
	db          dbpkg.TxRunner
	repo        outboxPruner
	retention   time.Duration
	minAttempts int
	batch       int
	now         func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.DB == nil:
		return nil, errors.New("db runner required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		retention:   orDefault(params.Retention, defaultOutboxRetention),
		minAttempts: orDefault(params.MinAttempts, defaultOutboxMinAttempts),
		batch:       orDefault(params.BatchSize, defaultPruneBatch),
		now:         params.Now,
	}
	if job.now == nil {
		job.now = time.Now
	}
	return job, nil
}

func orDefault[T int | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run deletes in batches, one transaction each, until a short batch shows
// nothing older than the cutoff is left.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var n int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) (err error) {
			n, err = j.repo.PruneDelivered(ctx, tx, cutoff, j.minAttempts, j.batch)
			return err
		})
		if err != nil {
			return fmt.Errorf("prune wallet events: %w", err)
		}
		total += n
		if n < int64(j.batch) {
			break
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"min_attempts": j.minAttempts,
		"rows_deleted": total,
	}), "outbox.pruned")
	return nil
}
