package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOutboxRetentionJobUsesConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{batches: []int64{3}}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     quietLogger(),
		DB:         passthroughTxRunner{},
		Repository: pruner,
		Retention:  7 * 24 * time.Hour,
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-7*24*time.Hour), pruner.cutoff)
	assert.Equal(t, defaultOutboxMinAttempts, pruner.minAttempts)
	assert.Equal(t, defaultPruneBatch, pruner.limit)
	assert.Equal(t, 1, pruner.calls)
}

func TestOutboxRetentionJobDrainsFullBatches(t *testing.T) {
	pruner := &fakePruner{batches: []int64{2, 2, 1}}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     quietLogger(),
		DB:         passthroughTxRunner{},
		Repository: pruner,
		BatchSize:  2,
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 3, pruner.calls)
}

func TestOutboxRetentionJobStopsOnCancel(t *testing.T) {
	pruner := &fakePruner{batches: []int64{2, 2, 2, 2}}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     quietLogger(),
		DB:         passthroughTxRunner{},
		Repository: pruner,
		BatchSize:  2,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	pruner.afterCall = func(call int) {
		if call == 2 {
			cancel()
		}
	}
	assert.ErrorIs(t, job.Run(ctx), context.Canceled)
	assert.Equal(t, 2, pruner.calls)
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     quietLogger(),
		DB:         passthroughTxRunner{},
		Repository: &fakePruner{err: errors.New("boom")},
	})
	require.NoError(t, err)
	assert.ErrorContains(t, job.Run(context.Background()), "boom")
}

func TestOutboxRetentionJobRequiresDependencies(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: quietLogger()})
	assert.Error(t, err)
}

type fakePruner struct {
	batches     []int64
	err         error
	cutoff      time.Time
	minAttempts int
	limit       int
	calls       int
	afterCall   func(call int)
}

func (f *fakePruner) PruneDelivered(_ context.Context, _ *gorm.DB, cutoff time.Time, minAttempts, limit int) (int64, error) {
	f.calls++
	f.cutoff, f.minAttempts, f.limit = cutoff, minAttempts, limit
	if f.afterCall != nil {
		f.afterCall(f.calls)
	}
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

type passthroughTxRunner struct{}

func (passthroughTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
