package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/wealthguardian-backend/internal/payments"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

const (
	defaultReconcileLimit  = 50
	defaultReconcileMinAge = 15 * time.Minute
	defaultReconcileMaxAge = 72 * time.Hour
)

type staleOrderLister interface {
	ListStaleOrders(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]models.PaymentOrder, error)
}

type orderReconciler interface {
	ReconcileOrder(ctx context.Context, orderID string) (payments.Outcome, error)
}

// PaymentReconcileJobParams configures the stale deposit order sweep.
type PaymentReconcileJobParams struct {
	Logger     *logger.Logger
	Orders     staleOrderLister
	Reconciler orderReconciler
	Limit      int
	MinAge     time.Duration
	MaxAge     time.Duration
	Now        func() time.Time
}

// NewPaymentReconcileJob builds the job that settles deposits whose webhook never arrived.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("payment reconciler required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	minAge := params.MinAge
	if minAge <= 0 {
		minAge = defaultReconcileMinAge
	}
	maxAge := params.MaxAge
	if maxAge <= minAge {
		maxAge = defaultReconcileMaxAge
	}
	return &paymentReconcileJob{
		logg:       params.Logger,
		orders:     params.Orders,
		reconciler: params.Reconciler,
		limit:      limit,
		minAge:     minAge,
		maxAge:     maxAge,
		now:        now,
	}, nil
}

type paymentReconcileJob struct {
	logg       *logger.Logger
	orders     staleOrderLister
	reconciler orderReconciler
	limit      int
	minAge     time.Duration
	maxAge     time.Duration
	now        func() time.Time
}

func (j *paymentReconcileJob) Name() string { return "payment-reconcile" }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	orders, err := j.orders.ListStaleOrders(ctx, now.Add(-j.maxAge), now.Add(-j.minAge), j.limit)
	if err != nil {
		return fmt.Errorf("list stale orders: %w", err)
	}

	counts := map[payments.Outcome]int{}
	var errs error
	for _, order := range orders {
		outcome, err := j.reconciler.ReconcileOrder(ctx, order.ID)
		counts[outcome]++
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"orders_scanned": len(orders),
		"settled":        counts[payments.OutcomeSettled],
		"duplicate":      counts[payments.OutcomeDuplicate],
		"pending":        counts[payments.OutcomePending],
		"failed":         counts[payments.OutcomeFailed],
	})
	j.logg.Info(logCtx, "payment reconcile sweep complete")
	return errs
}
