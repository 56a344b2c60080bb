package payments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/internal/ledger"
	dbpkg "github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/money"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/wealthguardian-backend/pkg/razorpay"
)

const (
	verifyDescription    = "Funds added via Razorpay"
	webhookDescription   = "Funds added via Razorpay (webhook)"
	reconcileDescription = "Funds added via Razorpay (reconciled)"
)

// Settlement paths, used as log and metric labels.
const (
	PathVerify    = "verify"
	PathWebhook   = "webhook"
	PathReconcile = "reconcile"
)

// Outcome classifies a server-side settlement attempt.
type Outcome string

const (
	OutcomeSettled      Outcome = "settled"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeUnknownOrder Outcome = "unknown_order"
	OutcomePending      Outcome = "pending"
	OutcomeFailed       Outcome = "failed"
)

// Gateway is the subset of the payment gateway client used for settlement.
type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	FetchOrderPayments(ctx context.Context, orderID string) ([]razorpay.Payment, error)
}

type walletProvider interface {
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

type settlementRecorder interface {
	IncSettlement(path, outcome string)
}

// DepositInput requests a gateway order for topping up a wallet.
type DepositInput struct {
	UserID   uuid.UUID
	Amount   decimal.Decimal
	Currency string
}

// DepositOrder is what the client needs to open the gateway checkout.
type DepositOrder struct {
	OrderID     string
	Amount      decimal.Decimal
	AmountMinor int64
	Currency    string
	Receipt     string
	KeyID       string
}

// VerifyInput carries the client-submitted checkout callback.
type VerifyInput struct {
	UserID    uuid.UUID
	OrderID   string
	PaymentID string
	Signature string
}

// Settlement is the result of crediting a captured payment.
type Settlement struct {
	Transaction      *models.WalletTransaction
	NewBalanceMinor  int64
	AlreadyProcessed bool
}

// Service runs the deposit order lifecycle.
type Service interface {
	CreateDepositOrder(ctx context.Context, input DepositInput) (*DepositOrder, error)
	VerifyPayment(ctx context.Context, input VerifyInput) (*Settlement, error)
	HandlePaymentCapturedEvent(ctx context.Context, orderID, paymentID string) Outcome
	ReconcileOrder(ctx context.Context, orderID string) (Outcome, error)
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	DB              dbpkg.TxRunner
	Repo            ledger.Repository
	Wallets         walletProvider
	Gateway         Gateway
	Outbox          outbox.Emitter
	Metrics         settlementRecorder
	Logger          *logger.Logger
	DefaultCurrency string
	Clock           func() time.Time
}

type service struct {
	db       dbpkg.TxRunner
	repo     ledger.Repository
	wallets  walletProvider
	gateway  Gateway
	outbox   outbox.Emitter
	metrics  settlementRecorder
	logg     *logger.Logger
	currency enums.Currency
	now      func() time.Time
}

// NewService builds the payment settlement service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("database client is required")
	case params.Repo == nil:
		return nil, fmt.Errorf("ledger repository is required")
	case params.Wallets == nil:
		return nil, fmt.Errorf("wallet provider is required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway is required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter is required")
	}
	currency := enums.CurrencyINR
	if strings.TrimSpace(params.DefaultCurrency) != "" {
		parsed, err := enums.ParseCurrency(params.DefaultCurrency)
		if err != nil {
			return nil, err
		}
		currency = parsed
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "payments", Output: io.Discard})
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		wallets:  params.Wallets,
		gateway:  params.Gateway,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     logg,
		currency: currency,
		now:      clock,
	}, nil
}

func (s *service) CreateDepositOrder(ctx context.Context, input DepositInput) (*DepositOrder, error) {
	amountMinor, err := money.PositiveMinor(input.Amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}
	currency := s.currency
	if strings.TrimSpace(input.Currency) != "" {
		parsed, err := enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, ErrInvalidCurrency
		}
		currency = parsed
	}

	wallet, err := s.wallets.GetOrCreateWallet(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	receipt, err := NewReceipt(input.UserID, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build receipt")
	}

	remote, err := s.gateway.CreateOrder(ctx, amountMinor, currency.String(), receipt)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "wallet_id", wallet.ID.String()), "create gateway order failed", err)
		return nil, errors.Join(ErrPaymentGateway, err)
	}

	orderCurrency := currency.String()
	if remote.Currency != "" {
		orderCurrency = strings.ToUpper(remote.Currency)
	}
	order := &models.PaymentOrder{
		ID:          remote.ID,
		WalletID:    wallet.ID,
		AmountMinor: amountMinor,
		Currency:    orderCurrency,
		Status:      enums.PaymentOrderCreated,
		Receipt:     receipt,
	}
	if err := s.repo.CreatePaymentOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist payment order")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID,
		"wallet_id":    wallet.ID.String(),
		"amount_minor": amountMinor,
		"receipt":      receipt,
	})
	s.logg.Info(logCtx, "deposit order created")

	return &DepositOrder{
		OrderID:     order.ID,
		Amount:      money.FromMinor(amountMinor),
		AmountMinor: amountMinor,
		Currency:    orderCurrency,
		Receipt:     receipt,
		KeyID:       s.gateway.KeyID(),
	}, nil
}

func (s *service) VerifyPayment(ctx context.Context, input VerifyInput) (*Settlement, error) {
	orderID := strings.TrimSpace(input.OrderID)
	paymentID := strings.TrimSpace(input.PaymentID)
	if orderID == "" || paymentID == "" || !s.gateway.VerifyPaymentSignature(orderID, paymentID, strings.TrimSpace(input.Signature)) {
		s.recordSettlement(PathVerify, "invalid_signature")
		return nil, ErrInvalidSignature
	}

	order, err := s.repo.FindPaymentOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentOrderNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment order")
	}

	wallet, err := s.repo.FindWalletByID(ctx, order.WalletID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order wallet")
	}
	if wallet.UserID != input.UserID {
		return nil, ErrNotAuthorized
	}

	result, err := s.settle(ctx, order, paymentID, PathVerify)
	if err != nil {
		s.recordSettlement(PathVerify, string(OutcomeFailed))
		return nil, err
	}
	s.recordSettlement(PathVerify, string(outcomeFor(result)))
	return result, nil
}

func (s *service) HandlePaymentCapturedEvent(ctx context.Context, orderID, paymentID string) Outcome {
	return s.capture(ctx, orderID, paymentID, PathWebhook)
}

func (s *service) ReconcileOrder(ctx context.Context, orderID string) (Outcome, error) {
	payments, err := s.gateway.FetchOrderPayments(ctx, orderID)
	if err != nil {
		return OutcomeFailed, err
	}
	for _, p := range payments {
		if !p.IsCaptured() {
			continue
		}
		outcome := s.capture(ctx, orderID, p.ID, PathReconcile)
		if outcome == OutcomeFailed {
			return outcome, fmt.Errorf("settle order %s payment %s", orderID, p.ID)
		}
		return outcome, nil
	}
	return OutcomePending, nil
}

// capture settles a payment reported by the gateway itself. Failures are
// logged and counted; the caller only sees the outcome.
func (s *service) capture(ctx context.Context, orderID, paymentID, path string) Outcome {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   orderID,
		"payment_id": paymentID,
		"path":       path,
	})

	outcome := s.captureOutcome(logCtx, orderID, paymentID, path)
	s.recordSettlement(path, string(outcome))
	logCtx = s.logg.WithField(logCtx, "outcome", string(outcome))
	switch outcome {
	case OutcomeSettled:
		s.logg.Info(logCtx, "payment settled")
	case OutcomeDuplicate:
		s.logg.Info(logCtx, "payment already settled")
	case OutcomeUnknownOrder:
		s.logg.Warn(logCtx, "captured payment for unknown order")
	}
	return outcome
}

func (s *service) captureOutcome(ctx context.Context, orderID, paymentID, path string) Outcome {
	if strings.TrimSpace(orderID) == "" || strings.TrimSpace(paymentID) == "" {
		return OutcomeUnknownOrder
	}
	order, err := s.repo.FindPaymentOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeUnknownOrder
		}
		s.logg.Error(ctx, "load payment order failed", err)
		return OutcomeFailed
	}
	result, err := s.settle(ctx, order, paymentID, path)
	if err != nil {
		s.logg.Error(ctx, "payment settlement failed", err)
		return OutcomeFailed
	}
	return outcomeFor(result)
}

// settle credits order's wallet exactly once for paymentID.
func (s *service) settle(ctx context.Context, order *models.PaymentOrder, paymentID, path string) (*Settlement, error) {
	if existing, err := s.repo.FindTransactionByPaymentID(ctx, paymentID); err == nil {
		return s.replay(ctx, existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing settlement")
	}
	if order.Status == enums.PaymentOrderCaptured {
		return s.replayOrder(ctx, order.ID)
	}

	var result *Settlement
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		captured, err := repo.MarkOrderCaptured(ctx, order.ID, paymentID)
		if err != nil {
			return err
		}
		if !captured {
			return errCaptureLost
		}

		orderID := order.ID
		pid := paymentID
		entry := &models.WalletTransaction{
			WalletID:          order.WalletID,
			AmountMinor:       order.AmountMinor,
			Type:              enums.WalletTransactionDeposit,
			Status:            enums.WalletTransactionCompleted,
			Description:       descriptionFor(path),
			RazorpayOrderID:   &orderID,
			RazorpayPaymentID: &pid,
		}
		if err := repo.CreateTransaction(ctx, entry); err != nil {
			if errors.Is(err, ledger.ErrDuplicate) {
				return errCaptureLost
			}
			return err
		}

		wallet, err := repo.CreditWallet(ctx, order.WalletID, order.AmountMinor)
		if err != nil {
			return err
		}
		if err := repo.LinkOrderTransaction(ctx, order.ID, entry.ID); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWalletDepositSettled,
			AggregateType: enums.AggregateWallet,
			AggregateID:   wallet.ID,
			Actor:         &outbox.ActorRef{UserID: wallet.UserID},
			Data: payloads.DepositSettledEvent{
				WalletID:          wallet.ID,
				TransactionID:     entry.ID,
				RazorpayOrderID:   order.ID,
				RazorpayPaymentID: paymentID,
				AmountMinor:       order.AmountMinor,
				Currency:          order.Currency,
				BalanceMinor:      wallet.BalanceMinor,
				Source:            path,
				SettledAt:         time.Now().UTC(),
			},
		}); err != nil {
			return err
		}

		result = &Settlement{Transaction: entry, NewBalanceMinor: wallet.BalanceMinor}
		return nil
	})
	if err != nil {
		if errors.Is(err, errCaptureLost) {
			return s.resolveLostRace(ctx, order.ID, paymentID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle payment")
	}
	return result, nil
}

func (s *service) resolveLostRace(ctx context.Context, orderID, paymentID string) (*Settlement, error) {
	if existing, err := s.repo.FindTransactionByPaymentID(ctx, paymentID); err == nil {
		return s.replay(ctx, existing)
	}
	return s.replayOrder(ctx, orderID)
}

// replayOrder returns the entry that captured orderID.
func (s *service) replayOrder(ctx context.Context, orderID string) (*Settlement, error) {
	order, err := s.repo.FindPaymentOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload payment order")
	}
	var entry *models.WalletTransaction
	switch {
	case order.CapturedTransactionID != nil:
		entry, err = s.repo.FindTransactionByID(ctx, *order.CapturedTransactionID)
	case order.RazorpayPaymentID != nil:
		entry, err = s.repo.FindTransactionByPaymentID(ctx, *order.RazorpayPaymentID)
	default:
		err = gorm.ErrRecordNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load captured transaction")
	}
	return s.replay(ctx, entry)
}

func (s *service) replay(ctx context.Context, entry *models.WalletTransaction) (*Settlement, error) {
	wallet, err := s.repo.FindWalletByID(ctx, entry.WalletID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wallet")
	}
	return &Settlement{
		Transaction:      entry,
		NewBalanceMinor:  wallet.BalanceMinor,
		AlreadyProcessed: true,
	}, nil
}

func (s *service) recordSettlement(path, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncSettlement(path, outcome)
}

func outcomeFor(result *Settlement) Outcome {
	if result.AlreadyProcessed {
		return OutcomeDuplicate
	}
	return OutcomeSettled
}

func descriptionFor(path string) string {
	switch path {
	case PathWebhook:
		return webhookDescription
	case PathReconcile:
		return reconcileDescription
	default:
		return verifyDescription
	}
}
