package transfers

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
)

// DefaultDescription labels transfers submitted without a description.
const DefaultDescription = "Funds transfer"

// TransferInput is a request to move funds between two users.
type TransferInput struct {
	SenderUserID  uuid.UUID
	ReceiverEmail string
	Amount        decimal.Decimal
	Description   string
}

// Counterparty identifies the receiving user.
type Counterparty struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Result is the sender-side outcome of a transfer.
type Result struct {
	Transaction     *models.WalletTransaction
	SenderWalletID  uuid.UUID
	NewBalanceMinor int64
	Receiver        Counterparty
}

// Service moves funds between wallets.
type Service interface {
	Transfer(ctx context.Context, input TransferInput) (*Result, error)
}

type walletProvider interface {
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

type userLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type transferRecorder interface {
	IncTransfer(outcome string)
}

// ServiceParams bundles the transfer service dependencies.
type ServiceParams struct {
	DB      dbpkg.TxRunner
	Repo    ledger.Repository
	Wallets walletProvider
	Users   userLookup
	Outbox  outbox.Emitter
	Metrics transferRecorder
	Logger  *logger.Logger
}

type service struct {
	db      dbpkg.TxRunner
	repo    ledger.Repository
	wallets walletProvider
	users   userLookup
	outbox  outbox.Emitter
	metrics transferRecorder
	logg    *logger.Logger
}

// NewService builds the transfer service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("database client is required")
	case params.Repo == nil:
		return nil, fmt.Errorf("ledger repository is required")
	case params.Wallets == nil:
		return nil, fmt.Errorf("wallet provider is required")
	case params.Users == nil:
		return nil, fmt.Errorf("user lookup is required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "transfers", Output: io.Discard})
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		wallets: params.Wallets,
		users:   params.Users,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    logg,
	}, nil
}

func (s *service) Transfer(ctx context.Context, input TransferInput) (*Result, error) {
	result, err := s.transfer(ctx, input)
	s.record(err)
	return result, err
}

func (s *service) transfer(ctx context.Context, input TransferInput) (*Result, error) {
	amountMinor, err := money.PositiveMinor(input.Amount)
	if err != nil {
		return nil, ErrInvalidAmount
	}

	senderWallet, err := s.wallets.GetOrCreateWallet(ctx, input.SenderUserID)
	if err != nil {
		return nil, err
	}
	if senderWallet.BalanceMinor < amountMinor {
		return nil, ErrInsufficientBalance
	}

	receiver, err := s.users.FindByEmail(ctx, input.ReceiverEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup receiver")
	}
	if receiver.ID == input.SenderUserID {
		return nil, ErrSelfTransferNotAllowed
	}

	receiverWallet, err := s.wallets.GetOrCreateWallet(ctx, receiver.ID)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = DefaultDescription
	}

	var (
		outEntry *models.WalletTransaction
		debited  *models.Wallet
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		w, err := repo.DebitWallet(ctx, senderWallet.ID, amountMinor)
		if err != nil {
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				return ErrInsufficientBalance
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "debit sender")
		}
		debited = w

		out := newEntry(senderWallet.ID, amountMinor, enums.WalletTransactionTransferOut, description, input.SenderUserID, receiver.ID)
		if err := repo.CreateTransaction(ctx, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record outgoing entry")
		}

		if _, err := repo.CreditWallet(ctx, receiverWallet.ID, amountMinor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "credit receiver")
		}

		in := newEntry(receiverWallet.ID, amountMinor, enums.WalletTransactionTransferIn, description, input.SenderUserID, receiver.ID)
		if err := repo.CreateTransaction(ctx, in); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record incoming entry")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWalletTransferSettled,
			AggregateType: enums.AggregateWallet,
			AggregateID:   senderWallet.ID,
			Actor:         &outbox.ActorRef{UserID: input.SenderUserID},
			Data: payloads.TransferCompletedEvent{
				SenderWalletID:   senderWallet.ID,
				ReceiverWalletID: receiverWallet.ID,
				SenderUserID:     input.SenderUserID,
				ReceiverUserID:   receiver.ID,
				OutTransactionID: out.ID,
				InTransactionID:  in.ID,
				AmountMinor:      amountMinor,
				Description:      description,
				CompletedAt:      time.Now().UTC(),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "enqueue transfer event")
		}

		outEntry = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"wallet_id":          senderWallet.ID.String(),
		"receiver_wallet_id": receiverWallet.ID.String(),
		"transaction_id":     outEntry.ID.String(),
		"amount_minor":       amountMinor,
	})
	s.logg.Info(logCtx, "transfer completed")

	return &Result{
		Transaction:     outEntry,
		SenderWalletID:  senderWallet.ID,
		NewBalanceMinor: debited.BalanceMinor,
		Receiver:        Counterparty{Name: receiver.Name, Email: receiver.Email},
	}, nil
}

func newEntry(walletID uuid.UUID, amountMinor int64, kind enums.WalletTransactionType, description string, senderID, receiverID uuid.UUID) *models.WalletTransaction {
	return &models.WalletTransaction{
		WalletID:    walletID,
		AmountMinor: amountMinor,
		Type:        kind,
		Status:      enums.WalletTransactionCompleted,
		Description: description,
		SenderID:    &senderID,
		ReceiverID:  &receiverID,
	}
}

func (s *service) record(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "completed"
	switch {
	case err == nil:
	case errors.Is(err, ErrInsufficientBalance):
		outcome = "insufficient_balance"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrSelfTransferNotAllowed):
		outcome = "rejected"
	case errors.Is(err, ErrReceiverNotFound):
		outcome = "receiver_not_found"
	default:
		outcome = "failed"
	}
	s.metrics.IncTransfer(outcome)
}
