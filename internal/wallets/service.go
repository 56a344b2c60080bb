package wallets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/internal/ledger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	dbpkg "github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/money"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/wealthguardian-backend/pkg/pagination"
)

const (
	InitialBalanceDescription = "Initial wallet balance"

	detailEntryLimit    = 10
	recentActivityLimit = 5
)

// Service owns wallet provisioning and read models.
type Service interface {
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ProvisionTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Wallet, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*WalletDetail, error)
	ListWalletTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error)
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*Stats, error)
}

// ServiceParams bundles the wallet service dependencies.
type ServiceParams struct {
	DB           dbpkg.TxRunner
	Repo         ledger.Repository
	Outbox       outbox.Emitter
	WalletConfig config.WalletConfig
	Logger       *logger.Logger
}

type service struct {
	db          dbpkg.TxRunner
	repo        ledger.Repository
	outbox      outbox.Emitter
	logg        *logger.Logger
	startingBal int64
	currency    string
}

// NewService builds the wallet service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("ledger repository is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	starting, err := params.WalletConfig.StartingBalanceAmount()
	if err != nil {
		return nil, err
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "wallets", Output: io.Discard})
	}
	return &service{
		db:          params.DB,
		repo:        params.Repo,
		outbox:      params.Outbox,
		logg:        logg,
		startingBal: money.ToMinor(starting),
		currency:    params.WalletConfig.Currency(),
	}, nil
}

func (s *service) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUser
	}

	wallet, err := s.repo.FindWalletByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wallet")
	}

	var created *models.Wallet
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		w, err := s.ProvisionTx(ctx, tx, userID)
		created = w
		return err
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			existing, findErr := s.repo.FindWalletByUserID(ctx, userID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reload wallet after concurrent create")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision wallet")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":       userID.String(),
		"wallet_id":     created.ID.String(),
		"balance_minor": created.BalanceMinor,
	})
	s.logg.Info(logCtx, "wallet provisioned")
	return created, nil
}

// ProvisionTx creates the wallet, its seed deposit, and the provisioned event
// inside tx. A concurrent create surfaces as ledger.ErrDuplicate.
func (s *service) ProvisionTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Wallet, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	repo := s.repo.WithTx(tx)

	wallet := &models.Wallet{
		UserID:       userID,
		BalanceMinor: s.startingBal,
		Currency:     s.currency,
	}
	if err := repo.CreateWallet(ctx, wallet); err != nil {
		return nil, err
	}

	var seedID *uuid.UUID
	if s.startingBal > 0 {
		seed := &models.WalletTransaction{
			WalletID:    wallet.ID,
			AmountMinor: s.startingBal,
			Type:        enums.WalletTransactionDeposit,
			Status:      enums.WalletTransactionCompleted,
			Description: InitialBalanceDescription,
		}
		if err := repo.CreateTransaction(ctx, seed); err != nil {
			return nil, err
		}
		seedID = &seed.ID
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventWalletProvisioned,
		AggregateType: enums.AggregateWallet,
		AggregateID:   wallet.ID,
		Actor:         &outbox.ActorRef{UserID: userID},
		Data: payloads.WalletProvisionedEvent{
			WalletID:      wallet.ID,
			UserID:        userID,
			BalanceMinor:  wallet.BalanceMinor,
			Currency:      wallet.Currency,
			SeedEntryID:   seedID,
			ProvisionedAt: time.Now().UTC(),
		},
	}); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *service) GetWallet(ctx context.Context, userID uuid.UUID) (*WalletDetail, error) {
	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentTransactions(ctx, wallet.ID, detailEntryLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent transactions")
	}
	return &WalletDetail{
		WalletView:   NewWalletView(wallet),
		Transactions: transactionViews(recent),
	}, nil
}

func (s *service) ListWalletTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error) {
	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	params = params.Normalize()

	total, err := s.repo.CountTransactions(ctx, wallet.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count transactions")
	}
	rows, err := s.repo.ListTransactions(ctx, wallet.ID, params.Offset(), params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list transactions")
	}

	return &TransactionPage{
		Items: transactionViews(rows),
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
		Pages: pagination.Pages(total, params.Limit),
	}, nil
}

func (s *service) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*Stats, error) {
	wallet, err := s.repo.FindWalletByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wallet")
	}
	if now.IsZero() {
		now = time.Now()
	}

	summary, err := s.repo.SummarizeTransactions(ctx, wallet.ID, now.AddDate(0, -1, 0))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summarize transactions")
	}
	recent, err := s.repo.RecentTransactions(ctx, wallet.ID, recentActivityLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent activity")
	}

	activity := make([]ActivityView, 0, len(recent))
	for _, row := range recent {
		activity = append(activity, ActivityView{
			ID:          row.ID,
			Type:        row.Type,
			Amount:      money.FromMinor(row.AmountMinor),
			Description: row.Description,
			Date:        row.CreatedAt,
		})
	}

	return &Stats{
		TotalSent:         money.FromMinor(summary.SentMinor),
		TotalReceived:     money.FromMinor(summary.ReceivedMinor),
		LastMonthActivity: money.FromMinor(summary.WindowNetMinor),
		TransactionCount:  summary.Count,
		RecentActivity:    activity,
	}, nil
}
