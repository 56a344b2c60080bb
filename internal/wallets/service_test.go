package wallets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/internal/ledger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	dbpkg "github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox"
	"github.com/angelmondragon/wealthguardian-backend/pkg/pagination"
)

type harness struct {
	conn *gorm.DB
	repo ledger.Repository
	svc  Service
}

func newHarness(t *testing.T, starting string, emitter outbox.Emitter) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	repo := ledger.NewRepository(conn)
	if emitter == nil {
		emitter = outbox.NewService(outbox.NewRepository(conn), nil)
	}
	svc, err := NewService(ServiceParams{
		DB:           dbpkg.NewFromGorm(conn),
		Repo:         repo,
		Outbox:       emitter,
		WalletConfig: config.WalletConfig{StartingBalance: starting, DefaultCurrency: "inr"},
	})
	require.NoError(t, err)
	return &harness{conn: conn, repo: repo, svc: svc}
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

func TestGetOrCreateWalletProvisionsStartingBalance(t *testing.T) {
	h := newHarness(t, "1000", nil)
	ctx := context.Background()
	userID := uuid.New()

	wallet, err := h.svc.GetOrCreateWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), wallet.BalanceMinor)
	assert.Equal(t, "INR", wallet.Currency)

	again, err := h.svc.GetOrCreateWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, again.ID)

	entries, err := h.repo.ListTransactions(ctx, wallet.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.WalletTransactionDeposit, entries[0].Type)
	assert.Equal(t, enums.WalletTransactionCompleted, entries[0].Status)
	assert.Equal(t, InitialBalanceDescription, entries[0].Description)
	assert.Equal(t, int64(100000), entries[0].AmountMinor)

	var events []models.OutboxEvent
	require.NoError(t, h.conn.Where("aggregate_id = ?", wallet.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventWalletProvisioned, events[0].EventType)
}

func TestGetOrCreateWalletConcurrentCallersShareOneWallet(t *testing.T) {
	h := newHarness(t, "1000", nil)
	ctx := context.Background()
	userID := uuid.New()

	const callers = 8
	ids := make([]uuid.UUID, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := h.svc.GetOrCreateWallet(ctx, userID)
			errs[i] = err
			if w != nil {
				ids[i] = w.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var walletCount, entryCount int64
	require.NoError(t, h.conn.Model(&models.Wallet{}).Where("user_id = ?", userID).Count(&walletCount).Error)
	require.NoError(t, h.conn.Model(&models.WalletTransaction{}).Where("wallet_id = ?", ids[0]).Count(&entryCount).Error)
	assert.Equal(t, int64(1), walletCount)
	assert.Equal(t, int64(1), entryCount)
}

func TestGetOrCreateWalletZeroStartingBalanceSkipsSeedEntry(t *testing.T) {
	h := newHarness(t, "0", nil)
	wallet, err := h.svc.GetOrCreateWallet(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.BalanceMinor)

	count, err := h.repo.CountTransactions(context.Background(), wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGetOrCreateWalletRollsBackWhenOutboxFails(t *testing.T) {
	h := newHarness(t, "1000", failingEmitter{})
	userID := uuid.New()

	_, err := h.svc.GetOrCreateWallet(context.Background(), userID)
	require.Error(t, err)

	var walletCount, entryCount int64
	require.NoError(t, h.conn.Model(&models.Wallet{}).Count(&walletCount).Error)
	require.NoError(t, h.conn.Model(&models.WalletTransaction{}).Count(&entryCount).Error)
	assert.Zero(t, walletCount)
	assert.Zero(t, entryCount)
}

func TestGetOrCreateWalletRejectsNilUser(t *testing.T) {
	h := newHarness(t, "1000", nil)
	_, err := h.svc.GetOrCreateWallet(context.Background(), uuid.Nil)
	require.ErrorIs(t, err, ErrInvalidUser)
}

func TestListWalletTransactionsPaginates(t *testing.T) {
	h := newHarness(t, "1000", nil)
	ctx := context.Background()
	userID := uuid.New()
	wallet, err := h.svc.GetOrCreateWallet(ctx, userID)
	require.NoError(t, err)

	base := time.Now().UTC().Add(time.Hour)
	for i := 0; i < 4; i++ {
		require.NoError(t, h.repo.CreateTransaction(ctx, &models.WalletTransaction{
			WalletID:    wallet.ID,
			AmountMinor: int64(100 * (i + 1)),
			Type:        enums.WalletTransactionTransferIn,
			Status:      enums.WalletTransactionCompleted,
			Description: "Funds transfer",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := h.svc.ListWalletTransactions(ctx, userID, pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].Amount.Equal(decimal.NewFromInt(2)))
	assert.True(t, page.Items[1].Amount.Equal(decimal.NewFromInt(1)))

	defaults, err := h.svc.ListWalletTransactions(ctx, userID, pagination.Params{})
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, defaults.Limit)
	assert.Len(t, defaults.Items, 5)
}

func TestGetWalletIncludesRecentEntries(t *testing.T) {
	h := newHarness(t, "1000", nil)
	detail, err := h.svc.GetWallet(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, detail.Balance.Equal(decimal.NewFromInt(1000)))
	require.Len(t, detail.Transactions, 1)
	assert.Equal(t, InitialBalanceDescription, detail.Transactions[0].Description)
}

func TestStats(t *testing.T) {
	h := newHarness(t, "1000", nil)
	ctx := context.Background()

	_, err := h.svc.Stats(ctx, uuid.New(), time.Now())
	require.ErrorIs(t, err, ErrWalletNotFound)

	userID := uuid.New()
	wallet, err := h.svc.GetOrCreateWallet(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, h.repo.CreateTransaction(ctx, &models.WalletTransaction{
		WalletID:    wallet.ID,
		AmountMinor: 30000,
		Type:        enums.WalletTransactionTransferOut,
		Status:      enums.WalletTransactionCompleted,
		Description: "rent",
	}))

	stats, err := h.svc.Stats(ctx, userID, time.Now())
	require.NoError(t, err)
	assert.True(t, stats.TotalSent.Equal(decimal.NewFromInt(300)))
	assert.True(t, stats.TotalReceived.Equal(decimal.NewFromInt(1000)))
	assert.True(t, stats.LastMonthActivity.Equal(decimal.NewFromInt(700)))
	assert.Equal(t, int64(2), stats.TransactionCount)
	assert.Len(t, stats.RecentActivity, 2)
}
