package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/internal/wallets"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/pagination"
)

type stubWalletService struct {
	detail     *wallets.WalletDetail
	page       *wallets.TransactionPage
	stats      *wallets.Stats
	err        error
	lastUser   uuid.UUID
	lastParams pagination.Params
}

func (s *stubWalletService) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return nil, s.err
}

func (s *stubWalletService) ProvisionTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Wallet, error) {
	return nil, s.err
}

func (s *stubWalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*wallets.WalletDetail, error) {
	s.lastUser = userID
	return s.detail, s.err
}

func (s *stubWalletService) ListWalletTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*wallets.TransactionPage, error) {
	s.lastUser = userID
	s.lastParams = params
	return s.page, s.err
}

func (s *stubWalletService) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*wallets.Stats, error) {
	s.lastUser = userID
	return s.stats, s.err
}

func TestWalletGetReturnsDetail(t *testing.T) {
	userID := uuid.New()
	svc := &stubWalletService{detail: &wallets.WalletDetail{
		WalletView: wallets.WalletView{ID: uuid.New(), UserID: userID, Balance: decimal.NewFromInt(1000), Currency: "INR"},
	}}

	rec := httptest.NewRecorder()
	WalletGet(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/wallet", "", userID))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, userID, svc.lastUser)

	var envelope struct {
		Data struct {
			Balance  string `json:"balance"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "1000", envelope.Data.Balance)
	assert.Equal(t, "INR", envelope.Data.Currency)
}

func TestWalletGetRequiresUser(t *testing.T) {
	svc := &stubWalletService{}
	rec := httptest.NewRecorder()
	WalletGet(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWalletGetNotFound(t *testing.T) {
	svc := &stubWalletService{err: wallets.ErrWalletNotFound}
	rec := httptest.NewRecorder()
	WalletGet(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/wallet", "", uuid.New()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWalletTransactionsPagination(t *testing.T) {
	svc := &stubWalletService{page: &wallets.TransactionPage{
		Items: []wallets.TransactionView{{ID: uuid.New(), Amount: decimal.NewFromInt(50)}},
		Total: 41,
		Page:  3,
		Limit: 20,
		Pages: 3,
	}}

	rec := httptest.NewRecorder()
	WalletTransactions(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/wallet/transactions?page=3&limit=20", "", uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, pagination.Params{Page: 3, Limit: 20}, svc.lastParams)

	var envelope struct {
		Data struct {
			Transactions []json.RawMessage `json:"transactions"`
			Pagination   paginationMeta    `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Len(t, envelope.Data.Transactions, 1)
	assert.Equal(t, paginationMeta{Total: 41, Page: 3, Limit: 20, Pages: 3}, envelope.Data.Pagination)
}

func TestWalletTransactionsEmptyPageIsArray(t *testing.T) {
	svc := &stubWalletService{page: &wallets.TransactionPage{Page: 1, Limit: 20}}

	rec := httptest.NewRecorder()
	WalletTransactions(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/wallet/transactions", "", uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"transactions":[]`)
	assert.Equal(t, pagination.Params{Page: pagination.DefaultPage, Limit: pagination.DefaultLimit}, svc.lastParams)
}

func TestWalletTransactionsRejectsBadLimit(t *testing.T) {
	svc := &stubWalletService{}
	rec := httptest.NewRecorder()
	WalletTransactions(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/wallet/transactions?limit=500", "", uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWalletStats(t *testing.T) {
	svc := &stubWalletService{stats: &wallets.Stats{
		TotalSent:        decimal.NewFromInt(200),
		TotalReceived:    decimal.NewFromInt(75),
		TransactionCount: 4,
	}}

	rec := httptest.NewRecorder()
	WalletStats(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/wallet/stats", "", uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalSent":"200"`)
	assert.Contains(t, rec.Body.String(), `"transactionCount":4`)
}
