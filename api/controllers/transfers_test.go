package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wealthguardian-backend/internal/transfers"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
)

type stubTransferService struct {
	result    *transfers.Result
	err       error
	lastInput transfers.TransferInput
}

func (s *stubTransferService) Transfer(ctx context.Context, input transfers.TransferInput) (*transfers.Result, error) {
	s.lastInput = input
	return s.result, s.err
}

func TestWalletTransferSuccess(t *testing.T) {
	senderID := uuid.New()
	walletID := uuid.New()
	svc := &stubTransferService{result: &transfers.Result{
		Transaction: &models.WalletTransaction{
			ID:          uuid.New(),
			WalletID:    walletID,
			AmountMinor: 25000,
			Type:        enums.WalletTransactionTransferOut,
			Status:      enums.WalletTransactionCompleted,
			Description: "Rent",
		},
		SenderWalletID:  walletID,
		NewBalanceMinor: 75000,
		Receiver:        transfers.Counterparty{Name: "Ravi", Email: "ravi@example.com"},
	}}

	body := `{"receiverEmail":"ravi@example.com","amount":"250","description":"  Rent  "}`
	rec := httptest.NewRecorder()
	WalletTransfer(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/wallet/transfer", body, senderID))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, senderID, svc.lastInput.SenderUserID)
	assert.Equal(t, "ravi@example.com", svc.lastInput.ReceiverEmail)
	assert.True(t, svc.lastInput.Amount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, "Rent", svc.lastInput.Description)
	assert.Contains(t, rec.Body.String(), `"newBalance":"750"`)
	assert.Contains(t, rec.Body.String(), `"type":"TRANSFER_OUT"`)
	assert.Contains(t, rec.Body.String(), `"email":"ravi@example.com"`)
}

func TestWalletTransferTruncatesDescription(t *testing.T) {
	svc := &stubTransferService{result: &transfers.Result{Transaction: &models.WalletTransaction{}}}

	long := strings.Repeat("x", 400)
	body := `{"receiverEmail":"ravi@example.com","amount":"1","description":"` + long + `"}`
	rec := httptest.NewRecorder()
	WalletTransfer(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/wallet/transfer", body, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, svc.lastInput.Description, maxTransferDescriptionLen)
}

func TestWalletTransferValidation(t *testing.T) {
	svc := &stubTransferService{}

	rec := httptest.NewRecorder()
	WalletTransfer(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/wallet/transfer", `{"receiverEmail":"nope","amount":"1"}`, uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	WalletTransfer(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/wallet/transfer", `{"receiverEmail":"a@b.co","amount":"1","memo":"x"}`, uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.lastInput.ReceiverEmail)
}

func TestWalletTransferErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient", transfers.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"receiver missing", transfers.ErrReceiverNotFound, http.StatusNotFound},
		{"self transfer", transfers.ErrSelfTransferNotAllowed, http.StatusBadRequest},
		{"bad amount", transfers.ErrInvalidAmount, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubTransferService{err: tt.err}
			rec := httptest.NewRecorder()
			WalletTransfer(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/wallet/transfer", `{"receiverEmail":"ravi@example.com","amount":"1"}`, uuid.New()))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
