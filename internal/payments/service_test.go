package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/internal/ledger"
	"github.com/angelmondragon/wealthguardian-backend/internal/wallets"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	dbpkg "github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox"
	"github.com/angelmondragon/wealthguardian-backend/pkg/razorpay"
)

const testKeySecret = "key-secret"

type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	createErr error
	created   []createCall
	payments  map[string][]razorpay.Payment
}

type createCall struct {
	amountMinor int64
	currency    string
	receipt     string
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (*razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	g.created = append(g.created, createCall{amountMinor: amountMinor, currency: currency, receipt: receipt})
	return &razorpay.Order{
		ID:       fmt.Sprintf("order_%d", g.seq),
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return signature == sign(orderID, paymentID)
}

func (g *fakeGateway) FetchOrderPayments(_ context.Context, orderID string) ([]razorpay.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.payments[orderID], nil
}

func sign(orderID, paymentID string) string {
	return razorpay.Sign([]byte(orderID+"|"+paymentID), testKeySecret)
}

type settlementCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *settlementCounter) IncSettlement(path, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[path+":"+outcome]++
}

func (c *settlementCounter) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

type harness struct {
	conn    *gorm.DB
	repo    ledger.Repository
	gateway *fakeGateway
	metrics *settlementCounter
	svc     Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	repo := ledger.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)
	walletSvc, err := wallets.NewService(wallets.ServiceParams{
		DB:           dbpkg.NewFromGorm(conn),
		Repo:         repo,
		Outbox:       emitter,
		WalletConfig: config.WalletConfig{StartingBalance: "1000", DefaultCurrency: "INR"},
	})
	require.NoError(t, err)

	gateway := &fakeGateway{payments: map[string][]razorpay.Payment{}}
	metrics := &settlementCounter{}
	svc, err := NewService(ServiceParams{
		DB:      dbpkg.NewFromGorm(conn),
		Repo:    repo,
		Wallets: walletSvc,
		Gateway: gateway,
		Outbox:  emitter,
		Metrics: metrics,
	})
	require.NoError(t, err)
	return &harness{conn: conn, repo: repo, gateway: gateway, metrics: metrics, svc: svc}
}

func (h *harness) deposit(t *testing.T, userID uuid.UUID, amount string) *DepositOrder {
	t.Helper()
	order, err := h.svc.CreateDepositOrder(context.Background(), DepositInput{
		UserID: userID,
		Amount: decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return order
}

func (h *harness) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	w, err := h.repo.FindWalletByUserID(context.Background(), userID)
	require.NoError(t, err)
	return w.BalanceMinor
}

func (h *harness) depositCount(t *testing.T, paymentID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.conn.Model(&models.WalletTransaction{}).Where("razorpay_payment_id = ?", paymentID).Count(&n).Error)
	return n
}

func TestCreateDepositOrderPersistsCreatedOrder(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	order := h.deposit(t, userID, "500.50")
	assert.Equal(t, "order_1", order.OrderID)
	assert.Equal(t, int64(50050), order.AmountMinor)
	assert.Equal(t, "500.5", order.Amount.String())
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "rzp_test_key", order.KeyID)

	require.Len(t, h.gateway.created, 1)
	assert.Equal(t, int64(50050), h.gateway.created[0].amountMinor)
	assert.Equal(t, order.Receipt, h.gateway.created[0].receipt)

	stored, err := h.repo.FindPaymentOrder(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentOrderCreated, stored.Status)
	assert.Equal(t, int64(50050), stored.AmountMinor)
	assert.Equal(t, int64(100000), h.balance(t, userID))
}

func TestCreateDepositOrderValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateDepositOrder(ctx, DepositInput{UserID: uuid.New(), Amount: decimal.NewFromInt(-5)})
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = h.svc.CreateDepositOrder(ctx, DepositInput{UserID: uuid.New(), Amount: decimal.RequireFromString("184467440737095516.17")})
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = h.svc.CreateDepositOrder(ctx, DepositInput{UserID: uuid.New(), Amount: decimal.NewFromInt(5), Currency: "XYZ"})
	assert.True(t, errors.Is(err, ErrInvalidCurrency))

	assert.Empty(t, h.gateway.created)
}

func TestCreateDepositOrderGatewayFailureLeavesNoOrder(t *testing.T) {
	h := newHarness(t)
	h.gateway.createErr = errors.New("gateway timeout")

	_, err := h.svc.CreateDepositOrder(context.Background(), DepositInput{UserID: uuid.New(), Amount: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPaymentGateway))

	var n int64
	require.NoError(t, h.conn.Model(&models.PaymentOrder{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestVerifyPaymentCreditsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	order := h.deposit(t, userID, "500")

	input := VerifyInput{UserID: userID, OrderID: order.OrderID, PaymentID: "pay_1", Signature: sign(order.OrderID, "pay_1")}
	first, err := h.svc.VerifyPayment(ctx, input)
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)
	assert.Equal(t, int64(150000), first.NewBalanceMinor)
	assert.Equal(t, enums.WalletTransactionDeposit, first.Transaction.Type)
	assert.Equal(t, int64(50000), first.Transaction.AmountMinor)

	second, err := h.svc.VerifyPayment(ctx, input)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
	assert.Equal(t, int64(150000), second.NewBalanceMinor)

	assert.Equal(t, int64(150000), h.balance(t, userID))
	assert.Equal(t, int64(1), h.depositCount(t, "pay_1"))

	stored, err := h.repo.FindPaymentOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentOrderCaptured, stored.Status)
	require.NotNil(t, stored.CapturedTransactionID)
	assert.Equal(t, first.Transaction.ID, *stored.CapturedTransactionID)

	var events []models.OutboxEvent
	require.NoError(t, h.conn.Where("event_type = ?", enums.EventWalletDepositSettled).Find(&events).Error)
	assert.Len(t, events, 1)
	assert.Equal(t, 1, h.metrics.get("verify:settled"))
	assert.Equal(t, 1, h.metrics.get("verify:duplicate"))
}

func TestVerifyPaymentRejectsTamperedSignature(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	order := h.deposit(t, userID, "100")

	_, err := h.svc.VerifyPayment(ctx, VerifyInput{
		UserID:    userID,
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: sign(order.OrderID, "pay_2"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	stored, err := h.repo.FindPaymentOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentOrderCreated, stored.Status)
	assert.Zero(t, h.depositCount(t, "pay_1"))
	assert.Equal(t, int64(100000), h.balance(t, userID))
}

func TestVerifyPaymentOwnershipAndLookup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := uuid.New()
	order := h.deposit(t, owner, "100")

	_, err := h.svc.VerifyPayment(ctx, VerifyInput{
		UserID:    uuid.New(),
		OrderID:   order.OrderID,
		PaymentID: "pay_1",
		Signature: sign(order.OrderID, "pay_1"),
	})
	assert.True(t, errors.Is(err, ErrNotAuthorized))

	_, err = h.svc.VerifyPayment(ctx, VerifyInput{
		UserID:    owner,
		OrderID:   "order_missing",
		PaymentID: "pay_1",
		Signature: sign("order_missing", "pay_1"),
	})
	assert.True(t, errors.Is(err, ErrPaymentOrderNotFound))
	assert.Zero(t, h.depositCount(t, "pay_1"))
}

func TestWebhookAfterVerifyIsDuplicate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	order := h.deposit(t, userID, "250")

	_, err := h.svc.VerifyPayment(ctx, VerifyInput{UserID: userID, OrderID: order.OrderID, PaymentID: "pay_9", Signature: sign(order.OrderID, "pay_9")})
	require.NoError(t, err)

	assert.Equal(t, OutcomeDuplicate, h.svc.HandlePaymentCapturedEvent(ctx, order.OrderID, "pay_9"))
	assert.Equal(t, int64(125000), h.balance(t, userID))
	assert.Equal(t, int64(1), h.depositCount(t, "pay_9"))
}

func TestWebhookFirstThenVerifyReturnsExisting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	order := h.deposit(t, userID, "250")

	assert.Equal(t, OutcomeSettled, h.svc.HandlePaymentCapturedEvent(ctx, order.OrderID, "pay_3"))

	res, err := h.svc.VerifyPayment(ctx, VerifyInput{UserID: userID, OrderID: order.OrderID, PaymentID: "pay_3", Signature: sign(order.OrderID, "pay_3")})
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	assert.Equal(t, webhookDescription, res.Transaction.Description)
	assert.Equal(t, int64(125000), h.balance(t, userID))
}

func TestWebhookUnknownOrder(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, OutcomeUnknownOrder, h.svc.HandlePaymentCapturedEvent(context.Background(), "order_nope", "pay_1"))
	assert.Equal(t, 1, h.metrics.get("webhook:unknown_order"))
}

func TestVerifyAndWebhookRaceCreditsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	order := h.deposit(t, userID, "400")
	input := VerifyInput{UserID: userID, OrderID: order.OrderID, PaymentID: "pay_race", Signature: sign(order.OrderID, "pay_race")}

	const rounds = 6
	var wg sync.WaitGroup
	verifyErrs := make([]error, rounds)
	outcomes := make([]Outcome, rounds)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, verifyErrs[i] = h.svc.VerifyPayment(ctx, input)
		}(i)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = h.svc.HandlePaymentCapturedEvent(ctx, order.OrderID, "pay_race")
		}(i)
	}
	wg.Wait()

	for i := 0; i < rounds; i++ {
		require.NoError(t, verifyErrs[i])
		assert.Contains(t, []Outcome{OutcomeSettled, OutcomeDuplicate}, outcomes[i])
	}
	assert.Equal(t, int64(140000), h.balance(t, userID))
	assert.Equal(t, int64(1), h.depositCount(t, "pay_race"))
}

func TestReconcileOrderSettlesCapturedPayment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	order := h.deposit(t, userID, "75")

	outcome, err := h.svc.ReconcileOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, outcome)

	h.gateway.payments[order.OrderID] = []razorpay.Payment{
		{ID: "pay_failed", OrderID: order.OrderID, Status: "failed"},
		{ID: "pay_ok", OrderID: order.OrderID, Status: razorpay.PaymentStatusCaptured},
	}
	outcome, err = h.svc.ReconcileOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSettled, outcome)
	assert.Equal(t, int64(107500), h.balance(t, userID))

	outcome, err = h.svc.ReconcileOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, int64(1), h.depositCount(t, "pay_ok"))
}

func TestNewReceiptShape(t *testing.T) {
	userID := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	now := time.UnixMilli(1760000000123)

	receipt, err := NewReceipt(userID, now)
	require.NoError(t, err)
	assert.Regexp(t, `^wg_0f8fad5b_1760000000123_[0-9a-f]{4}$`, receipt)
	assert.LessOrEqual(t, len(receipt), MaxReceiptLength)

	other, err := NewReceipt(userID, now)
	require.NoError(t, err)
	assert.Len(t, other, len(receipt))
}
