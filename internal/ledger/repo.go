package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
)

var (
	// ErrDuplicate is returned when an insert collides with a unique constraint.
	ErrDuplicate = errors.New("ledger: duplicate record")
	// ErrInsufficientFunds is returned when a conditional debit matched no row.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
)

// Repository persists wallets, ledger entries, and gateway orders. Balance
// changes are single conditional statements; callers compose them with WithTx.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindWalletByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	FindWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	CreditWallet(ctx context.Context, walletID uuid.UUID, amountMinor int64) (*models.Wallet, error)
	DebitWallet(ctx context.Context, walletID uuid.UUID, amountMinor int64) (*models.Wallet, error)

	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.WalletTransaction, error)
	FindTransactionByPaymentID(ctx context.Context, paymentID string) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]models.WalletTransaction, error)
	CountTransactions(ctx context.Context, walletID uuid.UUID) (int64, error)
	RecentTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletTransaction, error)
	SummarizeTransactions(ctx context.Context, walletID uuid.UUID, since time.Time) (*Summary, error)

	CreatePaymentOrder(ctx context.Context, order *models.PaymentOrder) error
	FindPaymentOrder(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	MarkOrderCaptured(ctx context.Context, orderID, paymentID string) (bool, error)
	LinkOrderTransaction(ctx context.Context, orderID string, transactionID uuid.UUID) error
	ListStaleOrders(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]models.PaymentOrder, error)
}

// Summary aggregates a wallet's ledger entries.
type Summary struct {
	SentMinor      int64
	ReceivedMinor  int64
	WindowNetMinor int64
	Count          int64
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindWalletByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindWalletByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "id = ?", walletID).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	return translate(r.db.WithContext(ctx).Create(wallet).Error)
}

func (r *repository) CreditWallet(ctx context.Context, walletID uuid.UUID, amountMinor int64) (*models.Wallet, error) {
	if amountMinor <= 0 {
		return nil, errors.New("credit amount must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"balance_minor": gorm.Expr("balance_minor + ?", amountMinor),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindWalletByID(ctx, walletID)
}

func (r *repository) DebitWallet(ctx context.Context, walletID uuid.UUID, amountMinor int64) (*models.Wallet, error) {
	if amountMinor <= 0 {
		return nil, errors.New("debit amount must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND balance_minor >= ?", walletID, amountMinor).
		Updates(map[string]any{
			"balance_minor": gorm.Expr("balance_minor - ?", amountMinor),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindWalletByID(ctx, walletID); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientFunds
	}
	return r.FindWalletByID(ctx, walletID)
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return translate(r.db.WithContext(ctx).Create(txn).Error)
}

func (r *repository) FindTransactionByID(ctx context.Context, id uuid.UUID) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindTransactionByPaymentID(ctx context.Context, paymentID string) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	if err := r.db.WithContext(ctx).Where("razorpay_payment_id = ?", paymentID).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListTransactions(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]models.WalletTransaction, error) {
	var rows []models.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountTransactions(ctx context.Context, walletID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("wallet_id = ?", walletID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) RecentTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	return r.ListTransactions(ctx, walletID, 0, limit)
}

type typeTotal struct {
	Type  enums.WalletTransactionType
	Count int64
	Total int64
}

func (r *repository) SummarizeTransactions(ctx context.Context, walletID uuid.UUID, since time.Time) (*Summary, error) {
	var all []typeTotal
	if err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Select("type, COUNT(*) AS count, COALESCE(SUM(amount_minor), 0) AS total").
		Where("wallet_id = ?", walletID).
		Group("type").
		Scan(&all).Error; err != nil {
		return nil, err
	}

	var window []typeTotal
	if err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Select("type, COUNT(*) AS count, COALESCE(SUM(amount_minor), 0) AS total").
		Where("wallet_id = ? AND created_at >= ?", walletID, since).
		Group("type").
		Scan(&window).Error; err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, row := range all {
		summary.Count += row.Count
		if row.Type.IsCredit() {
			summary.ReceivedMinor += row.Total
		} else {
			summary.SentMinor += row.Total
		}
	}
	for _, row := range window {
		if row.Type.IsCredit() {
			summary.WindowNetMinor += row.Total
		} else {
			summary.WindowNetMinor -= row.Total
		}
	}
	return summary, nil
}

func (r *repository) CreatePaymentOrder(ctx context.Context, order *models.PaymentOrder) error {
	return translate(r.db.WithContext(ctx).Create(order).Error)
}

func (r *repository) FindPaymentOrder(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkOrderCaptured moves a CREATED order to CAPTURED. It reports false when the
// order was already captured by a concurrent caller.
func (r *repository) MarkOrderCaptured(ctx context.Context, orderID, paymentID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("id = ? AND status = ?", orderID, enums.PaymentOrderCreated).
		Updates(map[string]any{
			"status":              enums.PaymentOrderCaptured,
			"razorpay_payment_id": paymentID,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) LinkOrderTransaction(ctx context.Context, orderID string, transactionID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"captured_transaction_id": transactionID,
			"updated_at":              time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListStaleOrders returns CREATED orders whose creation time falls in the window.
func (r *repository) ListStaleOrders(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]models.PaymentOrder, error) {
	var rows []models.PaymentOrder
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at >= ? AND created_at < ?", enums.PaymentOrderCreated, createdAfter, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if dbpkg.IsUniqueViolation(err, "") {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}
