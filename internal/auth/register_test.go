package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/internal/ledger"
	"github.com/angelmondragon/wealthguardian-backend/internal/users"
	"github.com/angelmondragon/wealthguardian-backend/internal/wallets"
	pkgAuth "github.com/angelmondragon/wealthguardian-backend/pkg/auth"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	dbpkg "github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/dbtest"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/outbox"
)

var (
	testJWT      = config.JWTConfig{Secret: "secret", Issuer: "wealthguardian", ExpirationMinutes: 30}
	testPassword = config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
)

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

func newRegisterHarness(t *testing.T, emitter outbox.Emitter) (*gorm.DB, RegisterService) {
	t.Helper()
	conn := dbtest.Open(t)
	if emitter == nil {
		emitter = outbox.NewService(outbox.NewRepository(conn), nil)
	}
	walletSvc, err := wallets.NewService(wallets.ServiceParams{
		DB:           dbpkg.NewFromGorm(conn),
		Repo:         ledger.NewRepository(conn),
		Outbox:       emitter,
		WalletConfig: config.WalletConfig{StartingBalance: "1000", DefaultCurrency: "INR"},
	})
	require.NoError(t, err)

	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             dbpkg.NewFromGorm(conn),
		Users:          users.NewRepository(conn),
		Wallets:        walletSvc,
		SessionManager: &stubSessionManager{refreshToken: "refresh-token"},
		PasswordConfig: testPassword,
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)
	return conn, svc
}

func TestRegisterCreatesUserWalletAndSeedEntry(t *testing.T) {
	conn, svc := newRegisterHarness(t, nil)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Asha Rao",
		Email:    "Asha@Example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	require.NotNil(t, resp.User.Wallet)
	assert.Equal(t, "asha@example.com", resp.User.Email)
	assert.Equal(t, "1000", resp.User.Wallet.Balance.String())
	assert.Equal(t, "refresh-token", resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	var entries []models.WalletTransaction
	require.NoError(t, conn.Where("wallet_id = ?", resp.User.Wallet.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, wallets.InitialBalanceDescription, entries[0].Description)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	_, svc := newRegisterHarness(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "First", Email: "dup@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Second", Email: "DUP@example.com", Password: "secret2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmailTaken))
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	_, svc := newRegisterHarness(t, nil)

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Short", Email: "s@example.com", Password: "123"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRegisterRollsBackUserWhenWalletFails(t *testing.T) {
	conn, svc := newRegisterHarness(t, failingEmitter{})

	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Nope", Email: "nope@example.com", Password: "secret1"})
	require.Error(t, err)

	var userCount, walletCount int64
	require.NoError(t, conn.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, conn.Model(&models.Wallet{}).Count(&walletCount).Error)
	assert.Zero(t, userCount)
	assert.Zero(t, walletCount)
}
