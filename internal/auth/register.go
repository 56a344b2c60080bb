package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/internal/users"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/security"
)

var ErrEmailTaken = pkgerrors.New(pkgerrors.CodeConflict, "user already exists with this email")

// RegisterService handles the account opening transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
}

type walletProvisioner interface {
	ProvisionTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Wallet, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             db.TxRunner
	Users          *users.Repository
	Wallets        walletProvisioner
	SessionManager sessionManager
	PasswordConfig config.PasswordConfig
	JWTConfig      config.JWTConfig
}

type registerService struct {
	db          db.TxRunner
	users       *users.Repository
	wallets     walletProvisioner
	tokens      tokenIssuer
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Users == nil || params.Wallets == nil || params.SessionManager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "register dependencies required")
	}
	return &registerService{
		db:          params.DB,
		users:       params.Users,
		wallets:     params.Wallets,
		tokens:      tokenIssuer{sessions: params.SessionManager, jwt: params.JWTConfig},
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Register creates the user, the wallet, and its seed deposit in one unit.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var (
		user   *models.User
		wallet *models.Wallet
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Name:         name,
			Email:        email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			if errors.Is(err, users.ErrDuplicateEmail) {
				return ErrEmailTaken
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		w, err := s.wallets.ProvisionTx(ctx, tx, created.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision wallet")
		}
		user, wallet = created, w
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.tokens.open(ctx, time.Now().UTC(), user, wallet)
}
