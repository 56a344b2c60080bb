package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/internal/users"
	pkgAuth "github.com/angelmondragon/wealthguardian-backend/pkg/auth"
	"github.com/angelmondragon/wealthguardian-backend/pkg/auth/session"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/security"
)

var errInvalidCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type walletProvider interface {
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	Wallets        walletProvider
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
}

type service struct {
	users   userRepository
	wallets walletProvider
	tokens  tokenIssuer
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.UserRepo == nil:
		return nil, fmt.Errorf("user repository is required")
	case params.Wallets == nil:
		return nil, fmt.Errorf("wallet provider is required")
	case params.SessionManager == nil:
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		users:   params.UserRepo,
		wallets: params.Wallets,
		tokens:  tokenIssuer{sessions: params.SessionManager, jwt: params.JWTConfig},
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.verify(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	// accounts created before wallets existed get one on first login
	wallet, err := s.wallets.GetOrCreateWallet(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, at); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &at

	return s.tokens.open(ctx, at, user, wallet)
}

// verify never distinguishes an unknown email from a wrong password.
func (s *service) verify(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// tokenIssuer pairs a fresh access token with a refresh token keyed by its jti.
type tokenIssuer struct {
	sessions sessionManager
	jwt      config.JWTConfig
}

func (t tokenIssuer) open(ctx context.Context, at time.Time, user *models.User, wallet *models.Wallet) (*LoginResponse, error) {
	jti := session.NewAccessID()
	access, err := pkgAuth.MintAccessToken(t.jwt, at, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    jti,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := t.sessions.Generate(ctx, jti)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return &LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         users.NewProfile(user, wallet),
	}, nil
}
