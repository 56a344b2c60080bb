package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/money"
)

var ErrUserNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "user not found")

type walletProvider interface {
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
}

// WalletRef is the wallet summary attached to a profile.
type WalletRef struct {
	ID      uuid.UUID       `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

// Profile is the authenticated user's own view.
type Profile struct {
	UserDTO
	Wallet *WalletRef `json:"wallet"`
}

// NewProfile attaches wallet data to a user.
func NewProfile(u *models.User, w *models.Wallet) *Profile {
	profile := &Profile{UserDTO: *FromModel(u)}
	if w != nil {
		profile.Wallet = &WalletRef{ID: w.ID, Balance: money.FromMinor(w.BalanceMinor)}
	}
	return profile
}

// Service serves profile reads.
type Service struct {
	repo    *Repository
	wallets walletProvider
}

// NewService builds the profile service.
func NewService(repo *Repository, wallets walletProvider) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet provider required")
	}
	return &Service{repo: repo, wallets: wallets}, nil
}

// Me loads the user and ensures their wallet exists.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	wallet, err := s.wallets.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewProfile(user, wallet), nil
}
