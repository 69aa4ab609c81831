package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"outreach-console/internal/backend"
	"outreach-console/internal/domain"
	"outreach-console/internal/session"
)

// AccountService coordina las mutaciones de cuenta y mantiene el usuario cacheado al día.
type AccountService struct {
	logger  *zap.Logger
	backend backend.Client
	store   *session.Store
}

func NewAccountService(logger *zap.Logger, client backend.Client, store *session.Store) *AccountService {
	return &AccountService{
		logger:  logger,
		backend: client,
		store:   store,
	}
}

func (s *AccountService) UpdateBrandProfile(ctx context.Context, profile backend.BrandProfile) (domain.User, error) {
	if strings.TrimSpace(profile.BrandName) == "" {
		return domain.User{}, fmt.Errorf("%w: brand name required", ErrInvalidInput)
	}
	token, err := s.token()
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.backend.UpdateBrandProfile(ctx, token, profile)
	if err != nil {
		return domain.User{}, s.rejected(ctx, "update brand profile", err)
	}
	return s.apply(ctx, user)
}

func (s *AccountService) ChangeSubscription(ctx context.Context, change backend.SubscriptionChange) (domain.User, error) {
	if strings.TrimSpace(change.Plan) == "" {
		return domain.User{}, fmt.Errorf("%w: plan required", ErrInvalidInput)
	}
	if change.BillingCycle == "" {
		change.BillingCycle = domain.CycleMonthly
	}
	token, err := s.token()
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.backend.ChangeSubscription(ctx, token, change)
	if err != nil {
		return domain.User{}, s.rejected(ctx, "change subscription", err)
	}
	return s.apply(ctx, user)
}

// DeleteAccount borra la cuenta en el backend y cierra la sesión local.
func (s *AccountService) DeleteAccount(ctx context.Context) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	user, ok := s.store.User()
	if !ok {
		return ErrNotAuthenticated
	}
	if err := s.backend.DeleteAccount(ctx, token, user.ID); err != nil {
		return s.rejected(ctx, "delete account", err)
	}
	s.store.Logout(ctx)
	s.logger.Info("account deleted", zap.String("user_id", user.ID))
	return nil
}

// CompleteOnboarding delega en el Store, que tolera fallos del backend.
func (s *AccountService) CompleteOnboarding(ctx context.Context, credits *int) (domain.User, error) {
	if credits != nil && *credits < 0 {
		return domain.User{}, fmt.Errorf("%w: credits must be positive", ErrInvalidInput)
	}
	if _, err := s.token(); err != nil {
		return domain.User{}, err
	}
	if s.store.CompleteOnboarding(ctx, credits) {
		return domain.User{}, ErrAccountBlocked
	}
	user, ok := s.store.User()
	if !ok {
		return domain.User{}, ErrNotAuthenticated
	}
	return user, nil
}

func (s *AccountService) apply(ctx context.Context, user domain.User) (domain.User, error) {
	merged, ok := s.store.UpdateUser(ctx, domain.FullPatch(user))
	if !ok {
		return domain.User{}, ErrNotAuthenticated
	}
	return merged, nil
}

func (s *AccountService) token() (string, error) {
	token := s.store.Token()
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

func (s *AccountService) rejected(ctx context.Context, op string, err error) error {
	if s.store.HandleAuthError(ctx, err) {
		return ErrAccountBlocked
	}
	s.logger.Warn(op+" failed", zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
