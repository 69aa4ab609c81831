package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"outreach-console/internal/backend"
	"outreach-console/internal/domain"
	"outreach-console/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAccountBlocked     = errors.New("account blocked")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrRateLimited        = errors.New("too many attempts")
)

// BlockedError acompaña a ErrAccountBlocked con el aviso a mostrar en el formulario.
type BlockedError struct {
	Notice domain.BlockedNotice
}

func (e *BlockedError) Error() string {
	return "account blocked: " + e.Notice.Message
}

func (e *BlockedError) Unwrap() error {
	return ErrAccountBlocked
}

// AuthService autentica contra el backend y confirma la sesión en el Store.
type AuthService struct {
	logger  *zap.Logger
	backend backend.Client
	store   *session.Store
	limiter LoginLimiter
}

// NewAuthService usa un limiter en memoria si limiter es nil.
func NewAuthService(logger *zap.Logger, client backend.Client, store *session.Store, limiter LoginLimiter) *AuthService {
	if limiter == nil {
		limiter = NewLoginLimiter(10*time.Minute, 5)
	}
	return &AuthService{
		logger:  logger,
		backend: client,
		store:   store,
		limiter: limiter,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if !s.limiter.Allow(ctx, email) {
		return domain.User{}, ErrRateLimited
	}

	res, err := s.backend.Login(ctx, backend.Credentials{Email: email, Password: password})
	if err != nil {
		mapped := s.mapAuthError("login", err)
		if errors.Is(mapped, ErrInvalidCredentials) {
			s.limiter.Fail(ctx, email)
		}
		return domain.User{}, mapped
	}
	if err := checkAuthResult(res); err != nil {
		return domain.User{}, err
	}
	s.limiter.Reset(ctx, email)
	s.store.Login(ctx, res.Token, res.User)
	return res.User, nil
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if name == "" || len(password) < 8 {
		return domain.User{}, ErrInvalidInput
	}
	if !s.limiter.Allow(ctx, email) {
		return domain.User{}, ErrRateLimited
	}

	res, err := s.backend.Signup(ctx, backend.SignupInput{Name: name, Email: email, Password: password})
	if err != nil {
		return domain.User{}, s.mapAuthError("signup", err)
	}
	if err := checkAuthResult(res); err != nil {
		return domain.User{}, err
	}
	s.limiter.Reset(ctx, email)
	s.store.Signup(ctx, res.Token, res.User)
	return res.User, nil
}

func (s *AuthService) Logout(ctx context.Context) {
	s.store.Logout(ctx)
}

func (s *AuthService) mapAuthError(op string, err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusForbidden:
			// En login/signup cualquier 403 significa cuenta bloqueada.
			return &BlockedError{Notice: domain.NewBlockedNotice(backend.BlockedStatus(err), apiErr.Reason)}
		case http.StatusUnauthorized, http.StatusNotFound:
			return ErrInvalidCredentials
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s", ErrInvalidInput, apiErr.Message)
		}
	}
	s.logger.Error(op+" request failed", zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

func checkAuthResult(res backend.AuthResult) error {
	if strings.TrimSpace(res.Token) == "" || res.User.ID == "" {
		return errors.New("backend returned an incomplete session")
	}
	if res.User.IsBlocked() {
		return &BlockedError{Notice: domain.NewBlockedNotice(res.User.Status, res.User.StatusReason)}
	}
	return nil
}

func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return ""
	}
	return email
}
