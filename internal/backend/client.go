package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"outreach-console/internal/domain"
)

var blockedPattern = regexp.MustCompile(`(?i)banned|suspended`)

// Client define las llamadas REST que consume el cliente.
type Client interface {
	Login(ctx context.Context, creds Credentials) (AuthResult, error)
	Signup(ctx context.Context, input SignupInput) (AuthResult, error)
	FetchUser(ctx context.Context, token, userID string) (domain.User, error)
	CompleteOnboarding(ctx context.Context, token string) (OnboardingResult, error)
	UpdateBrandProfile(ctx context.Context, token string, profile BrandProfile) (domain.User, error)
	ChangeSubscription(ctx context.Context, token string, change SubscriptionChange) (domain.User, error)
	DeleteAccount(ctx context.Context, token, userID string) error
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type OnboardingResult struct {
	Credits int `json:"credits"`
}

type BrandProfile struct {
	BrandName   string   `json:"brandName"`
	Industry    string   `json:"industry,omitempty"`
	Website     string   `json:"website,omitempty"`
	Tone        string   `json:"tone,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

type SubscriptionChange struct {
	Plan         string `json:"plan"`
	BillingCycle string `json:"billingCycle"`
	AutoRenew    *bool  `json:"autoRenew,omitempty"`
}

// APIError es la respuesta de error del backend ({ error, reason? }).
type APIError struct {
	Status  int
	Message string
	Reason  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend http error: status=%d", e.Status)
	}
	return fmt.Sprintf("backend http error: status=%d: %s", e.Status, e.Message)
}

// IsBlockedRejection indica un 403 cuyo texto de error menciona baneo o suspensión.
func IsBlockedRejection(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusForbidden && blockedPattern.MatchString(apiErr.Message)
}

// BlockedStatus deduce el estado (Banned/Suspended) a partir del texto de un rechazo.
func BlockedStatus(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message), "banned") {
		return domain.StatusBanned
	}
	return domain.StatusSuspended
}

// HTTPClient implementa Client contra la API REST del backend.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un cliente apuntando a la base de la API.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *HTTPClient) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", creds, &out); err != nil {
		return AuthResult{}, err
	}
	out.User = out.User.WithDefaults()
	return out, nil
}

func (c *HTTPClient) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", input, &out); err != nil {
		return AuthResult{}, err
	}
	out.User = out.User.WithDefaults()
	return out, nil
}

func (c *HTTPClient) FetchUser(ctx context.Context, token, userID string) (domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID), token, nil, &out); err != nil {
		return domain.User{}, err
	}
	return out.WithDefaults(), nil
}

func (c *HTTPClient) CompleteOnboarding(ctx context.Context, token string) (OnboardingResult, error) {
	var out OnboardingResult
	if err := c.do(ctx, http.MethodPost, "/api/user/complete-onboarding", token, struct{}{}, &out); err != nil {
		return OnboardingResult{}, err
	}
	return out, nil
}

func (c *HTTPClient) UpdateBrandProfile(ctx context.Context, token string, profile BrandProfile) (domain.User, error) {
	var out struct {
		User domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/user/brand-profile", token, profile, &out); err != nil {
		return domain.User{}, err
	}
	return out.User.WithDefaults(), nil
}

func (c *HTTPClient) ChangeSubscription(ctx context.Context, token string, change SubscriptionChange) (domain.User, error) {
	var out struct {
		User domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/user/subscription", token, change, &out); err != nil {
		return domain.User{}, err
	}
	return out.User.WithDefaults(), nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context, token, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(userID), token, nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
			Reason  string `json:"reason"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			apiErr.Message = payload.Error
			if apiErr.Message == "" {
				apiErr.Message = payload.Message
			}
			apiErr.Reason = payload.Reason
		}
		c.logger.Debug("backend error response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", requestID),
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
