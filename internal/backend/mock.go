package backend

import (
	"context"
	"sync"

	"outreach-console/internal/domain"
)

// MockClient permite tests sin llamar al backend real.
type MockClient struct {
	mu sync.Mutex

	AuthResult AuthResult
	AuthErr    error

	User     domain.User
	FetchErr error
	// FetchHook, si no es nil, reemplaza la respuesta de FetchUser.
	FetchHook func(ctx context.Context, token, userID string) (domain.User, error)

	Onboarding    OnboardingResult
	OnboardingErr error

	MutationUser domain.User
	MutationErr  error
	DeleteErr    error

	FetchCalls   int
	LastToken    string
	LastUserID   string
	LastProfile  BrandProfile
	LastChange   SubscriptionChange
	DeletedUsers []string
}

func (m *MockClient) Login(_ context.Context, _ Credentials) (AuthResult, error) {
	return m.AuthResult, m.AuthErr
}

func (m *MockClient) Signup(_ context.Context, _ SignupInput) (AuthResult, error) {
	return m.AuthResult, m.AuthErr
}

func (m *MockClient) FetchUser(ctx context.Context, token, userID string) (domain.User, error) {
	m.mu.Lock()
	m.FetchCalls++
	m.LastToken = token
	m.LastUserID = userID
	hook := m.FetchHook
	user, err := m.User, m.FetchErr
	m.mu.Unlock()
	if hook != nil {
		return hook(ctx, token, userID)
	}
	return user, err
}

func (m *MockClient) CompleteOnboarding(_ context.Context, token string) (OnboardingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastToken = token
	return m.Onboarding, m.OnboardingErr
}

func (m *MockClient) UpdateBrandProfile(_ context.Context, token string, profile BrandProfile) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastToken = token
	m.LastProfile = profile
	return m.MutationUser, m.MutationErr
}

func (m *MockClient) ChangeSubscription(_ context.Context, token string, change SubscriptionChange) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastToken = token
	m.LastChange = change
	return m.MutationUser, m.MutationErr
}

func (m *MockClient) DeleteAccount(_ context.Context, token, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastToken = token
	if m.DeleteErr == nil {
		m.DeletedUsers = append(m.DeletedUsers, userID)
	}
	return m.DeleteErr
}
