package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"outreach-console/internal/backend"
	"outreach-console/internal/domain"
)

func loggedInAccountService(t *testing.T, client *backend.MockClient) *AccountService {
	t.Helper()
	store, _ := newTestSession(client)
	store.Login(context.Background(), "abc", domain.User{ID: "u1", Name: "Ana", Credits: 10})
	return NewAccountService(zap.NewNop(), client, store)
}

func TestAccountService_UpdateBrandProfileMergesUser(t *testing.T) {
	client := &backend.MockClient{MutationUser: domain.User{ID: "u1", Name: "Ana Brand", Credits: 10}}
	svc := loggedInAccountService(t, client)

	user, err := svc.UpdateBrandProfile(context.Background(), backend.BrandProfile{BrandName: "Acme"})
	if err != nil {
		t.Fatalf("update brand profile: %v", err)
	}
	if user.Name != "Ana Brand" {
		t.Fatalf("expected merged user, got %+v", user)
	}
	if client.LastToken != "abc" || client.LastProfile.BrandName != "Acme" {
		t.Fatalf("unexpected backend call %q %+v", client.LastToken, client.LastProfile)
	}
	if cached, _ := svc.store.User(); cached.Name != "Ana Brand" {
		t.Fatalf("expected cached user updated, got %+v", cached)
	}
}

func TestAccountService_ChangeSubscriptionDefaultsCycle(t *testing.T) {
	client := &backend.MockClient{MutationUser: domain.User{ID: "u1", Plan: "pro"}}
	svc := loggedInAccountService(t, client)

	user, err := svc.ChangeSubscription(context.Background(), backend.SubscriptionChange{Plan: "pro"})
	if err != nil {
		t.Fatalf("change subscription: %v", err)
	}
	if user.Plan != "pro" || client.LastChange.BillingCycle != domain.CycleMonthly {
		t.Fatalf("unexpected result %+v %+v", user, client.LastChange)
	}
}

func TestAccountService_BlockedRejectionTearsDownSession(t *testing.T) {
	client := &backend.MockClient{MutationErr: &backend.APIError{Status: 403, Message: "account suspended"}}
	svc := loggedInAccountService(t, client)

	_, err := svc.ChangeSubscription(context.Background(), backend.SubscriptionChange{Plan: "pro"})

	if !errors.Is(err, ErrAccountBlocked) {
		t.Fatalf("expected ErrAccountBlocked, got %v", err)
	}
	if svc.store.IsAuthenticated() {
		t.Fatalf("expected session torn down")
	}
}

func TestAccountService_DeleteAccountLogsOut(t *testing.T) {
	client := &backend.MockClient{}
	svc := loggedInAccountService(t, client)

	if err := svc.DeleteAccount(context.Background()); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if len(client.DeletedUsers) != 1 || client.DeletedUsers[0] != "u1" {
		t.Fatalf("expected backend delete for u1, got %+v", client.DeletedUsers)
	}
	if svc.store.IsAuthenticated() {
		t.Fatalf("expected logged out after deletion")
	}
}

func TestAccountService_DeleteAccountFailureKeepsSession(t *testing.T) {
	client := &backend.MockClient{DeleteErr: &backend.APIError{Status: 500, Message: "boom"}}
	svc := loggedInAccountService(t, client)

	if err := svc.DeleteAccount(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if !svc.store.IsAuthenticated() {
		t.Fatalf("failed deletion must keep the session")
	}
}

func TestAccountService_CompleteOnboardingToleratesBackendFailure(t *testing.T) {
	client := &backend.MockClient{OnboardingErr: errors.New("timeout")}
	svc := loggedInAccountService(t, client)
	credits := 100

	user, err := svc.CompleteOnboarding(context.Background(), &credits)
	if err != nil {
		t.Fatalf("complete onboarding: %v", err)
	}
	if !user.HasCompletedOnboarding || user.Credits != 100 {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestAccountService_RequiresSession(t *testing.T) {
	client := &backend.MockClient{}
	store, _ := newTestSession(client)
	svc := NewAccountService(zap.NewNop(), client, store)

	if _, err := svc.UpdateBrandProfile(context.Background(), backend.BrandProfile{BrandName: "Acme"}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if err := svc.DeleteAccount(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestAccountService_CompleteOnboardingBlockedAccount(t *testing.T) {
	client := &backend.MockClient{OnboardingErr: &backend.APIError{Status: 403, Message: "account suspended"}}
	svc := loggedInAccountService(t, client)

	_, err := svc.CompleteOnboarding(context.Background(), nil)

	if !errors.Is(err, ErrAccountBlocked) {
		t.Fatalf("expected ErrAccountBlocked, got %v", err)
	}
	if svc.store.IsAuthenticated() {
		t.Fatalf("expected session torn down")
	}
}
