package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHTTPClient_LoginDecodesTokenAndUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing request id header")
		}
		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email != "ana@example.com" {
			t.Errorf("unexpected body %+v, %v", creds, err)
		}
		w.Write([]byte(`{"token":"abc","user":{"id":"u1","email":"ana@example.com"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", time.Second, zap.NewNop())
	res, err := c.Login(context.Background(), Credentials{Email: "ana@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token != "abc" || res.User.ID != "u1" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.User.Plan != "free" || res.User.Status != "Active" {
		t.Fatalf("expected defaults applied, got %+v", res.User)
	}
}

func TestHTTPClient_FetchUserSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/u1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer abc" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"id":"u1","role":"admin","credits":7}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, nil)
	u, err := c.FetchUser(context.Background(), "abc", "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if u.Role != "admin" || u.Credits != 7 {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestHTTPClient_ForbiddenBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"Account banned","reason":"spam"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.FetchUser(context.Background(), "abc", "u1")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != 403 || apiErr.Reason != "spam" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if !IsBlockedRejection(err) {
		t.Fatalf("expected blocked rejection")
	}
	if BlockedStatus(err) != "Banned" {
		t.Fatalf("expected Banned status, got %q", BlockedStatus(err))
	}
}

func TestIsBlockedRejection(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"suspended 403", &APIError{Status: 403, Message: "Your account is SUSPENDED"}, true},
		{"generic 403", &APIError{Status: 403, Message: "forbidden"}, false},
		{"banned 500", &APIError{Status: 500, Message: "banned"}, false},
		{"network", errors.New("dial tcp: refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsBlockedRejection(tc.err); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHTTPClient_DeleteAccountAcceptsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, zap.NewNop())
	if err := c.DeleteAccount(context.Background(), "abc", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
