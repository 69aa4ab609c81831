package domain

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive    = "Active"
	StatusBanned    = "Banned"
	StatusSuspended = "Suspended"

	PlanFree        = "free"
	CycleMonthly    = "monthly"
	supportFallback = "Please contact support for more information."
)

// User es el registro cacheado del usuario autenticado tal como lo devuelve el backend.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	StatusReason string `json:"statusReason,omitempty"`
	Avatar       string `json:"avatar,omitempty"`

	Plan             string     `json:"plan"`
	BillingCycle     string     `json:"billingCycle"`
	SubscriptionEnd  *time.Time `json:"subscriptionEnd,omitempty"`
	AutoRenew        bool       `json:"autoRenew"`
	Credits          int        `json:"credits"`
	DailyUsagePoints int        `json:"dailyUsagePoints"`
	CustomDailyLimit *int       `json:"customDailyLimit,omitempty"`

	HasCompletedOnboarding bool `json:"hasCompletedOnboarding"`
	TwoFactorEnabled       bool `json:"twoFactorEnabled"`

	Transactions      []Transaction      `json:"transactions"`
	UsageStats        UsageStats         `json:"usageStats"`
	ConnectedAccounts []ConnectedAccount `json:"connectedAccounts"`
}

type Transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Credits     int       `json:"credits"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UsageStats struct {
	MessagesSent   int          `json:"messagesSent"`
	CommentsPosted int          `json:"commentsPosted"`
	ProfilesViewed int          `json:"profilesViewed"`
	History        []UsageEntry `json:"history"`
}

type UsageEntry struct {
	Action    string    `json:"action"`
	Points    int       `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

type ConnectedAccount struct {
	ID          string     `json:"id"`
	Platform    string     `json:"platform"`
	Handle      string     `json:"handle"`
	Status      string     `json:"status"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
}

// WithDefaults completa los campos opcionales con sus valores por defecto.
// Plan vacío equivale al plan más bajo, rol vacío a "user" y estado vacío a "Active".
func (u User) WithDefaults() User {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.Plan == "" {
		u.Plan = PlanFree
	}
	if u.BillingCycle == "" {
		u.BillingCycle = CycleMonthly
	}
	if u.Transactions == nil {
		u.Transactions = []Transaction{}
	}
	if u.UsageStats.History == nil {
		u.UsageStats.History = []UsageEntry{}
	}
	if u.ConnectedAccounts == nil {
		u.ConnectedAccounts = []ConnectedAccount{}
	}
	return u
}

func (u User) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), RoleAdmin)
}

// IsBlocked indica si la cuenta está baneada o suspendida.
func (u User) IsBlocked() bool {
	return IsBlockedStatus(u.Status)
}

func IsBlockedStatus(status string) bool {
	s := strings.TrimSpace(status)
	return strings.EqualFold(s, StatusBanned) || strings.EqualFold(s, StatusSuspended)
}
