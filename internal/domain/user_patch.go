package domain

import "time"

// UserPatch representa una actualización parcial: solo se aplican los campos no nil.
type UserPatch struct {
	Name         *string
	Email        *string
	Role         *string
	Status       *string
	StatusReason *string
	Avatar       *string

	Plan             *string
	BillingCycle     *string
	SubscriptionEnd  **time.Time
	AutoRenew        *bool
	Credits          *int
	DailyUsagePoints *int
	CustomDailyLimit **int

	HasCompletedOnboarding *bool
	TwoFactorEnabled       *bool

	Transactions      *[]Transaction
	UsageStats        *UsageStats
	ConnectedAccounts *[]ConnectedAccount
}

// IsEmpty indica si el patch no modifica ningún campo.
func (p UserPatch) IsEmpty() bool {
	return p == (UserPatch{})
}

// Apply devuelve una copia de u con los campos del patch mezclados.
func (p UserPatch) Apply(u User) User {
	setString(&u.Name, p.Name)
	setString(&u.Email, p.Email)
	setString(&u.Role, p.Role)
	setString(&u.Status, p.Status)
	setString(&u.StatusReason, p.StatusReason)
	setString(&u.Avatar, p.Avatar)
	setString(&u.Plan, p.Plan)
	setString(&u.BillingCycle, p.BillingCycle)
	if p.SubscriptionEnd != nil {
		u.SubscriptionEnd = *p.SubscriptionEnd
	}
	if p.AutoRenew != nil {
		u.AutoRenew = *p.AutoRenew
	}
	if p.Credits != nil {
		u.Credits = *p.Credits
	}
	if p.DailyUsagePoints != nil {
		u.DailyUsagePoints = *p.DailyUsagePoints
	}
	if p.CustomDailyLimit != nil {
		u.CustomDailyLimit = *p.CustomDailyLimit
	}
	if p.HasCompletedOnboarding != nil {
		u.HasCompletedOnboarding = *p.HasCompletedOnboarding
	}
	if p.TwoFactorEnabled != nil {
		u.TwoFactorEnabled = *p.TwoFactorEnabled
	}
	if p.Transactions != nil {
		u.Transactions = append([]Transaction(nil), (*p.Transactions)...)
	}
	if p.UsageStats != nil {
		u.UsageStats = *p.UsageStats
	}
	if p.ConnectedAccounts != nil {
		u.ConnectedAccounts = append([]ConnectedAccount(nil), (*p.ConnectedAccounts)...)
	}
	return u.WithDefaults()
}

// FullPatch construye un patch que sobrescribe todos los campos mutables con los de u.
// El ID nunca se modifica por patch.
func FullPatch(u User) UserPatch {
	u = u.WithDefaults()
	return UserPatch{
		Name:                   &u.Name,
		Email:                  &u.Email,
		Role:                   &u.Role,
		Status:                 &u.Status,
		StatusReason:           &u.StatusReason,
		Avatar:                 &u.Avatar,
		Plan:                   &u.Plan,
		BillingCycle:           &u.BillingCycle,
		SubscriptionEnd:        &u.SubscriptionEnd,
		AutoRenew:              &u.AutoRenew,
		Credits:                &u.Credits,
		DailyUsagePoints:       &u.DailyUsagePoints,
		CustomDailyLimit:       &u.CustomDailyLimit,
		HasCompletedOnboarding: &u.HasCompletedOnboarding,
		TwoFactorEnabled:       &u.TwoFactorEnabled,
		Transactions:           &u.Transactions,
		UsageStats:             &u.UsageStats,
		ConnectedAccounts:      &u.ConnectedAccounts,
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
