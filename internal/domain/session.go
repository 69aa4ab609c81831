package domain

import (
	"fmt"
	"strings"
)

// BlockedNotice es el payload que acompaña la redirección a login cuando la cuenta está bloqueada.
type BlockedNotice struct {
	IsBlocked bool   `json:"isBlocked"`
	Message   string `json:"message"`
	Reason    string `json:"reason"`
}

// NewBlockedNotice arma el aviso para un estado Banned/Suspended.
func NewBlockedNotice(status, reason string) BlockedNotice {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = supportFallback
	}
	return BlockedNotice{
		IsBlocked: true,
		Message:   fmt.Sprintf("Your account has been %s.", strings.ToLower(strings.TrimSpace(status))),
		Reason:    reason,
	}
}
