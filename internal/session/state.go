package session

import "outreach-console/internal/domain"

// State es el estado explícito de la sesión del cliente.
type State int

const (
	StateLoggedOut State = iota
	StateHydrating
	StateActive
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateHydrating:
		return "hydrating"
	case StateActive:
		return "active"
	case StateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Rutas de navegación conocidas por la sesión.
const (
	LoginPath   = "/login"
	LandingPath = "/dashboard"
)

// Snapshot es una vista inmutable de la sesión en un instante.
// Notice solo se completa en StateBlocked.
type Snapshot struct {
	State  State
	Token  string
	User   *domain.User
	Notice *domain.BlockedNotice
}

func (s Snapshot) IsAuthenticated() bool {
	return s.Token != ""
}

// Navigator recibe los eventos de navegación que dispara la sesión (p.ej. redirección por bloqueo).
type Navigator interface {
	Navigate(path string, notice *domain.BlockedNotice)
}

// NavigatorFunc adapta una función a Navigator.
type NavigatorFunc func(path string, notice *domain.BlockedNotice)

func (f NavigatorFunc) Navigate(path string, notice *domain.BlockedNotice) {
	f(path, notice)
}

// SyncResult describe el resultado de una reconciliación con el backend.
type SyncResult int

const (
	SyncSkipped SyncResult = iota
	SyncUnchanged
	SyncUpdated
	SyncBlocked
	SyncFailed
	SyncStale
)

func (r SyncResult) String() string {
	switch r {
	case SyncSkipped:
		return "skipped"
	case SyncUnchanged:
		return "unchanged"
	case SyncUpdated:
		return "updated"
	case SyncBlocked:
		return "blocked"
	case SyncFailed:
		return "failed"
	case SyncStale:
		return "stale"
	default:
		return "unknown"
	}
}
