package guard

import (
	"context"
	"strings"

	"outreach-console/internal/domain"
	"outreach-console/internal/session"
	"outreach-console/internal/storage"
)

// Outcome es la decisión del guard para una navegación.
type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomeLoading
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Request describe la navegación a una vista protegida.
type Request struct {
	Path      string
	AdminOnly bool
}

// Decision es el resultado de evaluar una navegación. Target y Notice solo aplican a redirecciones.
type Decision struct {
	Outcome Outcome
	Target  string
	Notice  *domain.BlockedNotice
}

// SessionSource expone el estado de sesión que consume el guard.
type SessionSource interface {
	Snapshot() session.Snapshot
}

// HydrationSignal indica si hay un token persistido, leyendo el storage directamente.
type HydrationSignal interface {
	TokenPersisted(ctx context.Context) bool
}

// Guard decide render/loading/redirect para cada navegación protegida.
type Guard struct {
	source SessionSource
	signal HydrationSignal
}

func New(source SessionSource, signal HydrationSignal) *Guard {
	if source == nil || signal == nil {
		panic("guard: New requires a session source and a hydration signal")
	}
	return &Guard{source: source, signal: signal}
}

func (g *Guard) Evaluate(ctx context.Context, req Request) Decision {
	return Evaluate(g.source.Snapshot(), g.signal.TokenPersisted(ctx), req)
}

// Evaluate aplica las reglas en orden: hidratación, autenticación, rol y estado de la cuenta.
func Evaluate(snap session.Snapshot, tokenPersisted bool, req Request) Decision {
	if tokenPersisted && snap.User == nil {
		return Decision{Outcome: OutcomeLoading}
	}

	switch snap.State {
	case session.StateLoggedOut, session.StateBlocked:
		return redirectToLogin(nil)
	case session.StateHydrating:
		if !snap.IsAuthenticated() {
			return redirectToLogin(nil)
		}
		return Decision{Outcome: OutcomeLoading}
	case session.StateActive:
		if !snap.IsAuthenticated() {
			return redirectToLogin(nil)
		}
		if snap.User == nil {
			return Decision{Outcome: OutcomeLoading}
		}
		user := *snap.User
		if req.AdminOnly && !user.IsAdmin() {
			return Decision{Outcome: OutcomeRedirect, Target: session.LandingPath}
		}
		if user.IsBlocked() {
			notice := domain.NewBlockedNotice(strings.TrimSpace(user.Status), user.StatusReason)
			return redirectToLogin(&notice)
		}
		return Decision{Outcome: OutcomeRender}
	default:
		return redirectToLogin(nil)
	}
}

func redirectToLogin(notice *domain.BlockedNotice) Decision {
	return Decision{Outcome: OutcomeRedirect, Target: session.LoginPath, Notice: notice}
}

type storageSignal struct {
	storage storage.Storage
}

// StorageSignal implementa HydrationSignal consultando la clave del token en el storage.
func StorageSignal(s storage.Storage) HydrationSignal {
	return storageSignal{storage: s}
}

func (s storageSignal) TokenPersisted(ctx context.Context) bool {
	v, ok, err := s.storage.Get(ctx, storage.KeyToken)
	return err == nil && ok && strings.TrimSpace(v) != ""
}
