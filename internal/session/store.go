package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"outreach-console/internal/backend"
	"outreach-console/internal/domain"
	"outreach-console/internal/storage"
)

// Options configura aspectos opcionales del Store.
type Options struct {
	// DraftKeys son las claves de borradores que se limpian en logout.
	DraftKeys []string
	Now       func() time.Time
}

// Store es la única fuente de verdad de la sesión y el único escritor del registro persistido.
type Store struct {
	logger    *zap.Logger
	storage   storage.Storage
	backend   backend.Client
	navigator Navigator
	draftKeys []string
	now       func() time.Time

	// writeMu serializa las escrituras al storage; mu protege el estado en memoria.
	writeMu sync.Mutex
	mu      sync.Mutex
	state   State
	token   string
	user    *domain.User
	// epoch cambia en cada login/logout/bloqueo; syncSeq y appliedSeq ordenan las reconciliaciones.
	epoch      uint64
	syncSeq    uint64
	appliedSeq uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore crea el Store de sesión. storage y client son obligatorios.
func NewStore(logger *zap.Logger, store storage.Storage, client backend.Client, navigator Navigator, opts Options) *Store {
	if store == nil || client == nil {
		panic("session: NewStore requires storage and backend client")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if navigator == nil {
		navigator = NavigatorFunc(func(string, *domain.BlockedNotice) {})
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		logger:    logger,
		storage:   store,
		backend:   client,
		navigator: navigator,
		draftKeys: append([]string(nil), opts.DraftKeys...),
		now:       now,
		state:     StateLoggedOut,
		subs:      make(map[int]func(Snapshot)),
	}
}

// Hydrate reconstruye la sesión desde el storage durable. Se llama una vez al arrancar.
func (s *Store) Hydrate(ctx context.Context) (State, error) {
	token, ok, err := s.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		return StateLoggedOut, fmt.Errorf("hydrate token: %w", err)
	}
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return StateLoggedOut, nil
	}
	if tokenExpired(token, s.now()) {
		s.logger.Info("persisted token expired, discarding session")
		s.writeMu.Lock()
		s.clearRecord(ctx)
		s.writeMu.Unlock()
		return StateLoggedOut, nil
	}

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.token = token
	s.user = nil
	s.state = StateHydrating
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	user, err := s.readUser(ctx)
	if err != nil {
		// Sin id de usuario no hay forma de reconciliar: se descarta la sesión.
		s.logger.Warn("persisted user unusable, discarding session", zap.Error(err))
		s.writeMu.Lock()
		s.mu.Lock()
		if s.epoch != epoch {
			state := s.state
			s.mu.Unlock()
			s.writeMu.Unlock()
			return state, nil
		}
		s.resetLocked()
		snap = s.snapshotLocked()
		s.mu.Unlock()
		s.clearRecord(ctx)
		s.writeMu.Unlock()
		s.notify(snap)
		return StateLoggedOut, nil
	}

	s.mu.Lock()
	if s.epoch != epoch {
		state := s.state
		s.mu.Unlock()
		return state, nil
	}
	s.user = &user
	s.state = StateActive
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return StateActive, nil
}

// Login confirma una sesión ya autenticada por el backend.
func (s *Store) Login(ctx context.Context, token string, user domain.User) {
	s.commit(ctx, "login", token, user)
}

// Signup tiene la misma semántica que Login para una cuenta recién creada.
func (s *Store) Signup(ctx context.Context, token string, user domain.User) {
	s.commit(ctx, "signup", token, user)
}

func (s *Store) commit(ctx context.Context, op, token string, user domain.User) {
	token = strings.TrimSpace(token)
	if token == "" {
		s.logger.Warn("ignoring session commit without token", zap.String("op", op))
		return
	}
	user = user.WithDefaults()

	s.writeMu.Lock()
	if err := s.storage.Set(ctx, storage.KeyToken, token); err != nil {
		s.logger.Error("persist token failed", zap.String("op", op), zap.Error(err))
	}
	if err := s.writeUser(ctx, user); err != nil {
		s.logger.Error("persist user failed", zap.String("op", op), zap.Error(err))
	}

	s.mu.Lock()
	s.epoch++
	s.token = token
	s.user = &user
	s.state = StateActive
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.logger.Info("session started", zap.String("op", op), zap.String("user_id", user.ID))
	s.notify(snap)
}

// Logout limpia el registro persistido, los borradores y el estado en memoria. Es idempotente.
func (s *Store) Logout(ctx context.Context) {
	s.writeMu.Lock()
	s.mu.Lock()
	changed := s.state != StateLoggedOut || s.token != "" || s.user != nil
	s.resetLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.clearRecord(ctx)
	s.writeMu.Unlock()

	if changed {
		s.logger.Info("session ended")
		s.notify(snap)
	}
}

// UpdateUser mezcla patch en el usuario actual y lo re-persiste. Sin usuario cargado es un no-op.
func (s *Store) UpdateUser(ctx context.Context, patch domain.UserPatch) (domain.User, bool) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return domain.User{}, false
	}
	if patch.IsEmpty() {
		current := *s.user
		s.mu.Unlock()
		return current, true
	}
	merged := patch.Apply(*s.user)
	s.user = &merged
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistCurrentUser(ctx)
	s.notify(snap)
	return merged, true
}

// CompleteOnboarding marca el onboarding como completado. Los créditos se toman de credits si
// viene informado, si no de la respuesta del backend, y si el backend falla se conserva el saldo.
// Devuelve true si el backend rechazó la cuenta y la sesión fue cerrada.
func (s *Store) CompleteOnboarding(ctx context.Context, credits *int) bool {
	token := s.Token()
	var serverCredits *int
	if token != "" {
		res, err := s.backend.CompleteOnboarding(ctx, token)
		if err != nil {
			if s.HandleAuthError(ctx, err) {
				return true
			}
			s.logger.Warn("complete onboarding call failed, applying locally", zap.Error(err))
		} else {
			c := res.Credits
			serverCredits = &c
		}
	}

	applied := credits
	if applied == nil {
		applied = serverCredits
	}
	done := true
	s.UpdateUser(ctx, domain.UserPatch{HasCompletedOnboarding: &done, Credits: applied})
	return false
}

// SyncUser reconcilia el usuario cacheado con el backend. Nunca devuelve error: los fallos
// no autoritativos dejan el estado intacto y se reintentan en el próximo disparo.
func (s *Store) SyncUser(ctx context.Context) SyncResult {
	s.mu.Lock()
	if s.token == "" || s.user == nil {
		s.mu.Unlock()
		return SyncSkipped
	}
	token := s.token
	userID := s.user.ID
	epoch := s.epoch
	s.syncSeq++
	seq := s.syncSeq
	s.mu.Unlock()

	fetched, err := s.backend.FetchUser(ctx, token, userID)
	if err != nil {
		if backend.IsBlockedRejection(err) {
			notice := domain.NewBlockedNotice(backend.BlockedStatus(err), rejectionReason(err))
			if s.teardown(ctx, epoch, notice) {
				return SyncBlocked
			}
			return SyncStale
		}
		s.logger.Debug("sync user failed", zap.String("user_id", userID), zap.Error(err))
		return SyncFailed
	}
	fetched = fetched.WithDefaults()

	if fetched.IsBlocked() {
		notice := domain.NewBlockedNotice(fetched.Status, fetched.StatusReason)
		if s.teardown(ctx, epoch, notice) {
			return SyncBlocked
		}
		return SyncStale
	}

	s.mu.Lock()
	if s.epoch != epoch || s.user == nil || seq < s.appliedSeq {
		s.mu.Unlock()
		return SyncStale
	}
	s.appliedSeq = seq
	if sameUser(*s.user, fetched) {
		s.mu.Unlock()
		return SyncUnchanged
	}
	s.user = &fetched
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persistCurrentUser(ctx)
	s.notify(snap)
	return SyncUpdated
}

// HandleAuthError aplica el rechazo autoritativo (403 por baneo o suspensión) de cualquier
// llamada a la API. Devuelve true si la sesión fue cerrada.
func (s *Store) HandleAuthError(ctx context.Context, err error) bool {
	if !backend.IsBlockedRejection(err) {
		return false
	}
	s.mu.Lock()
	epoch := s.epoch
	active := s.token != ""
	s.mu.Unlock()
	if !active {
		return false
	}
	notice := domain.NewBlockedNotice(backend.BlockedStatus(err), rejectionReason(err))
	return s.teardown(ctx, epoch, notice)
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User devuelve una copia del usuario cargado.
func (s *Store) User() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registra fn para cada cambio de estado. Devuelve la función para desuscribirse.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) teardown(ctx context.Context, epoch uint64, notice domain.BlockedNotice) bool {
	s.writeMu.Lock()
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.writeMu.Unlock()
		return false
	}
	blocked := Snapshot{State: StateBlocked, Notice: &notice}
	s.resetLocked()
	loggedOut := s.snapshotLocked()
	s.mu.Unlock()
	s.clearRecord(ctx)
	s.writeMu.Unlock()

	s.logger.Warn("account blocked, session torn down", zap.String("message", notice.Message))
	s.notify(blocked)
	s.notify(loggedOut)
	s.navigator.Navigate(LoginPath, &notice)
	return true
}

func (s *Store) resetLocked() {
	s.epoch++
	s.token = ""
	s.user = nil
	s.state = StateLoggedOut
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Token: s.token}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// persistCurrentUser escribe el usuario vigente en memoria, no una copia capturada antes.
func (s *Store) persistCurrentUser(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	user, ok := s.User()
	if !ok {
		return
	}
	if err := s.writeUser(ctx, user); err != nil {
		s.logger.Error("persist user failed", zap.Error(err))
	}
}

func (s *Store) writeUser(ctx context.Context, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.storage.Set(ctx, storage.KeyUser, string(data))
}

func (s *Store) readUser(ctx context.Context) (domain.User, error) {
	raw, ok, err := s.storage.Get(ctx, storage.KeyUser)
	if err != nil {
		return domain.User{}, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return domain.User{}, errors.New("user record missing")
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == "" {
		return domain.User{}, errors.New("user record without id")
	}
	return user.WithDefaults(), nil
}

func (s *Store) clearRecord(ctx context.Context) {
	keys := append([]string{storage.KeyToken, storage.KeyUser}, s.draftKeys...)
	if err := s.storage.Remove(ctx, keys...); err != nil {
		s.logger.Error("clear session record failed", zap.Error(err))
	}
}

func sameUser(a, b domain.User) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func rejectionReason(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason
	}
	return ""
}
