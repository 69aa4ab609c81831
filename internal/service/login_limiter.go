package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cuenta fallos de login por email; el primer fallo abre la ventana.
const redisLoginFailureScript = `
local failures = redis.call("INCR", KEYS[1])
if failures == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return failures
`

// LoginLimiter bloquea temporalmente un email tras demasiados intentos fallidos.
// Un login correcto limpia el contador.
type LoginLimiter interface {
	Allow(ctx context.Context, email string) bool
	Fail(ctx context.Context, email string)
	Reset(ctx context.Context, email string)
}

type memoryLoginLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	now       func() time.Time
	failures  map[string][]time.Time
	lastSweep time.Time
}

// NewLoginLimiter crea un limiter en memoria con ventana deslizante.
func NewLoginLimiter(window time.Duration, max int) LoginLimiter {
	window, max = limiterBounds(window, max)
	return &memoryLoginLimiter{
		window:   window,
		max:      max,
		now:      time.Now,
		failures: make(map[string][]time.Time),
	}
}

func (l *memoryLoginLimiter) Allow(_ context.Context, email string) bool {
	email = normalizeLimiterKey(email)
	if email == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now().UTC()
	l.sweepLocked(now)
	return len(l.recentLocked(email, now)) < l.max
}

func (l *memoryLoginLimiter) Fail(_ context.Context, email string) {
	email = normalizeLimiterKey(email)
	if email == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now().UTC()
	l.failures[email] = append(l.recentLocked(email, now), now)
}

func (l *memoryLoginLimiter) Reset(_ context.Context, email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, normalizeLimiterKey(email))
}

// recentLocked descarta los fallos fuera de la ventana y borra la clave si no queda ninguno.
func (l *memoryLoginLimiter) recentLocked(email string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	kept := l.failures[email][:0]
	for _, ts := range l.failures[email] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, email)
		return nil
	}
	l.failures[email] = kept
	return kept
}

// sweepLocked recorre todas las claves como mucho una vez por ventana.
func (l *memoryLoginLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for email := range l.failures {
		l.recentLocked(email, now)
	}
}

type redisCounter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisLoginLimiter struct {
	client  redisCounter
	window  time.Duration
	max     int
	prefix  string
	timeout time.Duration
}

// NewRedisLoginLimiter comparte los contadores de fallos entre procesos que usan el mismo Redis.
func NewRedisLoginLimiter(client *redis.Client, window time.Duration, max int) LoginLimiter {
	if client == nil {
		return nil
	}
	window, max = limiterBounds(window, max)
	return &redisLoginLimiter{
		client:  client,
		window:  window,
		max:     max,
		prefix:  "console:login:failures:",
		timeout: 500 * time.Millisecond,
	}
}

// Allow falla abierto si Redis no responde: el backend sigue siendo la autoridad.
func (l *redisLoginLimiter) Allow(ctx context.Context, email string) bool {
	email = normalizeLimiterKey(email)
	if email == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	failures, err := l.client.Get(ctx, l.prefix+email).Int()
	if err != nil {
		return true
	}
	return failures < l.max
}

func (l *redisLoginLimiter) Fail(ctx context.Context, email string) {
	email = normalizeLimiterKey(email)
	if email == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	_ = l.client.Eval(ctx, redisLoginFailureScript, []string{l.prefix + email}, l.window.Milliseconds()).Err()
}

func (l *redisLoginLimiter) Reset(ctx context.Context, email string) {
	email = normalizeLimiterKey(email)
	if email == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	_ = l.client.Del(ctx, l.prefix+email).Err()
}

func limiterBounds(window time.Duration, max int) (time.Duration, int) {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return window, max
}

func normalizeLimiterKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
