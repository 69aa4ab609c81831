package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryLoginLimiter_CountsFailuresInWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(time.Minute, 2).(*memoryLoginLimiter)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	l.Fail(ctx, "ana@example.com")
	if !l.Allow(ctx, " ANA@example.com") {
		t.Fatalf("expected allow below the limit")
	}
	l.Fail(ctx, "ana@example.com")
	if l.Allow(ctx, "ana@example.com") {
		t.Fatalf("expected deny at the limit")
	}
	if !l.Allow(ctx, "other@example.com") {
		t.Fatalf("emails must be independent")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow(ctx, "ana@example.com") {
		t.Fatalf("expected window to expire")
	}
}

func TestMemoryLoginLimiter_ResetClearsFailures(t *testing.T) {
	ctx := context.Background()
	l := NewLoginLimiter(time.Minute, 1).(*memoryLoginLimiter)

	l.Fail(ctx, "ana@example.com")
	if l.Allow(ctx, "ana@example.com") {
		t.Fatalf("expected deny after one failure")
	}
	l.Reset(ctx, "Ana@Example.com")
	if !l.Allow(ctx, "ana@example.com") {
		t.Fatalf("expected allow after reset")
	}
	if len(l.failures) != 0 {
		t.Fatalf("expected no tracked emails, got %d", len(l.failures))
	}
}

func TestMemoryLoginLimiter_DropsExpiredEmails(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLoginLimiter(time.Minute, 3).(*memoryLoginLimiter)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		l.Fail(ctx, email)
	}
	now = now.Add(2 * time.Minute)
	l.Allow(ctx, "d@example.com")

	if len(l.failures) != 0 {
		t.Fatalf("expected expired emails dropped, still tracking %d", len(l.failures))
	}
}

type mockRedisCounter struct {
	failures   int64
	getErr     error
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	deleted    []string
}

func (m *mockRedisCounter) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	switch {
	case m.getErr != nil:
		cmd.SetErr(m.getErr)
	case m.failures == 0:
		cmd.SetErr(redis.Nil)
	default:
		cmd.SetVal(strconv.FormatInt(m.failures, 10))
	}
	return cmd
}

func (m *mockRedisCounter) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	m.failures++
	cmd := redis.NewCmd(ctx)
	cmd.SetVal(m.failures)
	return cmd
}

func (m *mockRedisCounter) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.deleted = append(m.deleted, keys...)
	m.failures = 0
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func newTestRedisLimiter(mock *mockRedisCounter, max int) *redisLoginLimiter {
	return &redisLoginLimiter{client: mock, window: 2 * time.Minute, max: max, prefix: "console:login:failures:", timeout: time.Second}
}

func TestRedisLoginLimiter_FailuresAndReset(t *testing.T) {
	ctx := context.Background()
	mock := &mockRedisCounter{}
	l := newTestRedisLimiter(mock, 2)

	if !l.Allow(ctx, "ana@example.com") {
		t.Fatalf("expected allow without failures")
	}
	l.Fail(ctx, " Ana@Example.com ")
	if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "console:login:failures:ana@example.com" {
		t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
	}
	if len(mock.lastArgs) != 1 || mock.lastArgs[0] != int64(120000) {
		t.Fatalf("expected window in milliseconds, got %+v", mock.lastArgs)
	}
	if mock.lastScript != redisLoginFailureScript {
		t.Fatalf("expected failure script")
	}
	l.Fail(ctx, "ana@example.com")
	if l.Allow(ctx, "ana@example.com") {
		t.Fatalf("expected deny at the limit")
	}

	l.Reset(ctx, "ana@example.com")
	if len(mock.deleted) != 1 || mock.deleted[0] != "console:login:failures:ana@example.com" {
		t.Fatalf("expected counter deleted, got %+v", mock.deleted)
	}
	if !l.Allow(ctx, "ana@example.com") {
		t.Fatalf("expected allow after reset")
	}
}

func TestRedisLoginLimiter_FailOpenAndEmptyKey(t *testing.T) {
	ctx := context.Background()

	down := newTestRedisLimiter(&mockRedisCounter{getErr: errors.New("redis down")}, 1)
	if !down.Allow(ctx, "ana@example.com") {
		t.Fatalf("expected fail-open on redis errors")
	}

	l := newTestRedisLimiter(&mockRedisCounter{}, 1)
	if l.Allow(ctx, "   ") {
		t.Fatalf("expected empty key to be rejected")
	}
}
