package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

func TestMemoryStorage_Basics(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	if _, ok, err := s.Get(ctx, KeyToken); err != nil || ok {
		t.Fatalf("expected missing key, got %v,%v", ok, err)
	}
	if err := s.Set(ctx, KeyToken, "abc"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, ok, err := s.Get(ctx, KeyToken)
	if err != nil || !ok || v != "abc" {
		t.Fatalf("expected abc, got %q,%v,%v", v, ok, err)
	}
	if err := s.Remove(ctx, KeyToken, "missing"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeyToken); ok {
		t.Fatalf("expected key removed")
	}
}

func TestFileStorage_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	first, err := NewFileStorage(path, "")
	if err != nil {
		t.Fatalf("new file storage: %v", err)
	}
	if err := first.Set(ctx, KeyUser, `{"id":"u1"}`); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	second, err := NewFileStorage(path, "")
	if err != nil {
		t.Fatalf("new file storage: %v", err)
	}
	v, ok, err := second.Get(ctx, KeyUser)
	if err != nil || !ok || v != `{"id":"u1"}` {
		t.Fatalf("expected persisted value, got %q,%v,%v", v, ok, err)
	}

	if err := second.Remove(ctx, KeyUser); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok, _ := first.Get(ctx, KeyUser); ok {
		t.Fatalf("expected value removed on disk")
	}
}

func TestFileStorage_SealsValuesWithSecret(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")

	s, err := NewFileStorage(path, "passphrase")
	if err != nil {
		t.Fatalf("new file storage: %v", err)
	}
	if err := s.Set(ctx, KeyToken, "secret-token"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if strings.Contains(string(raw), "secret-token") {
		t.Fatalf("token stored in plaintext: %s", raw)
	}

	v, ok, err := s.Get(ctx, KeyToken)
	if err != nil || !ok || v != "secret-token" {
		t.Fatalf("expected sealed round trip, got %q,%v,%v", v, ok, err)
	}

	wrong, _ := NewFileStorage(path, "other")
	if _, _, err := wrong.Get(ctx, KeyToken); !errors.Is(err, ErrSealedValue) {
		t.Fatalf("expected ErrSealedValue with wrong secret, got %v", err)
	}
}

type mockRedisKV struct {
	values  map[string]string
	lastSet string
	lastDel []string
	err     error
}

func (m *mockRedisKV) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	v, ok := m.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *mockRedisKV) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	m.lastSet = key
	m.values[key] = value.(string)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	m.lastDel = keys
	for _, k := range keys {
		delete(m.values, k)
	}
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func TestRedisStorage_UsesPrefixedKeys(t *testing.T) {
	ctx := context.Background()
	mock := &mockRedisKV{values: map[string]string{}}
	s := &redisStorage{client: mock, prefix: "console:storage:default:", timeout: time.Second}

	if err := s.Set(ctx, KeyToken, "abc"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if mock.lastSet != "console:storage:default:token" {
		t.Fatalf("unexpected key %q", mock.lastSet)
	}
	v, ok, err := s.Get(ctx, KeyToken)
	if err != nil || !ok || v != "abc" {
		t.Fatalf("expected abc, got %q,%v,%v", v, ok, err)
	}
	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("redis.Nil must map to missing, got %v,%v", ok, err)
	}
	if err := s.Remove(ctx, KeyToken, KeyUser); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(mock.lastDel) != 2 || mock.lastDel[1] != "console:storage:default:user" {
		t.Fatalf("unexpected del keys %+v", mock.lastDel)
	}
}

func TestRedisStorage_WrapsErrors(t *testing.T) {
	ctx := context.Background()
	mock := &mockRedisKV{values: map[string]string{}, err: errors.New("conn refused")}
	s := &redisStorage{client: mock, prefix: "p:", timeout: time.Second}

	if _, _, err := s.Get(ctx, KeyToken); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if err := s.Set(ctx, KeyToken, "x"); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

type mockRow struct {
	value string
	err   error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

type mockPg struct {
	row       mockRow
	lastQuery string
	lastArgs  []any
	execErr   error
}

func (m *mockPg) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.lastQuery = sql
	m.lastArgs = args
	return pgconn.NewCommandTag("OK"), m.execErr
}

func (m *mockPg) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.lastQuery = sql
	m.lastArgs = args
	return m.row
}

func TestPgStorage_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	mock := &mockPg{row: mockRow{value: "abc"}}
	s := &PgStorage{db: mock, namespace: "ns"}

	v, ok, err := s.Get(ctx, KeyToken)
	if err != nil || !ok || v != "abc" {
		t.Fatalf("expected abc, got %q,%v,%v", v, ok, err)
	}
	if mock.lastArgs[0] != "ns" || mock.lastArgs[1] != KeyToken {
		t.Fatalf("unexpected args %+v", mock.lastArgs)
	}

	if err := s.Set(ctx, KeyUser, "{}"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !strings.Contains(mock.lastQuery, "ON CONFLICT") {
		t.Fatalf("expected upsert, got %q", mock.lastQuery)
	}

	if err := s.Remove(ctx, KeyToken, KeyUser); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	keys, _ := mock.lastArgs[1].([]string)
	if len(keys) != 2 {
		t.Fatalf("expected both keys removed, got %+v", mock.lastArgs)
	}

	mock.row = mockRow{err: pgx.ErrNoRows}
	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("ErrNoRows must map to missing, got %v,%v", ok, err)
	}
}
