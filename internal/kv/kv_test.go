package kv

import (
	"context"
	"errors"
	"os"
	"testing"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, "lesson_downloads", `[{"a":1}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "lesson_downloads", `[]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, "lesson_downloads")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "[]" {
		t.Errorf("expected %q, got %q", "[]", got)
	}
	if err := s.Delete(ctx, "lesson_downloads"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "lesson_downloads"); err != nil {
		t.Errorf("expected second delete to be a no-op, got %v", err)
	}
	if _, err := s.Get(ctx, "lesson_downloads"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exercise(t, s)

	if err := s.Set(context.Background(), "a/b", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "a_b.json" {
		t.Errorf("expected single sanitized file a_b.json, got %v", entries)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), "etcd", "", "", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestOpen_RedisRequiresAddr(t *testing.T) {
	if _, err := Open(context.Background(), "redis", "", "", "ld:"); err == nil {
		t.Error("expected error for missing redis address")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := NewRedisStore(context.Background(), addr, "lessondeck-test:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()
	exercise(t, s)
}
