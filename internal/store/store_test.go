package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "personal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s, path
}

func TestIncrementAndLoadAll(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if n, err := s.Increment(ctx, "wert", 1); err != nil || n != 1 {
		t.Fatalf("first increment: got (%d, %v), want (1, nil)", n, err)
	}
	if n, err := s.Increment(ctx, "wert", 1); err != nil || n != 2 {
		t.Fatalf("second increment: got (%d, %v), want (2, nil)", n, err)
	}
	if n, err := s.Increment(ctx, "hello", 5); err != nil || n != 5 {
		t.Fatalf("hello increment: got (%d, %v), want (5, nil)", n, err)
	}

	counts, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(counts) != 2 {
		t.Errorf("expected 2 words, got %d", len(counts))
	}
	if counts["wert"] != 2 || counts["hello"] != 5 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestIncrementFloorsAtZero(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if n, err := s.Increment(ctx, "wet", -3); err != nil || n != 0 {
		t.Fatalf("negative insert: got (%d, %v), want (0, nil)", n, err)
	}
	if _, err := s.Increment(ctx, "wet", 2); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if n, err := s.Increment(ctx, "wet", -10); err != nil || n != 0 {
		t.Fatalf("negative update: got (%d, %v), want (0, nil)", n, err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "personal.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.Increment(ctx, "glide", 7); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() {
		if cerr := reopened.Close(); cerr != nil {
			t.Errorf("Close failed: %v", cerr)
		}
	}()

	counts, err := reopened.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if counts["glide"] != 7 {
		t.Errorf("expected persisted count 7, got %d", counts["glide"])
	}
}

func TestReset(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Increment(ctx, "wet", 3); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	counts, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected empty store after reset, got %v", counts)
	}
}
