package state

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestSQLiteGetMissingKeyReportsAbsent(t *testing.T) {
	store := newTestSQLite(t)
	v, ok, err := store.Get(context.Background(), "playerName")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("expected absent key, got %q ok=%v", v, ok)
	}
}

func TestSQLiteSetOverwritesAndRemoveClears(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()

	if err := store.Set(ctx, "totalCoins", "10"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "totalCoins", "20"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Set(ctx, "playerName", "Ruth"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	v, ok, err := store.Get(ctx, "totalCoins")
	if err != nil || !ok {
		t.Fatalf("get coins: ok=%v err=%v", ok, err)
	}
	if v != "20" {
		t.Fatalf("expected latest value 20, got %q", v)
	}

	if err := store.Remove(ctx, "totalCoins", "stage1Progress"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 || all["playerName"] != "Ruth" {
		t.Fatalf("expected only playerName to remain, got %#v", all)
	}
}

func TestSQLiteValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	first, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	blob := `{"currentLevel":1,"revealedBooks":{"0-0":true}}`
	if err := first.Set(ctx, "stage1Progress", blob); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = second.Close() }()
	if err := second.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema twice: %v", err)
	}
	got, ok, err := second.Get(ctx, "stage1Progress")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got != blob {
		t.Fatalf("blob mismatch: %q", got)
	}
}

func TestSQLiteClosedStoreRejectsCalls(t *testing.T) {
	store, err := NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	_ = store.Close()
	if err := store.Set(context.Background(), "k", "v"); err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
