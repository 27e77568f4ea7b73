package state

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

// Runs only when a disposable database is provided.
func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("BIBLEQUEST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BIBLEQUEST_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	store, err := NewPostgres(ctx, dsn, "test-"+uuid.NewString())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	if err := store.Set(ctx, "totalCoins", "30"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := store.Get(ctx, "totalCoins")
	if err != nil || !ok || v != "30" {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := store.Remove(ctx, "totalCoins"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "totalCoins"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestNewPostgresRequiresNamespace(t *testing.T) {
	if _, err := NewPostgres(context.Background(), "postgres://unused", " "); err == nil {
		t.Fatalf("expected namespace error")
	}
}
