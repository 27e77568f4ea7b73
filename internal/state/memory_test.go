package state

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreJournalsWritesAndInjectsFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, "playerName", "Ruth"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := m.Remove(ctx, "playerName"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ops := m.Ops()
	if len(ops) != 2 || ops[0].Kind != "set" || ops[1].Kind != "remove" {
		t.Fatalf("unexpected journal: %#v", ops)
	}

	boom := errors.New("disk full")
	m.FailWrites(boom)
	if err := m.Set(ctx, "totalCoins", "5"); !errors.Is(err, boom) {
		t.Fatalf("expected injected write error, got %v", err)
	}
	if _, ok, _ := m.Get(ctx, "totalCoins"); ok {
		t.Fatalf("failed write must not be applied")
	}

	m.FailReads(boom)
	if _, _, err := m.Get(ctx, "totalCoins"); !errors.Is(err, boom) {
		t.Fatalf("expected injected read error, got %v", err)
	}
}

func TestMemoryStoreHookSeesWriteBeforeApply(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var seen []string
	m.OnWrite(func(op Op) {
		_, ok, _ := m.Get(ctx, op.Key)
		if ok {
			seen = append(seen, "present")
		} else {
			seen = append(seen, "absent")
		}
	})
	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(seen) != 1 || seen[0] != "absent" {
		t.Fatalf("hook should run before apply, got %v", seen)
	}
}
