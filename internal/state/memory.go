package state

import (
	"context"
	"sync"
)

// Op records one write applied to a MemoryStore.
type Op struct {
	Kind  string // "set" or "remove"
	Key   string
	Value string
}

// MemoryStore is a process-local KV. It backs the "memory" storage backend
// and doubles as the adapter fake in tests: writes are journaled, failures
// can be injected and a hook can hold a write in flight.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]string
	ops      []Op
	readErr  error
	writeErr error
	hook     func(Op)
	closed   bool
}

func NewMemory() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

// Seed writes values directly, bypassing hooks and the journal.
func (m *MemoryStore) Seed(values map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.data[k] = v
	}
}

func (m *MemoryStore) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// OnWrite installs fn to run before each write is applied. It runs without
// the store lock held, so it may block.
func (m *MemoryStore) OnWrite(fn func(Op)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
}

// Ops returns the journal of applied writes.
func (m *MemoryStore) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Op(nil), m.ops...)
}

func (m *MemoryStore) EnsureSchema(context.Context) error { return nil }

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	if m.readErr != nil {
		return "", false, m.readErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	return m.apply(ctx, Op{Kind: "set", Key: key, Value: value})
}

func (m *MemoryStore) Remove(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := m.apply(ctx, Op{Kind: "remove", Key: k}); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) apply(ctx context.Context, op Op) error {
	m.mu.Lock()
	hook := m.hook
	m.mu.Unlock()
	if hook != nil {
		hook(op)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	switch op.Kind {
	case "set":
		m.data[op.Key] = op.Value
	case "remove":
		delete(m.data, op.Key)
	}
	m.ops = append(m.ops, op)
	return nil
}

func (m *MemoryStore) All(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
