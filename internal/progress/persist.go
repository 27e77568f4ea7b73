package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"biblequest/internal/state"
)

type writeOp struct {
	remove bool
	value  string
}

// writer persists store fields from a single goroutine. Only the latest
// pending value per key is kept, and keys are written one at a time, so an
// older write can never land after a newer one for the same key.
type writer struct {
	kv      state.KV
	logger  Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]writeOp
	order   []string
	failed  map[string]error

	wake     chan struct{}
	flushes  chan chan struct{}
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newWriter(kv state.KV, logger Logger, timeout time.Duration) *writer {
	w := &writer{
		kv:      kv,
		logger:  logger,
		timeout: timeout,
		pending: map[string]writeOp{},
		failed:  map[string]error{},
		wake:    make(chan struct{}, 1),
		flushes: make(chan chan struct{}),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *writer) set(key, value string) { w.enqueue(key, writeOp{value: value}) }

func (w *writer) remove(key string) { w.enqueue(key, writeOp{remove: true}) }

func (w *writer) enqueue(key string, op writeOp) {
	w.mu.Lock()
	if _, ok := w.pending[key]; !ok {
		w.order = append(w.order, key)
	}
	w.pending[key] = op
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case ch := <-w.flushes:
			w.drain()
			close(ch)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *writer) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			w.mu.Unlock()
			return
		}
		pending, order := w.pending, w.order
		w.pending, w.order = map[string]writeOp{}, nil
		w.mu.Unlock()

		for _, key := range order {
			w.apply(key, pending[key])
		}
	}
}

func (w *writer) apply(key string, op writeOp) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	var err error
	if op.remove {
		err = w.kv.Remove(ctx, key)
	} else {
		err = w.kv.Set(ctx, key, op.value)
	}

	w.mu.Lock()
	if err != nil {
		w.failed[key] = err
	} else {
		delete(w.failed, key)
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("progress.persist_failed", map[string]any{"key": key, "remove": op.remove, "error": err.Error()})
		return
	}
	w.logger.Debug("progress.persisted", map[string]any{"key": key, "remove": op.remove})
}

// flush returns once every write queued before the call has been attempted.
func (w *writer) flush(ctx context.Context) error {
	ch := make(chan struct{})
	select {
	case w.flushes <- ch:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *writer) stop(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.quit) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// lastErr reports the error of the most recent write attempt for each key.
func (w *writer) lastErr(keys ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, k := range keys {
		if err := w.failed[k]; err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Flush waits for queued writes to reach the KV store. Write failures are
// logged, not returned.
func (s *Store) Flush(ctx context.Context) error {
	return s.w.flush(ctx)
}

// Close flushes pending writes and stops the writer. Later mutations fail
// with ErrClosed; reads keep working.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.w.stop(ctx)
}

// SaveToStorage writes all three fields and waits for them. Unlike the
// per-mutation writes, failures are returned.
func (s *Store) SaveToStorage(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	raw, err := encodeStage(s.stage)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.w.set(KeyPlayerName, s.name)
	s.w.set(KeyTotalCoins, encodeCoins(s.coins))
	s.w.set(KeyStage, raw)
	s.mu.Unlock()

	if err := s.w.flush(ctx); err != nil {
		return err
	}
	if err := s.w.lastErr(KeyPlayerName, KeyTotalCoins, KeyStage); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

var loadKeys = [fieldCount]string{
	fieldName:  KeyPlayerName,
	fieldCoins: KeyTotalCoins,
	fieldStage: KeyStage,
}

// LoadFromStorage reads the saved fields and applies the ones present. A
// field mutated after the load began keeps its in-memory value. Unreadable
// or malformed fields are logged and skipped without affecting the others;
// only context errors are returned.
func (s *Store) LoadFromStorage(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	start := s.versions
	s.mu.Unlock()

	// Queued writes must land first or the read could return older values.
	if err := s.w.flush(ctx); err != nil {
		return err
	}

	var (
		vals  [fieldCount]string
		found [fieldCount]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	for f := range fieldCount {
		g.Go(func() error {
			v, ok, err := s.w.kv.Get(gctx, loadKeys[f])
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Error("progress.load_failed", map[string]any{"key": loadKeys[f], "error": err.Error()})
				return nil
			}
			vals[f], found[f] = v, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var (
		coins   int64
		stage   StageProgress
		dropped int
	)
	if found[fieldCoins] {
		n, err := decodeCoins(vals[fieldCoins])
		if err != nil {
			s.logger.Warn("progress.load_malformed", map[string]any{"key": KeyTotalCoins, "error": err.Error()})
			found[fieldCoins] = false
		}
		coins = n
	}
	if found[fieldStage] {
		p, n, err := decodeStage(vals[fieldStage], s.table, s.interactionCap)
		if err != nil {
			s.logger.Warn("progress.load_malformed", map[string]any{"key": KeyStage, "error": err.Error()})
			found[fieldStage] = false
		}
		stage, dropped = p, n
	}
	vals[fieldName] = strings.TrimSpace(vals[fieldName])
	if found[fieldName] && vals[fieldName] == "" {
		found[fieldName] = false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	applied := []string{}
	for f := range fieldCount {
		if !found[f] {
			continue
		}
		if s.versions[f] != start[f] {
			s.logger.Debug("progress.load_superseded", map[string]any{"key": loadKeys[f]})
			continue
		}
		switch f {
		case fieldName:
			s.name = vals[fieldName]
		case fieldCoins:
			s.coins = coins
		case fieldStage:
			s.stage = stage
		}
		applied = append(applied, loadKeys[f])
	}
	if dropped > 0 {
		s.logger.Warn("progress.load_dropped_entries", map[string]any{"key": KeyStage, "dropped": dropped})
	}
	s.logger.Info("progress.loaded", map[string]any{"applied": applied, "coins": s.coins, "level": s.stage.CurrentLevel})
	return nil
}
