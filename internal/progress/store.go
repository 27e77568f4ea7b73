package progress

import (
	"math"
	"strings"
	"sync"
	"time"

	"biblequest/internal/puzzle"
	"biblequest/internal/state"
	"biblequest/internal/telemetry"
)

type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// field indexes the per-field version counters used to merge loads.
type field int

const (
	fieldName field = iota
	fieldCoins
	fieldStage
	fieldCount
)

// Store owns the player's name, coin total and stage progress. Mutations are
// applied in memory under one lock and persisted in the background.
type Store struct {
	table          *puzzle.Table
	logger         Logger
	coinsPerLevel  int64
	interactionCap int
	writeTimeout   time.Duration

	mu       sync.Mutex
	name     string
	coins    int64
	stage    StageProgress
	versions [fieldCount]uint64
	closed   bool

	w *writer
}

type Option func(*Store)

func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithCoinsPerLevel(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.coinsPerLevel = n
		}
	}
}

func WithInteractionCap(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.interactionCap = n
		}
	}
}

// WithWriteTimeout bounds each background KV write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// New starts a store with default values. Call LoadFromStorage to pick up a
// previous session and Close to flush pending writes.
func New(kv state.KV, table *puzzle.Table, opts ...Option) *Store {
	s := &Store{
		table:          table,
		logger:         telemetry.Discard(),
		coinsPerLevel:  DefaultCoinsPerLevel,
		interactionCap: DefaultInteractionCap,
		writeTimeout:   5 * time.Second,
		name:           DefaultPlayerName,
		stage:          DefaultStage(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.w = newWriter(kv, s.logger, s.writeTimeout)
	return s
}

func (s *Store) Table() *puzzle.Table { return s.table }

func (s *Store) CoinsPerLevel() int64 { return s.coinsPerLevel }

func (s *Store) InteractionCap() int { return s.interactionCap }

func (s *Store) PlayerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Store) SetPlayerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.name = name
	s.touchLocked(fieldName)
	return nil
}

func (s *Store) Coins() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coins
}

// AddCoins adds a positive amount and returns the new total. An amount that
// would overflow the total is rejected.
func (s *Store) AddCoins(amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if amount > math.MaxInt64-s.coins {
		return s.coins, ErrInvalidAmount
	}
	s.coins += amount
	s.touchLocked(fieldCoins)
	return s.coins, nil
}

func (s *Store) SetCoins(amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.coins = amount
	s.touchLocked(fieldCoins)
	return nil
}

// Stage returns a copy of the stage progress.
func (s *Store) Stage() StageProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage.Clone()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{PlayerName: s.name, Coins: s.coins, Stage: s.stage.Clone()}
}

// SetStageProgress replaces the fields set in u and persists the merged
// progress as one blob. Nothing changes if any field points outside the
// puzzle table or holds a count above the interaction cap.
func (s *Store) SetStageProgress(u StageUpdate) error {
	if err := s.checkUpdate(u); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next := s.stage.Clone()
	if u.CurrentLevel != nil {
		next.CurrentLevel = *u.CurrentLevel
	}
	if u.RevealedBooks != nil {
		next.RevealedBooks = cloneOrEmpty(u.RevealedBooks)
	}
	if u.InteractionCount != nil {
		next.InteractionCount = cloneOrEmpty(u.InteractionCount)
	}
	if u.LevelCompletionStatus != nil {
		next.LevelCompletionStatus = cloneOrEmpty(u.LevelCompletionStatus)
	}
	s.stage = next
	s.touchLocked(fieldStage)
	return nil
}

func (s *Store) checkUpdate(u StageUpdate) error {
	if u.CurrentLevel != nil && !s.validLevel(*u.CurrentLevel) {
		return ErrOutOfRange
	}
	for k := range u.RevealedBooks {
		if !inTable(s.table, k) {
			return ErrOutOfRange
		}
	}
	for k, n := range u.InteractionCount {
		if !inTable(s.table, k) || n < 0 || n > s.interactionCap {
			return ErrOutOfRange
		}
	}
	for l := range u.LevelCompletionStatus {
		if !s.validLevel(l) {
			return ErrOutOfRange
		}
	}
	return nil
}

// ResetStageProgress starts the stage over. Coins are kept.
func (s *Store) ResetStageProgress() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.stage = DefaultStage()
	s.touchLocked(fieldStage)
	return nil
}

// ResetLevel forgets the reveals, interactions and completion flag of a
// single level so it can be played and awarded again.
func (s *Store) ResetLevel(level int) error {
	if !s.validLevel(level) {
		return ErrOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next := s.stage.Clone()
	for k := range next.RevealedBooks {
		if k.Level == level {
			delete(next.RevealedBooks, k)
		}
	}
	for k := range next.InteractionCount {
		if k.Level == level {
			delete(next.InteractionCount, k)
		}
	}
	next.LevelCompletionStatus[level] = false
	s.stage = next
	s.touchLocked(fieldStage)
	return nil
}

// ResetAllProgress drops coins and stage progress from memory and storage.
// The player name survives.
func (s *Store) ResetAllProgress() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.coins = 0
	s.stage = DefaultStage()
	s.versions[fieldCoins]++
	s.versions[fieldStage]++
	s.w.remove(KeyTotalCoins)
	s.w.remove(KeyStage)
	return nil
}

func (s *Store) validLevel(level int) bool {
	return level >= 0 && level < s.table.LevelCount()
}

// touchLocked bumps the field version and queues its current value for
// persistence. Callers hold s.mu, so the queue sees writes in mutation order.
func (s *Store) touchLocked(f field) {
	s.versions[f]++
	switch f {
	case fieldName:
		s.w.set(KeyPlayerName, s.name)
	case fieldCoins:
		s.w.set(KeyTotalCoins, encodeCoins(s.coins))
	case fieldStage:
		raw, err := encodeStage(s.stage)
		if err != nil {
			s.logger.Error("progress.encode_failed", map[string]any{"key": KeyStage, "error": err.Error()})
			return
		}
		s.w.set(KeyStage, raw)
	}
}

func cloneOrEmpty[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
