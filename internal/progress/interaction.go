package progress

import "math"

// Tap is the single-button interaction: the first tap on a hidden book
// reveals it, later taps bounce it until the interaction cap.
func (s *Store) Tap(level, index int) (Interaction, error) {
	k := BookKey{Level: level, Index: index}
	if !inTable(s.table, k) {
		return Interaction{}, ErrOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Interaction{}, ErrClosed
	}
	if s.stage.RevealedBooks[k] {
		return s.bounceLocked(k), nil
	}
	return s.revealLocked(k), nil
}

// Reveal moves a hidden book to revealed. Revealing twice is a no-op.
func (s *Store) Reveal(level, index int) (Interaction, error) {
	k := BookKey{Level: level, Index: index}
	if !inTable(s.table, k) {
		return Interaction{}, ErrOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Interaction{}, ErrClosed
	}
	return s.revealLocked(k), nil
}

// Bounce counts one post-reveal interaction. Hidden books are not affected.
func (s *Store) Bounce(level, index int) (Interaction, error) {
	k := BookKey{Level: level, Index: index}
	if !inTable(s.table, k) {
		return Interaction{}, ErrOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Interaction{}, ErrClosed
	}
	if !s.stage.RevealedBooks[k] {
		return s.resultLocked(k, OutcomeHidden), nil
	}
	return s.bounceLocked(k), nil
}

// revealLocked applies Hidden -> Revealed. If that reveal completes the
// level while its completion flag is down, coins are awarded and the flag
// raised in the same step.
func (s *Store) revealLocked(k BookKey) Interaction {
	if s.stage.RevealedBooks[k] {
		return s.resultLocked(k, OutcomeAlreadyRevealed)
	}
	next := s.stage.Clone()
	next.RevealedBooks[k] = true

	var awarded int64
	if revealedIn(next, k.Level) == s.table.ItemsInLevel(k.Level) && !next.LevelCompletionStatus[k.Level] {
		next.LevelCompletionStatus[k.Level] = true
		awarded = s.coinsPerLevel
	}
	s.stage = next
	s.touchLocked(fieldStage)
	if awarded > 0 {
		s.coins = addSaturating(s.coins, awarded)
		s.touchLocked(fieldCoins)
		s.logger.Info("progress.level_complete", map[string]any{"level": k.Level, "coins": s.coins, "awarded": awarded})
	}

	res := s.resultLocked(k, OutcomeRevealed)
	res.LevelCompleted = awarded > 0
	res.CoinsAwarded = awarded
	return res
}

func (s *Store) bounceLocked(k BookKey) Interaction {
	n := s.stage.InteractionCount[k]
	if n >= s.interactionCap {
		return s.resultLocked(k, OutcomeCapped)
	}
	next := s.stage.Clone()
	next.InteractionCount[k] = n + 1
	s.stage = next
	s.touchLocked(fieldStage)
	return s.resultLocked(k, OutcomeBounced)
}

func (s *Store) resultLocked(k BookKey, o Outcome) Interaction {
	book, _ := s.table.ItemAt(k.Level, k.Index)
	return Interaction{
		Key:           k,
		Book:          book,
		Outcome:       o,
		Interactions:  s.stage.InteractionCount[k],
		RevealedCount: revealedIn(s.stage, k.Level),
		LevelSize:     s.table.ItemsInLevel(k.Level),
		Coins:         s.coins,
	}
}

// GoToLevel makes level current. Entering a different level lowers its
// completion flag so a fresh clear during this visit earns coins again.
// It reports whether the current level changed.
func (s *Store) GoToLevel(level int) (bool, error) {
	if !s.validLevel(level) {
		return false, ErrOutOfRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	return s.goToLocked(level), nil
}

// NextLevel advances one level. At the last level it returns false and
// leaves the stage untouched.
func (s *Store) NextLevel() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	next := s.stage.CurrentLevel + 1
	if !s.validLevel(next) {
		return false, nil
	}
	return s.goToLocked(next), nil
}

func (s *Store) PreviousLevel() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	prev := s.stage.CurrentLevel - 1
	if !s.validLevel(prev) {
		return false, nil
	}
	return s.goToLocked(prev), nil
}

func (s *Store) goToLocked(level int) bool {
	if level == s.stage.CurrentLevel {
		return false
	}
	next := s.stage.Clone()
	next.CurrentLevel = level
	next.LevelCompletionStatus[level] = false
	s.stage = next
	s.touchLocked(fieldStage)
	return true
}

func addSaturating(total, n int64) int64 {
	if n > math.MaxInt64-total {
		return math.MaxInt64
	}
	return total + n
}
