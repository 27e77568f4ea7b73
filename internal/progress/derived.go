package progress

import "strconv"

// RevealedCountInLevel counts revealed books of level.
func (s *Store) RevealedCountInLevel(level int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return revealedIn(s.stage, level)
}

// IsLevelComplete reports whether every book of level is revealed. It never
// awards coins; awards happen only on the reveal that completes a level.
func (s *Store) IsLevelComplete(level int) bool {
	n := s.table.ItemsInLevel(level)
	if n == 0 {
		return false
	}
	return s.RevealedCountInLevel(level) == n
}

// ProgressFraction is the revealed share of level, in [0, 1].
func (s *Store) ProgressFraction(level int) float64 {
	n := s.table.ItemsInLevel(level)
	if n == 0 {
		return 0
	}
	return float64(s.RevealedCountInLevel(level)) / float64(n)
}

// CompletedLevels lists fully revealed levels in order.
func (s *Store) CompletedLevels() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []int{}
	for l := 0; l < s.table.LevelCount(); l++ {
		if revealedIn(s.stage, l) == s.table.ItemsInLevel(l) {
			out = append(out, l)
		}
	}
	return out
}

// StageComplete reports whether every book in the table is revealed.
func (s *Store) StageComplete() bool {
	return len(s.CompletedLevels()) == s.table.LevelCount() && s.table.LevelCount() > 0
}

func revealedIn(p StageProgress, level int) int {
	n := 0
	for k, v := range p.RevealedBooks {
		if v && k.Level == level {
			n++
		}
	}
	return n
}

// LevelLabel is the 1-based label shown to players.
func LevelLabel(level int) string { return "Level " + strconv.Itoa(level+1) }
