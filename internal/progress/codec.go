package progress

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"biblequest/internal/puzzle"
)

// stageWire is the persisted JSON shape of StageProgress.
type stageWire struct {
	CurrentLevel          int              `json:"currentLevel"`
	RevealedBooks         map[BookKey]bool `json:"revealedBooks"`
	InteractionCount      map[BookKey]int  `json:"interactionCount"`
	LevelCompletionStatus map[int]bool     `json:"levelCompletionStatus"`
	// Older saves used this name for interactionCount.
	BounceCount map[BookKey]int `json:"bounceCount,omitempty"`
}

func encodeStage(p StageProgress) (string, error) {
	w := stageWire{
		CurrentLevel:          p.CurrentLevel,
		RevealedBooks:         p.RevealedBooks,
		InteractionCount:      p.InteractionCount,
		LevelCompletionStatus: p.LevelCompletionStatus,
	}
	if w.RevealedBooks == nil {
		w.RevealedBooks = map[BookKey]bool{}
	}
	if w.InteractionCount == nil {
		w.InteractionCount = map[BookKey]int{}
	}
	if w.LevelCompletionStatus == nil {
		w.LevelCompletionStatus = map[int]bool{}
	}
	b, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("encode stage progress: %w", err)
	}
	return string(b), nil
}

// decodeStage parses a stored blob and fits it to table. It reports how many
// entries were dropped for pointing outside the table.
func decodeStage(raw string, table *puzzle.Table, interactionCap int) (StageProgress, int, error) {
	var w stageWire
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return StageProgress{}, 0, fmt.Errorf("decode stage progress: %w", err)
	}
	if w.InteractionCount == nil && w.BounceCount != nil {
		w.InteractionCount = w.BounceCount
	}

	out := DefaultStage()
	dropped := 0
	out.CurrentLevel = clampLevel(w.CurrentLevel, table)
	for k, v := range w.RevealedBooks {
		if !inTable(table, k) {
			dropped++
			continue
		}
		// A false entry is the same as an absent one.
		if v {
			out.RevealedBooks[k] = true
		}
	}
	for k, n := range w.InteractionCount {
		if !inTable(table, k) {
			dropped++
			continue
		}
		if n <= 0 {
			continue
		}
		out.InteractionCount[k] = min(n, interactionCap)
	}
	for l, v := range w.LevelCompletionStatus {
		if l < 0 || l >= table.LevelCount() {
			dropped++
			continue
		}
		out.LevelCompletionStatus[l] = v
	}
	return out, dropped, nil
}

func encodeCoins(n int64) string { return strconv.FormatInt(n, 10) }

func decodeCoins(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode coins: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("decode coins: negative total %d", n)
	}
	return n, nil
}

func inTable(table *puzzle.Table, k BookKey) bool {
	return k.Level >= 0 && k.Index >= 0 && k.Index < table.ItemsInLevel(k.Level)
}

func clampLevel(level int, table *puzzle.Table) int {
	if level < 0 {
		return 0
	}
	if n := table.LevelCount(); level >= n {
		return max(n-1, 0)
	}
	return level
}
