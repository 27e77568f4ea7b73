package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scenario puts the progress store into a known state for screenshots,
// manual testing and the dev HTTP endpoint.
type Scenario struct {
	Name        string
	Description string
	// Complete lists levels revealed in full, in order.
	Complete []int
	// Partial reveals the first N books of a level.
	PartialLevel int
	PartialCount int
	// BounceOut taps book 0 of PartialLevel up to the interaction cap.
	BounceOut    bool
	PlayerName   string
	CurrentLevel int
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

func Names() []string {
	return []string{"fresh", "level_almost_complete", "level_complete", "bounced_out", "returning_player", "stage_complete"}
}

// Resolve maps a scenario name to its definition. Unknown names fall back
// to "fresh".
func (m *Manager) Resolve(name string) Scenario {
	switch strings.TrimSpace(name) {
	case "level_almost_complete", "almost":
		return Scenario{Name: "level_almost_complete", Description: "ten of eleven books revealed on level 1", PartialCount: 10}
	case "level_complete":
		return Scenario{Name: "level_complete", Description: "level 1 cleared and awarded", Complete: []int{0}}
	case "bounced_out":
		return Scenario{Name: "bounced_out", Description: "first book revealed and bounced to the cap", PartialCount: 1, BounceOut: true}
	case "returning_player":
		return Scenario{Name: "returning_player", Description: "named player two levels in", Complete: []int{0, 1}, PlayerName: "Ruth", CurrentLevel: 2, PartialLevel: 2, PartialCount: 4}
	case "stage_complete":
		return Scenario{Name: "stage_complete", Description: "every book revealed", Complete: []int{0, 1, 2, 3, 4, 5}, CurrentLevel: 5}
	default:
		return Scenario{Name: "fresh", Description: "first launch"}
	}
}

// Apply wipes coins and stage progress, then replays the scenario through
// the regular store API so awards and flags follow the game rules.
func (m *Manager) Apply(ctx context.Context, store Store, name string) (Scenario, error) {
	sc := m.Resolve(name)
	if err := ctx.Err(); err != nil {
		return sc, err
	}
	table := store.Table()
	if err := store.ResetAllProgress(); err != nil {
		return sc, fmt.Errorf("scenario %s: reset: %w", sc.Name, err)
	}
	if sc.PlayerName != "" {
		if err := store.SetPlayerName(sc.PlayerName); err != nil {
			return sc, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}
	for _, level := range sc.Complete {
		if level >= table.LevelCount() {
			continue
		}
		if _, err := store.GoToLevel(level); err != nil {
			return sc, fmt.Errorf("scenario %s: level %d: %w", sc.Name, level, err)
		}
		for i := 0; i < table.ItemsInLevel(level); i++ {
			if _, err := store.Reveal(level, i); err != nil {
				return sc, fmt.Errorf("scenario %s: reveal %d-%d: %w", sc.Name, level, i, err)
			}
		}
	}
	if _, err := store.GoToLevel(min(sc.CurrentLevel, table.LevelCount()-1)); err != nil {
		return sc, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	for i := 0; i < min(sc.PartialCount, table.ItemsInLevel(sc.PartialLevel)); i++ {
		if _, err := store.Reveal(sc.PartialLevel, i); err != nil {
			return sc, fmt.Errorf("scenario %s: reveal %d-%d: %w", sc.Name, sc.PartialLevel, i, err)
		}
	}
	if sc.BounceOut {
		for i := 0; i < store.InteractionCap(); i++ {
			if _, err := store.Tap(sc.PartialLevel, 0); err != nil {
				return sc, fmt.Errorf("scenario %s: bounce: %w", sc.Name, err)
			}
		}
	}
	return sc, nil
}

// SetState records the last applied scenario in cacheDir/dev_state.json
// for external harnesses.
func (m *Manager) SetState(ctx context.Context, cacheDir string, state string, applied bool) error {
	_ = ctx
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cacheDir = filepath.Join(home, ".cache", "biblequest")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	payload := map[string]any{
		"state":   strings.TrimSpace(state),
		"applied": applied,
	}
	b, _ := json.Marshal(payload)
	return os.WriteFile(filepath.Join(cacheDir, "dev_state.json"), b, 0o644)
}
