package devtools

import (
	"context"

	"biblequest/internal/progress"
	"biblequest/internal/puzzle"
)

type Demo interface {
	Resolve(name string) Scenario
	Apply(ctx context.Context, store Store, name string) (Scenario, error)
	SetState(ctx context.Context, cacheDir string, state string, applied bool) error
}

// Store is the part of the progress store scenarios drive.
type Store interface {
	Table() *puzzle.Table
	InteractionCap() int
	ResetAllProgress() error
	SetPlayerName(name string) error
	Reveal(level, index int) (progress.Interaction, error)
	Tap(level, index int) (progress.Interaction, error)
	GoToLevel(level int) (bool, error)
}
