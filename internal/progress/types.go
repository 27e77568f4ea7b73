package progress

import (
	"errors"
	"maps"

	"biblequest/internal/puzzle"
)

const (
	DefaultPlayerName     = "Guest"
	DefaultCoinsPerLevel  = 10
	DefaultInteractionCap = 3
)

var (
	ErrOutOfRange    = errors.New("level or book index out of range")
	ErrInvalidAmount = errors.New("invalid coin amount")
	ErrInvalidName   = errors.New("player name is empty")
	ErrClosed        = errors.New("progress store closed")
)

// StageProgress is the per-stage puzzle state.
type StageProgress struct {
	CurrentLevel          int
	RevealedBooks         map[BookKey]bool
	InteractionCount      map[BookKey]int
	LevelCompletionStatus map[int]bool
}

func DefaultStage() StageProgress {
	return StageProgress{
		RevealedBooks:         map[BookKey]bool{},
		InteractionCount:      map[BookKey]int{},
		LevelCompletionStatus: map[int]bool{},
	}
}

func (p StageProgress) Clone() StageProgress {
	out := StageProgress{
		CurrentLevel:          p.CurrentLevel,
		RevealedBooks:         maps.Clone(p.RevealedBooks),
		InteractionCount:      maps.Clone(p.InteractionCount),
		LevelCompletionStatus: maps.Clone(p.LevelCompletionStatus),
	}
	if out.RevealedBooks == nil {
		out.RevealedBooks = map[BookKey]bool{}
	}
	if out.InteractionCount == nil {
		out.InteractionCount = map[BookKey]int{}
	}
	if out.LevelCompletionStatus == nil {
		out.LevelCompletionStatus = map[int]bool{}
	}
	return out
}

// StageUpdate replaces whole top-level fields of StageProgress. Nil fields
// are left as they are; a non-nil map replaces the stored map entirely.
type StageUpdate struct {
	CurrentLevel          *int
	RevealedBooks         map[BookKey]bool
	InteractionCount      map[BookKey]int
	LevelCompletionStatus map[int]bool
}

func Level(n int) *int { return &n }

// Snapshot is a consistent copy of the whole store.
type Snapshot struct {
	PlayerName string
	Coins      int64
	Stage      StageProgress
}

type Outcome int

const (
	OutcomeRevealed Outcome = iota + 1
	OutcomeAlreadyRevealed
	OutcomeBounced
	OutcomeCapped
	OutcomeHidden
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRevealed:
		return "revealed"
	case OutcomeAlreadyRevealed:
		return "already_revealed"
	case OutcomeBounced:
		return "bounced"
	case OutcomeCapped:
		return "capped"
	case OutcomeHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Interaction describes what a single tap did.
type Interaction struct {
	Key            BookKey     `json:"key"`
	Book           puzzle.Book `json:"book"`
	Outcome        Outcome     `json:"outcome"`
	Interactions   int         `json:"interactions"`
	RevealedCount  int         `json:"revealedCount"`
	LevelSize      int         `json:"levelSize"`
	LevelCompleted bool        `json:"levelCompleted"`
	CoinsAwarded   int64       `json:"coinsAwarded"`
	Coins          int64       `json:"coins"`
}
