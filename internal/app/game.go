package app

import (
	"context"

	"biblequest/internal/audio"
	"biblequest/internal/progress"
)

func (a *App) Status() Status {
	snap := a.progress.Snapshot()
	level := snap.Stage.CurrentLevel
	found := 0
	for _, v := range snap.Stage.RevealedBooks {
		if v {
			found++
		}
	}
	return Status{
		PlayerName:      snap.PlayerName,
		Coins:           snap.Coins,
		CurrentLevel:    level,
		LevelCount:      a.table.LevelCount(),
		LevelTitle:      a.table.LevelTitle(level),
		Revealed:        a.progress.RevealedCountInLevel(level),
		LevelSize:       a.table.ItemsInLevel(level),
		Progress:        a.progress.ProgressFraction(level),
		LevelComplete:   a.progress.IsLevelComplete(level),
		CompletedLevels: a.progress.CompletedLevels(),
		StageComplete:   a.progress.StageComplete(),
		BooksFound:      found,
		TotalBooks:      a.table.TotalItems(),
	}
}

// Books lists the current level's books in play order.
func (a *App) Books() []BookView {
	stage := a.progress.Stage()
	level := stage.CurrentLevel
	out := make([]BookView, 0, a.table.ItemsInLevel(level))
	for i := 0; i < a.table.ItemsInLevel(level); i++ {
		b, _ := a.table.ItemAt(level, i)
		k := progress.BookKey{Level: level, Index: i}
		out = append(out, BookView{
			Index:        i,
			Book:         b,
			Revealed:     stage.RevealedBooks[k],
			Interactions: stage.InteractionCount[k],
		})
	}
	return out
}

// Tap presses book index on the current level and plays the matching cues.
func (a *App) Tap(ctx context.Context, index int) (TapResult, error) {
	level := a.progress.Stage().CurrentLevel
	res, err := a.progress.Tap(level, index)
	if err != nil {
		return TapResult{}, err
	}
	out := TapResult{Interaction: res}
	cue := func(c audio.Cue) {
		a.audio.Play(c)
		out.Cues = append(out.Cues, string(c))
	}

	switch res.Outcome {
	case progress.OutcomeRevealed:
		cue(audio.CueBookReveal)
		a.audio.SpeakBook(res.Book.Name, res.Book.Ordinal)
	case progress.OutcomeBounced:
		cue(audio.CueBounce)
	}
	if res.LevelCompleted {
		cue(audio.CueLevelComplete)
		cue(audio.CueCoinEarned)
		a.analytics.Emit("level_completed", map[string]any{"level": level, "coins": res.Coins, "awarded": res.CoinsAwarded})
	}
	out.StageComplete = a.progress.StageComplete()
	a.logger.Debug("game.tap", map[string]any{"level": level, "index": index, "outcome": res.Outcome.String()})
	return out, nil
}

// NextLevel advances a level. On the last level it instead reports the stage
// as finished, celebrating if every book has been revealed.
func (a *App) NextLevel(ctx context.Context) (LevelMove, error) {
	a.audio.Play(audio.CueWhoosh)
	moved, err := a.progress.NextLevel()
	if err != nil {
		return LevelMove{}, err
	}
	move := LevelMove{Moved: moved, Level: a.progress.Stage().CurrentLevel}
	if !moved && a.progress.StageComplete() {
		move.Finished = true
		a.audio.Play(audio.CueSuccess)
		a.analytics.TrackGameCompletion(ctx, "books", 1, a.progress.Coins())
	}
	return move, nil
}

func (a *App) PreviousLevel() (LevelMove, error) {
	a.audio.Play(audio.CueWhoosh)
	moved, err := a.progress.PreviousLevel()
	if err != nil {
		return LevelMove{}, err
	}
	return LevelMove{Moved: moved, Level: a.progress.Stage().CurrentLevel}, nil
}

func (a *App) GoToLevel(level int) (LevelMove, error) {
	a.audio.Play(audio.CueWhoosh)
	moved, err := a.progress.GoToLevel(level)
	if err != nil {
		return LevelMove{}, err
	}
	return LevelMove{Moved: moved, Level: level}, nil
}

func (a *App) SetPlayerName(ctx context.Context, name string) error {
	a.audio.Play(audio.CueButtonPress)
	if err := a.progress.SetPlayerName(name); err != nil {
		return err
	}
	a.analytics.TrackUserAction(ctx, "set_name", nil)
	return nil
}

// RestartStage clears stage progress and keeps coins.
func (a *App) RestartStage(ctx context.Context) error {
	a.audio.Play(audio.CueButtonPress)
	if err := a.progress.ResetStageProgress(); err != nil {
		return err
	}
	a.analytics.TrackUserAction(ctx, "progress_reset", map[string]any{"scope": "stage"})
	return nil
}

// ResetAll clears coins and stage progress and keeps the player name.
func (a *App) ResetAll(ctx context.Context) error {
	a.audio.Play(audio.CueButtonPress)
	if err := a.progress.ResetAllProgress(); err != nil {
		return err
	}
	a.analytics.TrackUserAction(ctx, "progress_reset", map[string]any{"scope": "all"})
	return nil
}

// ResetLevel clears one level so it can be cleared and awarded again.
func (a *App) ResetLevel(ctx context.Context, level int) error {
	a.audio.Play(audio.CueButtonPress)
	if err := a.progress.ResetLevel(level); err != nil {
		return err
	}
	a.analytics.TrackUserAction(ctx, "progress_reset", map[string]any{"scope": "level", "level": level})
	return nil
}

// FindBook locates a book by its place in the whole canon (1 is Genesis).
func (a *App) FindBook(ordinal int) (BookLocation, bool) {
	level, index, ok := a.table.Locate(ordinal)
	if !ok {
		return BookLocation{}, false
	}
	b, _ := a.table.ItemAt(level, index)
	return BookLocation{
		Book:     b,
		Level:    level,
		Index:    index,
		Revealed: a.progress.Stage().RevealedBooks[progress.BookKey{Level: level, Index: index}],
	}, true
}

// ViewScreen records that the player opened screen.
func (a *App) ViewScreen(ctx context.Context, screen string) {
	a.analytics.TrackScreenView(ctx, screen)
}

// Save forces a full write of the progress store.
func (a *App) Save(ctx context.Context) error {
	return a.progress.SaveToStorage(ctx)
}
