package devtools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblequest/internal/progress"
	"biblequest/internal/puzzle"
	"biblequest/internal/state"
)

func newStore(t *testing.T) *progress.Store {
	t.Helper()
	tbl, err := puzzle.Builtin()
	require.NoError(t, err)
	s := progress.New(state.NewMemory(), tbl)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestResolveFallsBackToFresh(t *testing.T) {
	m := NewManager()
	assert.Equal(t, "fresh", m.Resolve("nope").Name)
	assert.Equal(t, "level_almost_complete", m.Resolve("almost").Name)
	for _, name := range Names() {
		assert.Equal(t, name, m.Resolve(name).Name)
	}
}

func TestApplyAlmostComplete(t *testing.T) {
	s := newStore(t)
	_, err := NewManager().Apply(context.Background(), s, "level_almost_complete")
	require.NoError(t, err)

	assert.Equal(t, 10, s.RevealedCountInLevel(0))
	assert.False(t, s.IsLevelComplete(0))
	assert.Zero(t, s.Coins())
}

func TestApplyStageCompleteAwardsEveryLevel(t *testing.T) {
	s := newStore(t)
	_, err := NewManager().Apply(context.Background(), s, "stage_complete")
	require.NoError(t, err)

	assert.True(t, s.StageComplete())
	assert.Equal(t, int64(60), s.Coins())
	assert.Equal(t, 5, s.Stage().CurrentLevel)
}

func TestApplyReplacesPreviousScenario(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	m := NewManager()
	_, err := m.Apply(ctx, s, "returning_player")
	require.NoError(t, err)
	assert.Equal(t, "Ruth", s.PlayerName())
	assert.Equal(t, int64(20), s.Coins())
	assert.Equal(t, 2, s.Stage().CurrentLevel)
	assert.Equal(t, 4, s.RevealedCountInLevel(2))

	_, err = m.Apply(ctx, s, "bounced_out")
	require.NoError(t, err)
	assert.Zero(t, s.Coins())
	assert.Equal(t, "Ruth", s.PlayerName())
	assert.Equal(t, s.InteractionCap(), s.Stage().InteractionCount[progress.BookKey{}])
}

func TestSetStateWritesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewManager().SetState(context.Background(), dir, " level_complete ", true))

	b, err := os.ReadFile(filepath.Join(dir, "dev_state.json"))
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "level_complete", got["state"])
	assert.Equal(t, true, got["applied"])
}
