package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblequest/internal/app"
	"biblequest/internal/progress"
)

// testEnv points every command at the same SQLite file so progress carries
// over between invocations the way it does between real runs.
func testEnv(t *testing.T) *Env {
	t.Helper()
	dir := t.TempDir()
	cfg := app.DefaultConfig()
	cfg.DataDir = dir
	cfg.LogPath = filepath.Join(dir, "biblequest.log")
	cfg.ASCIIOnly = true
	return &Env{Config: cfg}
}

func executeCmd(t *testing.T, env *Env, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(env)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func statusOf(t *testing.T, env *Env) app.Status {
	t.Helper()
	out, err := executeCmd(t, env, "status", "--json")
	require.NoError(t, err)
	var st app.Status
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	return st
}

func TestRootShowsStatus(t *testing.T) {
	env := testEnv(t)

	out, err := executeCmd(t, env)
	require.NoError(t, err)
	assert.Contains(t, out, "BIBLE QUEST")
	assert.Contains(t, out, "Guest")
	assert.Contains(t, out, "0 coins")
	assert.Contains(t, out, "0/11 books")
}

func TestTapPersistsBetweenRuns(t *testing.T) {
	env := testEnv(t)

	out, err := executeCmd(t, env, "tap", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Revealed Genesis (book 1)")

	out, err = executeCmd(t, env, "tap", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Genesis bounced (1)")

	st := statusOf(t, env)
	assert.Equal(t, 1, st.Revealed)

	out, err = executeCmd(t, env, "books")
	require.NoError(t, err)
	assert.Contains(t, out, "Genesis")
	assert.NotContains(t, out, "Exodus")
}

func TestTappingEveryBookCompletesTheLevel(t *testing.T) {
	env := testEnv(t)

	var out string
	var err error
	for i := 1; i <= 11; i++ {
		out, err = executeCmd(t, env, "tap", strconv.Itoa(i))
		require.NoError(t, err)
	}
	assert.Contains(t, out, "Level complete! +10")

	st := statusOf(t, env)
	assert.Equal(t, int64(10), st.Coins)
	assert.True(t, st.LevelComplete)
	assert.Equal(t, []int{0}, st.CompletedLevels)
}

func TestTapRejectsBadPositions(t *testing.T) {
	env := testEnv(t)

	_, err := executeCmd(t, env, "tap", "0")
	assert.ErrorContains(t, err, "invalid position")

	_, err = executeCmd(t, env, "tap", "12")
	assert.ErrorIs(t, err, progress.ErrOutOfRange)
}

func TestLevelCommands(t *testing.T) {
	env := testEnv(t)

	out, err := executeCmd(t, env, "level", "prev")
	require.NoError(t, err)
	assert.Equal(t, "Staying on Level 1\n", out)

	out, err = executeCmd(t, env, "level", "next")
	require.NoError(t, err)
	assert.Contains(t, out, "Now on Level 2")

	out, err = executeCmd(t, env, "level", "goto", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "Now on Level 6")
	assert.Equal(t, 5, statusOf(t, env).CurrentLevel)

	_, err = executeCmd(t, env, "level", "goto", "7")
	assert.ErrorIs(t, err, progress.ErrOutOfRange)
}

func TestNameAndReset(t *testing.T) {
	env := testEnv(t)

	out, err := executeCmd(t, env, "name", "Ruth", "Ann")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Ruth Ann!")

	_, err = executeCmd(t, env, "demo", "returning_player")
	require.NoError(t, err)
	st := statusOf(t, env)
	require.Equal(t, int64(20), st.Coins)

	out, err = executeCmd(t, env, "reset", "--level", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Level 1 cleared.")
	assert.Equal(t, []int{1}, statusOf(t, env).CompletedLevels)

	_, err = executeCmd(t, env, "reset")
	require.NoError(t, err)
	st = statusOf(t, env)
	assert.Equal(t, int64(20), st.Coins)
	assert.Empty(t, st.CompletedLevels)

	_, err = executeCmd(t, env, "reset", "--all")
	require.NoError(t, err)
	st = statusOf(t, env)
	assert.Zero(t, st.Coins)
	assert.Equal(t, "Ruth", st.PlayerName)

	_, err = executeCmd(t, env, "reset", "--all", "--level", "2")
	assert.Error(t, err)
}

func TestSettingsCommand(t *testing.T) {
	env := testEnv(t)

	out, err := executeCmd(t, env, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "sound            on")

	out, err = executeCmd(t, env, "settings", "sound", "off")
	require.NoError(t, err)
	assert.Contains(t, out, "sound            off")

	out, err = executeCmd(t, env, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "sound            off")

	_, err = executeCmd(t, env, "settings", "volume", "on")
	assert.Error(t, err)
	_, err = executeCmd(t, env, "settings", "sound", "loud")
	assert.ErrorContains(t, err, "want on or off")
}

func TestNotifyCommands(t *testing.T) {
	env := testEnv(t)

	out, err := executeCmd(t, env, "notify", "reminder")
	require.NoError(t, err)
	assert.Contains(t, out, "No reminders scheduled.")

	out, err = executeCmd(t, env, "notify", "reminder", "20:30")
	require.NoError(t, err)
	assert.Contains(t, out, "20:30")

	_, err = executeCmd(t, env, "notify", "reminder", "25:00")
	assert.ErrorContains(t, err, "want HH:MM")

	out, err = executeCmd(t, env, "notify", "prefs", "updates", "off")
	require.NoError(t, err)
	assert.Contains(t, out, "updates          off")
	assert.Contains(t, out, "achievements     on")

	_, err = executeCmd(t, env, "notify", "prefs", "spam", "on")
	assert.ErrorContains(t, err, "unknown preference")

	_, err = executeCmd(t, env, "notify", "cancel")
	require.NoError(t, err)
	out, err = executeCmd(t, env, "notify", "reminder")
	require.NoError(t, err)
	assert.Contains(t, out, "No reminders scheduled.")
}

func TestDemoAndEvents(t *testing.T) {
	env := testEnv(t)

	out, err := executeCmd(t, env, "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "level_almost_complete")
	assert.Contains(t, out, "stage_complete")

	out, err = executeCmd(t, env, "demo", "almost")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded level_almost_complete")
	assert.Contains(t, out, "10/11 books")

	out, err = executeCmd(t, env, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "app_installed")
	assert.Contains(t, out, "app_opened")

	out, err = executeCmd(t, env, "events", "--sync")
	require.NoError(t, err)
	assert.Contains(t, out, "PLAYER METRICS")
	assert.Contains(t, out, "Sessions   3")
}

func TestPersistentFlagsOverrideConfig(t *testing.T) {
	env := testEnv(t)

	_, err := executeCmd(t, env, "--profile", "naomi", "name", "Naomi")
	require.NoError(t, err)

	assert.Equal(t, "Guest", statusOf(t, env).PlayerName)

	out, err := executeCmd(t, env, "--profile", "naomi", "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"playerName": "Naomi"`)

	_, err = executeCmd(t, env, "--backend", "bogus", "status")
	assert.ErrorContains(t, err, "invalid storage backend")
}

func TestServeAddrAppliesOnlyToItsRun(t *testing.T) {
	env := testEnv(t)
	r := &runner{env: env, flags: &flags{}}

	serve := newServeCmd(r)
	require.NoError(t, serve.ParseFlags([]string{"--addr", "127.0.0.1:0"}))
	assert.Equal(t, "127.0.0.1:0", r.config(serve).DevHTTP)
	assert.Equal(t, app.DefaultConfig().DevHTTP, env.Config.DevHTTP)

	status := newStatusCmd(r)
	require.NoError(t, status.ParseFlags(nil))
	assert.Equal(t, app.DefaultConfig().DevHTTP, r.config(status).DevHTTP)
}

func TestCommandsRecordScreensAndActions(t *testing.T) {
	env := testEnv(t)

	_, err := executeCmd(t, env, "status")
	require.NoError(t, err)
	_, err = executeCmd(t, env, "name", "Ruth")
	require.NoError(t, err)

	out, err := executeCmd(t, env, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "screen_view")
	assert.Contains(t, out, "user_action")
}

func TestBookCommand(t *testing.T) {
	env := testEnv(t)

	out, err := executeCmd(t, env, "book", "23")
	require.NoError(t, err)
	assert.Contains(t, out, "Book 23 is Isaiah: Level 3, position 1")
	assert.Contains(t, out, "not found yet")

	_, err = executeCmd(t, env, "tap", "1")
	require.NoError(t, err)
	out, err = executeCmd(t, env, "book", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Genesis")
	assert.NotContains(t, out, "not found")

	_, err = executeCmd(t, env, "book", "67")
	assert.ErrorContains(t, err, "want 1 to 66")
	_, err = executeCmd(t, env, "book", "first")
	assert.Error(t, err)
}
