package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblequest/internal/progress"
	"biblequest/internal/puzzle"
	"biblequest/internal/state"
)

type post struct {
	path string
	body any
}

type fakeSender struct {
	mu    sync.Mutex
	posts []post
	err   error
}

func (f *fakeSender) Post(_ context.Context, path string, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, post{path: path, body: body})
	return f.err
}

func (f *fakeSender) all() []post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]post(nil), f.posts...)
}

func fixedClock() func() time.Time {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestTrackInstallOnlyOnce(t *testing.T) {
	ctx := context.Background()
	kv := state.NewMemory()
	sender := &fakeSender{}
	tr := New(kv, sender, WithClock(fixedClock()))

	first, err := tr.TrackInstall(ctx)
	require.NoError(t, err)
	assert.True(t, first)
	again, err := tr.TrackInstall(ctx)
	require.NoError(t, err)
	assert.False(t, again)

	v, ok, _ := kv.Get(ctx, KeyInstallDate)
	require.True(t, ok)
	assert.Equal(t, "2026-03-01T09:30:00.000Z", v)

	events, err := tr.LocalEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "app_installed", events[0].EventName)
}

func TestInstallEventCarriesAppVersion(t *testing.T) {
	ctx := context.Background()
	tr := New(state.NewMemory(), nil, WithClock(fixedClock()), WithAppVersion("2.3.4"))

	_, err := tr.TrackInstall(ctx)
	require.NoError(t, err)

	events, err := tr.LocalEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "2.3.4", events[0].Properties["appVersion"])
}

func TestTrackAppOpenCountsSessions(t *testing.T) {
	ctx := context.Background()
	kv := state.NewMemory()
	tr := New(kv, nil, WithClock(fixedClock()))

	for want := 1; want <= 3; want++ {
		n, err := tr.TrackAppOpen(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	v, _, _ := kv.Get(ctx, KeySessionsCount)
	assert.Equal(t, "3", v)
	_, ok, _ := kv.Get(ctx, KeyLastActiveDate)
	assert.True(t, ok)
}

func TestLocalBufferKeepsLastHundred(t *testing.T) {
	ctx := context.Background()
	tr := New(state.NewMemory(), nil)

	for i := 0; i < LocalEventLimit+5; i++ {
		tr.TrackEvent(ctx, fmt.Sprintf("e%d", i), nil)
	}
	events, err := tr.LocalEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, LocalEventLimit)
	assert.Equal(t, "e5", events[0].EventName)
	assert.Equal(t, "e104", events[len(events)-1].EventName)
}

func TestTrackEventSendsEnvelope(t *testing.T) {
	ctx := context.Background()
	kv := state.NewMemory()
	kv.Seed(map[string]string{KeyPushToken: "tok-1"})
	sender := &fakeSender{}
	tr := New(kv, sender, WithClock(fixedClock()))

	tr.TrackUserAction(ctx, "share", map[string]any{"target": "friend"})
	posts := sender.all()
	require.Len(t, posts, 1)
	assert.Equal(t, "/events", posts[0].path)

	body := posts[0].body.(map[string]any)
	assert.Equal(t, "tok-1", body["pushToken"])
	assert.NotEmpty(t, body["userId"])
	ev := body["event"].(Event)
	assert.Equal(t, "user_action", ev.EventName)
	assert.Equal(t, "share", ev.Properties["action"])
	assert.Equal(t, "friend", ev.Properties["target"])
	assert.Equal(t, "2026-03-01T09:30:00.000Z", ev.Timestamp)
}

func TestAnonymousIDIsStable(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	tr := New(state.NewMemory(), sender)

	tr.TrackScreenView(ctx, "home")
	tr.TrackScreenView(ctx, "settings")
	posts := sender.all()
	require.Len(t, posts, 2)
	first := posts[0].body.(map[string]any)["userId"]
	second := posts[1].body.(map[string]any)["userId"]
	assert.Equal(t, first, second)
}

func TestSendFailureStillBuffersLocally(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{err: errors.New("offline")}
	tr := New(state.NewMemory(), sender)

	tr.TrackGameCompletion(ctx, "books", 1, 60)
	events, err := tr.LocalEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "game_completed", events[0].EventName)
}

func TestEmitIsAwaitedByClose(t *testing.T) {
	sender := &fakeSender{}
	tr := New(state.NewMemory(), sender)

	tr.Emit("progress_reset", nil)
	tr.Emit("settings_changed", map[string]any{"setting": "sound", "value": false})
	tr.Close()
	assert.Len(t, sender.all(), 2)
}

func TestUserMetricsFromProgress(t *testing.T) {
	ctx := context.Background()
	tbl, err := puzzle.Builtin()
	require.NoError(t, err)
	store := progress.New(state.NewMemory(), tbl)
	defer func() { _ = store.Close(ctx) }()
	require.NoError(t, store.SetPlayerName("Ruth"))
	for i := 0; i < 11; i++ {
		_, err := store.Reveal(0, i)
		require.NoError(t, err)
	}
	_, err = store.NextLevel()
	require.NoError(t, err)

	kv := state.NewMemory()
	kv.Seed(map[string]string{KeyInstallDate: "2026-01-01T00:00:00.000Z", KeySessionsCount: "4"})
	sender := &fakeSender{}
	tr := New(kv, sender, WithProgress(store), WithClock(fixedClock()))

	m, err := tr.UserMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ruth", m.UserID)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", m.InstallDate)
	assert.Equal(t, "2026-03-01T09:30:00.000Z", m.LastActiveDate)
	assert.Equal(t, 4, m.SessionsCount)
	assert.Equal(t, 1, m.GamesCompleted)
	assert.Equal(t, 1, m.CurrentLevel)
	assert.Equal(t, int64(10), m.Coins)

	require.NoError(t, tr.SyncUserMetrics(ctx))
	posts := sender.all()
	require.Len(t, posts, 1)
	assert.Equal(t, "/user-metrics", posts[0].path)
}
