package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblequest/internal/state"
)

// gatedKV holds reads of one key until released.
type gatedKV struct {
	*state.MemoryStore
	key     string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedKV) Get(ctx context.Context, key string) (string, bool, error) {
	if key == g.key {
		g.once.Do(func() { close(g.entered) })
		<-g.release
	}
	return g.MemoryStore.Get(ctx, key)
}

func TestSameKeyWritesLandInOrderAndCoalesce(t *testing.T) {
	ctx := context.Background()
	kv := state.NewMemory()
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	kv.OnWrite(func(op state.Op) {
		if op.Key != KeyTotalCoins {
			return
		}
		first := false
		once.Do(func() { first = true })
		if first {
			close(entered)
			<-release
		}
	})
	s := newTestStore(t, kv)

	require.NoError(t, s.SetCoins(5))
	<-entered
	// The first write is stuck in flight; these queue behind it.
	require.NoError(t, s.SetCoins(7))
	require.NoError(t, s.SetCoins(9))
	close(release)
	require.NoError(t, s.Flush(ctx))

	v, ok, err := kv.Get(ctx, KeyTotalCoins)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "9", v)

	var written []string
	for _, op := range kv.Ops() {
		if op.Key == KeyTotalCoins {
			written = append(written, op.Value)
		}
	}
	assert.Equal(t, []string{"5", "9"}, written)
}

func TestRapidTapsPersistLatestStage(t *testing.T) {
	ctx := context.Background()
	kv := state.NewMemory()
	s := newTestStore(t, kv)

	var wg sync.WaitGroup
	for i := 0; i < 11; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Tap(0, i)
		}()
	}
	wg.Wait()
	require.NoError(t, s.Flush(ctx))

	assert.Equal(t, int64(10), s.Coins())
	fresh := newTestStore(t, kv)
	require.NoError(t, fresh.LoadFromStorage(ctx))
	assert.Equal(t, s.Snapshot(), fresh.Snapshot())
}

func TestLoadKeepsMutationMadeWhileReading(t *testing.T) {
	ctx := context.Background()
	mem := state.NewMemory()
	mem.Seed(map[string]string{
		KeyPlayerName: "Ruth",
		KeyTotalCoins: "100",
	})
	kv := &gatedKV{MemoryStore: mem, key: KeyTotalCoins, entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestStore(t, kv)

	done := make(chan error, 1)
	go func() { done <- s.LoadFromStorage(ctx) }()

	<-kv.entered
	require.NoError(t, s.SetCoins(3))
	close(kv.release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("load did not finish")
	}
	assert.Equal(t, int64(3), s.Coins())
	assert.Equal(t, "Ruth", s.PlayerName())

	require.NoError(t, s.Flush(ctx))
	v, _, _ := mem.Get(ctx, KeyTotalCoins)
	assert.Equal(t, "3", v)
}

func TestLoadSeesWritesQueuedBeforeIt(t *testing.T) {
	ctx := context.Background()
	kv := state.NewMemory()
	s := newTestStore(t, kv)

	_, err := s.AddCoins(12)
	require.NoError(t, err)
	require.NoError(t, s.LoadFromStorage(ctx))
	assert.Equal(t, int64(12), s.Coins())
}

func TestFlushHonoursContext(t *testing.T) {
	kv := state.NewMemory()
	release := make(chan struct{})
	kv.OnWrite(func(state.Op) { <-release })
	s := New(kv, builtinTable(t))
	defer func() {
		close(release)
		_ = s.Close(context.Background())
	}()

	require.NoError(t, s.SetPlayerName("Ada"))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)
	assert.Equal(t, "Ada", s.PlayerName())
}
