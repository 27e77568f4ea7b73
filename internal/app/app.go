package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"biblequest/internal/analytics"
	"biblequest/internal/audio"
	"biblequest/internal/backend"
	"biblequest/internal/devtools"
	"biblequest/internal/notify"
	"biblequest/internal/progress"
	"biblequest/internal/puzzle"
	"biblequest/internal/settings"
	"biblequest/internal/state"
	"biblequest/internal/telemetry"
)

// Version is stamped at build time with -ldflags "-X biblequest/internal/app.Version=...".
var Version = "1.0.0"

type App struct {
	cfg Config

	logger    *telemetry.Logger
	kv        state.Store
	table     *puzzle.Table
	progress  *progress.Store
	audio     *audio.Controller
	analytics *analytics.Tracker
	notify    *notify.Service
	settings  *settings.Manager
	demo      devtools.Demo

	sessionID string

	devMu     sync.Mutex
	devServer *http.Server
	devState  struct {
		State string
		Demo  string
		Error string
	}
}

type Option func(*options)

type options struct {
	output Output
	kv     state.Store
}

// WithOutput routes cues and speech to out. Without it the game is silent.
func WithOutput(out Output) Option { return func(o *options) { o.output = out } }

// WithStore replaces the configured storage backend.
func WithStore(kv state.Store) Option { return func(o *options) { o.kv = kv } }

func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	table, err := puzzle.Load(cfg.ContentPath)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	kv := o.kv
	if kv == nil {
		kv, err = openStore(ctx, cfg)
		if err != nil {
			_ = logger.Close()
			return nil, err
		}
	}
	if err := kv.EnsureSchema(ctx); err != nil {
		_ = kv.Close()
		_ = logger.Close()
		return nil, err
	}

	store := progress.New(kv, table,
		progress.WithLogger(logger),
		progress.WithCoinsPerLevel(cfg.CoinsPerLevel),
		progress.WithInteractionCap(cfg.InteractionCap),
		progress.WithWriteTimeout(cfg.WriteTimeout),
	)

	var player audio.Player
	var speaker audio.Speaker
	if o.output != nil {
		player, speaker = o.output, o.output
	}
	sound := audio.NewController(player, speaker, logger)

	tracker := analytics.New(kv,
		backend.New(cfg.AnalyticsURL, backend.WithCompression(cfg.Compress)),
		analytics.WithProgress(store),
		analytics.WithLogger(logger),
		analytics.WithAppVersion(Version),
	)
	notifier := notify.New(kv,
		notify.NewKVScheduler(kv),
		backend.New(cfg.NotificationsURL, backend.WithCompression(cfg.Compress)),
		logger,
	)
	prefs := settings.NewManager(kv,
		settings.WithEvents(tracker),
		settings.WithAudio(sound),
		settings.WithReminders(reminders{notifier}, cfg.ReminderHour, cfg.ReminderMinute),
		settings.WithLogger(logger),
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		kv:        kv,
		table:     table,
		progress:  store,
		audio:     sound,
		analytics: tracker,
		notify:    notifier,
		settings:  prefs,
		demo:      devtools.NewManager(),
		sessionID: uuid.NewString(),
	}, nil
}

func openStore(ctx context.Context, cfg Config) (state.Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return state.NewMemory(), nil
	case BackendPostgres:
		return state.NewPostgres(ctx, cfg.PostgresDSN, cfg.Profile)
	default:
		return state.NewSQLite(cfg.StatePath())
	}
}

// Start loads saved progress and settings and records the session. With
// Dev set it also serves the dev HTTP endpoint.
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{"session": a.sessionID, "backend": a.cfg.Backend, "profile": a.cfg.Profile})

	if err := a.progress.LoadFromStorage(ctx); err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	if _, err := a.settings.Apply(ctx); err != nil {
		a.logger.Warn("settings.apply_failed", map[string]any{"error": err.Error()})
	}
	if _, err := a.analytics.TrackInstall(ctx); err != nil {
		a.logger.Warn("analytics.install_failed", map[string]any{"error": err.Error()})
	}
	if _, err := a.analytics.TrackAppOpen(ctx); err != nil {
		a.logger.Warn("analytics.open_failed", map[string]any{"error": err.Error()})
	}

	if a.cfg.Dev {
		if err := a.startDevHTTP(); err != nil {
			return err
		}
		if a.cfg.DemoScenario != "" {
			if _, err := a.ApplyDemo(ctx, a.cfg.DemoScenario); err != nil {
				a.logger.Error("dev.demo.initial_failed", map[string]any{"demo": a.cfg.DemoScenario, "error": err.Error()})
			}
		} else {
			a.setDevState("ready", "", "")
		}
	}
	return nil
}

// Close flushes progress, waits for background cues and events and releases
// storage.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.devMu.Lock()
	srv := a.devServer
	a.devMu.Unlock()
	if srv != nil {
		_ = srv.Shutdown(ctx)
	}
	if err := a.progress.Close(ctx); err != nil {
		a.logger.Error("progress.close_failed", map[string]any{"error": err.Error()})
	}
	a.audio.Wait()
	a.analytics.Close()
	_ = a.kv.Close()
	a.logger.Info("app.stop", map[string]any{"session": a.sessionID})
	_ = a.logger.Close()
}

func (a *App) Config() Config                 { return a.cfg }
func (a *App) Progress() *progress.Store      { return a.progress }
func (a *App) Table() *puzzle.Table           { return a.table }
func (a *App) Analytics() *analytics.Tracker  { return a.analytics }
func (a *App) Notifications() *notify.Service { return a.notify }
func (a *App) Settings() *settings.Manager    { return a.settings }
func (a *App) Audio() *audio.Controller       { return a.audio }

// ApplyDemo drives the progress store into a named devtools scenario.
func (a *App) ApplyDemo(ctx context.Context, name string) (string, error) {
	sc, err := a.demo.Apply(ctx, a.progress, name)
	if err != nil {
		a.setDevState("error", sc.Name, err.Error())
		return sc.Name, err
	}
	a.setDevState(sc.Name, name, "")
	if a.cfg.Dev {
		if err := a.demo.SetState(ctx, "", sc.Name, true); err != nil {
			a.logger.Warn("dev_state.write_failed", map[string]any{"state": sc.Name, "error": err.Error()})
		}
	}
	a.logger.Info("dev.demo.applied", map[string]any{"demo": name, "resolved": sc.Name})
	return sc.Name, nil
}

type reminders struct{ svc *notify.Service }

func (r reminders) ScheduleDailyReminder(ctx context.Context, hour, minute int) error {
	_, err := r.svc.ScheduleDailyReminder(ctx, hour, minute)
	return err
}

