package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"biblequest/internal/state"
	"biblequest/internal/telemetry"
)

const KeyGameSettings = "gameSettings"

const (
	Notifications = "notifications"
	Sound         = "sound"
	Music         = "music"
	DailyReminder = "dailyReminder"
)

var ErrUnknownSetting = errors.New("unknown setting")

// Settings are the player's toggles. Missing values read as enabled.
type Settings struct {
	Notifications bool `json:"notifications"`
	Sound         bool `json:"sound"`
	Music         bool `json:"music"`
	DailyReminder bool `json:"dailyReminder"`
}

func Defaults() Settings {
	return Settings{Notifications: true, Sound: true, Music: true, DailyReminder: true}
}

// Get returns the toggle named key.
func (s Settings) Get(key string) (bool, error) {
	switch key {
	case Notifications:
		return s.Notifications, nil
	case Sound:
		return s.Sound, nil
	case Music:
		return s.Music, nil
	case DailyReminder:
		return s.DailyReminder, nil
	}
	return false, fmt.Errorf("%w %q", ErrUnknownSetting, key)
}

func (s *Settings) set(key string, v bool) error {
	switch key {
	case Notifications:
		s.Notifications = v
	case Sound:
		s.Sound = v
	case Music:
		s.Music = v
	case DailyReminder:
		s.DailyReminder = v
	default:
		return fmt.Errorf("%w %q", ErrUnknownSetting, key)
	}
	return nil
}

func Keys() []string {
	keys := []string{Notifications, Sound, Music, DailyReminder}
	sort.Strings(keys)
	return keys
}

// Events records player actions.
type Events interface {
	TrackUserAction(ctx context.Context, action string, details map[string]any)
}

type Audio interface {
	SetMuted(muted bool)
}

type Reminders interface {
	ScheduleDailyReminder(ctx context.Context, hour, minute int) error
}

type Logger interface {
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type Manager struct {
	kv     state.KV
	logger Logger

	events    Events
	audio     Audio
	reminders Reminders
	hour      int
	minute    int

	mu sync.Mutex
}

type Option func(*Manager)

func WithEvents(e Events) Option { return func(m *Manager) { m.events = e } }

func WithAudio(a Audio) Option { return func(m *Manager) { m.audio = a } }

// WithReminders schedules the daily reminder at hour:minute whenever
// notifications are switched on.
func WithReminders(r Reminders, hour, minute int) Option {
	return func(m *Manager) {
		m.reminders, m.hour, m.minute = r, hour, minute
	}
}

func WithLogger(l Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewManager(kv state.KV, opts ...Option) *Manager {
	m := &Manager{kv: kv, logger: telemetry.Discard(), hour: 9}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Load(ctx context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx)
}

func (m *Manager) loadLocked(ctx context.Context) (Settings, error) {
	s := Defaults()
	raw, ok, err := m.kv.Get(ctx, KeyGameSettings)
	if err != nil {
		return s, fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return s, nil
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		m.logger.Warn("settings.malformed", map[string]any{"error": err.Error()})
		return Defaults(), nil
	}
	return s, nil
}

// Apply pushes stored settings into the audio controller. Run once at start.
func (m *Manager) Apply(ctx context.Context) (Settings, error) {
	s, err := m.Load(ctx)
	if err != nil {
		return s, err
	}
	if m.audio != nil {
		m.audio.SetMuted(!s.Sound)
	}
	return s, nil
}

// Set changes one toggle, persists the merged settings and runs its side
// effects.
func (m *Manager) Set(ctx context.Context, key string, value bool) (Settings, error) {
	m.mu.Lock()
	s, err := m.loadLocked(ctx)
	if err != nil {
		m.mu.Unlock()
		return s, err
	}
	if err := s.set(key, value); err != nil {
		m.mu.Unlock()
		return s, err
	}
	b, err := json.Marshal(s)
	if err == nil {
		err = m.kv.Set(ctx, KeyGameSettings, string(b))
	}
	m.mu.Unlock()
	if err != nil {
		return s, fmt.Errorf("save settings: %w", err)
	}

	if m.events != nil {
		m.events.TrackUserAction(ctx, "settings_changed", map[string]any{"setting": key, "value": value})
	}
	switch key {
	case Sound:
		if m.audio != nil {
			m.audio.SetMuted(!value)
		}
	case Notifications:
		if value && m.reminders != nil {
			if err := m.reminders.ScheduleDailyReminder(ctx, m.hour, m.minute); err != nil {
				m.logger.Error("settings.reminder_failed", map[string]any{"error": err.Error()})
			}
		}
	}
	return s, nil
}
