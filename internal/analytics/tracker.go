package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"biblequest/internal/progress"
	"biblequest/internal/state"
	"biblequest/internal/telemetry"
)

// Storage keys owned by the tracker. KeyPushToken is written by the
// notification service and only read here.
const (
	KeyInstallDate    = "installDate"
	KeySessionsCount  = "sessionsCount"
	KeyLastActiveDate = "lastActiveDate"
	KeyLocalEvents    = "localEvents"
	KeyAnonymousID    = "anonymousId"
	KeyPushToken      = "pushToken"

	// LocalEventLimit is how many events are kept on the device.
	LocalEventLimit = 100
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type Event struct {
	EventName  string         `json:"eventName"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  string         `json:"timestamp"`
}

type DeviceInfo struct {
	Platform   string `json:"platform"`
	Model      string `json:"model"`
	OSVersion  string `json:"osVersion"`
	AppVersion string `json:"appVersion"`
}

type UserMetrics struct {
	UserID         string     `json:"userId"`
	InstallDate    string     `json:"installDate"`
	LastActiveDate string     `json:"lastActiveDate"`
	SessionsCount  int        `json:"sessionsCount"`
	TotalPlayTime  int        `json:"totalPlayTime"`
	GamesCompleted int        `json:"gamesCompleted"`
	CurrentLevel   int        `json:"currentLevel"`
	Coins          int64      `json:"coins"`
	DeviceInfo     DeviceInfo `json:"deviceInfo"`
}

// Sender delivers JSON documents to the analytics backend.
type Sender interface {
	Post(ctx context.Context, path string, body any) error
}

// ProgressSource is the slice of the progress store the tracker reports on.
type ProgressSource interface {
	Snapshot() progress.Snapshot
	CompletedLevels() []int
}

type Logger interface {
	Debug(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type Tracker struct {
	kv         state.KV
	sender     Sender
	source     ProgressSource
	logger     Logger
	now        func() time.Time
	appVersion string

	// mu serializes read-modify-write cycles on tracker keys.
	mu sync.Mutex
	wg sync.WaitGroup
}

type Option func(*Tracker)

func WithProgress(src ProgressSource) Option { return func(t *Tracker) { t.source = src } }

func WithLogger(l Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }

func WithAppVersion(v string) Option { return func(t *Tracker) { t.appVersion = v } }

func New(kv state.KV, sender Sender, opts ...Option) *Tracker {
	t := &Tracker{
		kv:         kv,
		sender:     sender,
		logger:     telemetry.Discard(),
		now:        time.Now,
		appVersion: "1.0.0",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) stamp() string { return t.now().UTC().Format(timeLayout) }

func (t *Tracker) device() DeviceInfo {
	return DeviceInfo{Platform: runtime.GOOS, Model: runtime.GOARCH, OSVersion: runtime.Version(), AppVersion: t.appVersion}
}

// TrackInstall records the install date on first run and reports whether
// this call was the first run.
func (t *Tracker) TrackInstall(ctx context.Context) (bool, error) {
	t.mu.Lock()
	_, ok, err := t.kv.Get(ctx, KeyInstallDate)
	if err == nil && !ok {
		err = t.kv.Set(ctx, KeyInstallDate, t.stamp())
	}
	t.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("track install: %w", err)
	}
	if ok {
		return false, nil
	}
	d := t.device()
	t.TrackEvent(ctx, "app_installed", map[string]any{
		"platform":    d.Platform,
		"deviceModel": d.Model,
		"osVersion":   d.OSVersion,
		"appVersion":  d.AppVersion,
	})
	return true, nil
}

// TrackAppOpen bumps the session counter and returns the new session number.
func (t *Tracker) TrackAppOpen(ctx context.Context) (int, error) {
	t.mu.Lock()
	n, err := t.sessionsLocked(ctx)
	if err == nil {
		n++
		err = t.kv.Set(ctx, KeySessionsCount, strconv.Itoa(n))
	}
	t.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("track app open: %w", err)
	}

	t.TrackEvent(ctx, "app_opened", map[string]any{"sessionNumber": n, "platform": runtime.GOOS})
	if err := t.kv.Set(ctx, KeyLastActiveDate, t.stamp()); err != nil {
		t.logger.Warn("analytics.last_active_failed", map[string]any{"error": err.Error()})
	}
	return n, nil
}

// TrackEvent stores the event locally, then sends it. Failures on either
// side are logged.
func (t *Tracker) TrackEvent(ctx context.Context, name string, props map[string]any) {
	ts := t.stamp()
	p := maps.Clone(props)
	if p == nil {
		p = map[string]any{}
	}
	p["timestamp"] = ts
	p["platform"] = runtime.GOOS
	ev := Event{EventName: name, Properties: p, Timestamp: ts}

	if err := t.saveLocally(ctx, ev); err != nil {
		t.logger.Warn("analytics.save_local_failed", map[string]any{"event": name, "error": err.Error()})
	}
	if t.sender == nil {
		return
	}
	body := map[string]any{
		"userId":    t.userID(ctx),
		"pushToken": t.optional(ctx, KeyPushToken),
		"event":     ev,
	}
	if err := t.sender.Post(ctx, "/events", body); err != nil {
		t.logger.Error("analytics.send_failed", map[string]any{"event": name, "error": err.Error()})
		return
	}
	t.logger.Debug("analytics.sent", map[string]any{"event": name})
}

// Emit tracks in the background. Close waits for outstanding emits.
func (t *Tracker) Emit(name string, props map[string]any) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		t.TrackEvent(ctx, name, props)
	}()
}

func (t *Tracker) Close() {
	t.wg.Wait()
}

func (t *Tracker) TrackScreenView(ctx context.Context, screen string) {
	t.TrackEvent(ctx, "screen_view", map[string]any{"screenName": screen})
}

func (t *Tracker) TrackGameCompletion(ctx context.Context, mode string, stage int, score int64) {
	t.TrackEvent(ctx, "game_completed", map[string]any{"gameMode": mode, "stageNumber": stage, "score": score})
}

func (t *Tracker) TrackUserAction(ctx context.Context, action string, details map[string]any) {
	p := maps.Clone(details)
	if p == nil {
		p = map[string]any{}
	}
	p["action"] = action
	t.TrackEvent(ctx, "user_action", p)
}

func (t *Tracker) saveLocally(ctx context.Context, ev Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	events, err := t.localEventsLocked(ctx)
	if err != nil {
		// A corrupt buffer is replaced.
		t.logger.Warn("analytics.local_events_reset", map[string]any{"error": err.Error()})
		events = nil
	}
	events = append(events, ev)
	if len(events) > LocalEventLimit {
		events = events[len(events)-LocalEventLimit:]
	}
	b, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return t.kv.Set(ctx, KeyLocalEvents, string(b))
}

// LocalEvents returns the buffered events, oldest first.
func (t *Tracker) LocalEvents(ctx context.Context) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.localEventsLocked(ctx)
}

func (t *Tracker) localEventsLocked(ctx context.Context) ([]Event, error) {
	raw, ok, err := t.kv.Get(ctx, KeyLocalEvents)
	if err != nil || !ok {
		return nil, err
	}
	var events []Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, fmt.Errorf("decode local events: %w", err)
	}
	return events, nil
}

func (t *Tracker) sessionsLocked(ctx context.Context) (int, error) {
	raw, ok, err := t.kv.Get(ctx, KeySessionsCount)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// UserMetrics summarizes the player for the metrics endpoint.
func (t *Tracker) UserMetrics(ctx context.Context) (UserMetrics, error) {
	t.mu.Lock()
	sessions, err := t.sessionsLocked(ctx)
	t.mu.Unlock()
	if err != nil {
		return UserMetrics{}, err
	}
	now := t.stamp()
	m := UserMetrics{
		UserID:         t.userID(ctx),
		InstallDate:    now,
		LastActiveDate: now,
		SessionsCount:  sessions,
		DeviceInfo:     t.device(),
	}
	if v, ok := t.optional(ctx, KeyInstallDate).(string); ok {
		m.InstallDate = v
	}
	if v, ok := t.optional(ctx, KeyLastActiveDate).(string); ok {
		m.LastActiveDate = v
	}
	if t.source != nil {
		snap := t.source.Snapshot()
		m.CurrentLevel = snap.Stage.CurrentLevel
		m.Coins = snap.Coins
		m.GamesCompleted = len(t.source.CompletedLevels())
	}
	return m, nil
}

func (t *Tracker) SyncUserMetrics(ctx context.Context) error {
	m, err := t.UserMetrics(ctx)
	if err != nil {
		return fmt.Errorf("sync user metrics: %w", err)
	}
	if t.sender == nil {
		return nil
	}
	body := struct {
		UserMetrics
		PushToken any `json:"pushToken"`
	}{UserMetrics: m, PushToken: t.optional(ctx, KeyPushToken)}
	if err := t.sender.Post(ctx, "/user-metrics", body); err != nil {
		t.logger.Error("analytics.metrics_failed", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}

// userID prefers the player's chosen name and falls back to a stable
// anonymous id.
func (t *Tracker) userID(ctx context.Context) string {
	if t.source != nil {
		if name := t.source.Snapshot().PlayerName; name != "" && name != progress.DefaultPlayerName {
			return name
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok, err := t.kv.Get(ctx, KeyAnonymousID)
	if err == nil && ok && id != "" {
		return id
	}
	id = uuid.NewString()
	if err := t.kv.Set(ctx, KeyAnonymousID, id); err != nil {
		t.logger.Warn("analytics.anonymous_id_failed", map[string]any{"error": err.Error()})
	}
	return id
}

// optional returns the stored string or nil, so absent values encode as null.
func (t *Tracker) optional(ctx context.Context, key string) any {
	v, ok, err := t.kv.Get(ctx, key)
	if err != nil || !ok {
		return nil
	}
	return v
}
