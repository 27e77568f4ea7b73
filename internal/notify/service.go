package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"biblequest/internal/state"
	"biblequest/internal/telemetry"
)

const (
	KeyPushToken   = "pushToken"
	KeyPreferences = "notificationPreferences"
	KeyPlayerName  = "playerName"
)

const (
	ReminderTitle = "📖 Bible Quest Time!"
	ReminderBody  = "Ready to learn more about God's Word today?"
)

type Preferences struct {
	Enabled         bool `json:"enabled"`
	DailyReminder   bool `json:"dailyReminder"`
	WeeklyChallenge bool `json:"weeklyChallenge"`
	Achievements    bool `json:"achievements"`
	Updates         bool `json:"updates"`
}

func DefaultPreferences() Preferences {
	return Preferences{Enabled: true, DailyReminder: true, WeeklyChallenge: true, Achievements: true, Updates: true}
}

// Reminder is a repeating local notification fired every day at Hour:Minute.
type Reminder struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Kind   string `json:"type"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

// Scheduler owns local notifications on the device.
type Scheduler interface {
	Schedule(ctx context.Context, r Reminder) (string, error)
	CancelAll(ctx context.Context) error
	Scheduled(ctx context.Context) ([]Reminder, error)
}

type Sender interface {
	Post(ctx context.Context, path string, body any) error
	Put(ctx context.Context, path string, body any) error
}

type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type Service struct {
	kv        state.KV
	scheduler Scheduler
	sender    Sender
	logger    Logger
	now       func() time.Time
}

func New(kv state.KV, scheduler Scheduler, sender Sender, logger Logger) *Service {
	if logger == nil {
		logger = telemetry.Discard()
	}
	return &Service{kv: kv, scheduler: scheduler, sender: sender, logger: logger, now: time.Now}
}

// RegisterDevice stores the push token and announces it to the backend.
// A backend failure is logged; the token stays saved.
func (s *Service) RegisterDevice(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("register device: empty push token")
	}
	if err := s.kv.Set(ctx, KeyPushToken, token); err != nil {
		return fmt.Errorf("save push token: %w", err)
	}
	if s.sender == nil {
		return nil
	}
	var userID any
	if v, ok, err := s.kv.Get(ctx, KeyPlayerName); err == nil && ok {
		userID = v
	}
	body := map[string]any{
		"token":      token,
		"userId":     userID,
		"platform":   runtime.GOOS,
		"deviceName": runtime.GOARCH,
		"osVersion":  runtime.Version(),
		"timestamp":  s.now().UTC().Format(time.RFC3339),
	}
	if err := s.sender.Post(ctx, "/register-device", body); err != nil {
		s.logger.Error("notify.register_failed", map[string]any{"error": err.Error()})
		return nil
	}
	s.logger.Info("notify.registered", nil)
	return nil
}

func (s *Service) PushToken(ctx context.Context) (string, bool, error) {
	return s.kv.Get(ctx, KeyPushToken)
}

// Preferences falls back to all-enabled when nothing valid is stored.
func (s *Service) Preferences(ctx context.Context) (Preferences, error) {
	raw, ok, err := s.kv.Get(ctx, KeyPreferences)
	if err != nil {
		return Preferences{}, err
	}
	if !ok {
		return DefaultPreferences(), nil
	}
	p := DefaultPreferences()
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("notify.preferences_malformed", map[string]any{"error": err.Error()})
		return DefaultPreferences(), nil
	}
	return p, nil
}

func (s *Service) SavePreferences(ctx context.Context, p Preferences) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyPreferences, string(b)); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	if s.sender == nil {
		return nil
	}
	var token any
	if v, ok, err := s.PushToken(ctx); err == nil && ok {
		token = v
	}
	if err := s.sender.Put(ctx, "/notification-preferences", map[string]any{"token": token, "preferences": p}); err != nil {
		s.logger.Error("notify.preferences_sync_failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// ScheduleDailyReminder replaces every scheduled notification with one daily
// reminder.
func (s *Service) ScheduleDailyReminder(ctx context.Context, hour, minute int) (Reminder, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Reminder{}, fmt.Errorf("invalid reminder time %02d:%02d", hour, minute)
	}
	if err := s.scheduler.CancelAll(ctx); err != nil {
		return Reminder{}, fmt.Errorf("cancel reminders: %w", err)
	}
	r := Reminder{Title: ReminderTitle, Body: ReminderBody, Kind: "daily_reminder", Hour: hour, Minute: minute}
	id, err := s.scheduler.Schedule(ctx, r)
	if err != nil {
		return Reminder{}, fmt.Errorf("schedule reminder: %w", err)
	}
	r.ID = id
	s.logger.Info("notify.reminder_scheduled", map[string]any{"id": id, "hour": hour, "minute": minute})
	return r, nil
}

func (s *Service) CancelAll(ctx context.Context) error {
	return s.scheduler.CancelAll(ctx)
}

func (s *Service) Scheduled(ctx context.Context) ([]Reminder, error) {
	return s.scheduler.Scheduled(ctx)
}

// NextOccurrence is the first time at or after from that reads hour:minute
// in from's location.
func NextOccurrence(from time.Time, hour, minute int) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())
	if next.Before(from) {
		next = time.Date(from.Year(), from.Month(), from.Day()+1, hour, minute, 0, 0, from.Location())
	}
	return next
}
