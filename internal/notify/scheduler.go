package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"biblequest/internal/state"
)

// KeyScheduled holds the reminders scheduled through a KVScheduler.
const KeyScheduled = "scheduledNotifications"

// KVScheduler keeps scheduled reminders in the KV store. Delivery is left
// to whatever reads them back.
type KVScheduler struct {
	kv state.KV
}

func NewKVScheduler(kv state.KV) *KVScheduler {
	return &KVScheduler{kv: kv}
}

func (s *KVScheduler) Schedule(ctx context.Context, r Reminder) (string, error) {
	list, err := s.Scheduled(ctx)
	if err != nil {
		return "", err
	}
	r.ID = uuid.NewString()
	list = append(list, r)
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, KeyScheduled, string(b)); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *KVScheduler) CancelAll(ctx context.Context) error {
	return s.kv.Remove(ctx, KeyScheduled)
}

func (s *KVScheduler) Scheduled(ctx context.Context) ([]Reminder, error) {
	raw, ok, err := s.kv.Get(ctx, KeyScheduled)
	if err != nil || !ok {
		return nil, err
	}
	var list []Reminder
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode scheduled reminders: %w", err)
	}
	return list, nil
}
