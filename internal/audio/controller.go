package audio

import (
	"context"
	"sync"
	"time"

	"biblequest/internal/telemetry"
)

type Player interface {
	Play(ctx context.Context, cue Cue) error
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop(ctx context.Context) error
}

type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
}

// Controller fires cues and speech without blocking the caller. Failures
// are logged and otherwise ignored.
type Controller struct {
	player  Player
	speaker Speaker
	logger  Logger
	timeout time.Duration

	mu      sync.Mutex
	muted   bool
	speech  bool
	said    uint64
	speakMu sync.Mutex

	wg sync.WaitGroup
}

func NewController(player Player, speaker Speaker, logger Logger) *Controller {
	if logger == nil {
		logger = telemetry.Discard()
	}
	return &Controller{
		player:  player,
		speaker: speaker,
		logger:  logger,
		timeout: 10 * time.Second,
		speech:  true,
	}
}

func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()
}

func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// SetSpeechEnabled toggles speech. Disabling it also stops anything
// currently being spoken.
func (c *Controller) SetSpeechEnabled(enabled bool) {
	c.mu.Lock()
	c.speech = enabled
	c.mu.Unlock()
	if !enabled && c.speaker != nil {
		c.async(func(ctx context.Context) {
			if err := c.speaker.Stop(ctx); err != nil {
				c.logger.Warn("audio.speech_stop_failed", map[string]any{"error": err.Error()})
			}
		})
	}
}

func (c *Controller) SpeechEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speech
}

func (c *Controller) Play(cue Cue) {
	if c.player == nil || c.Muted() {
		return
	}
	c.async(func(ctx context.Context) {
		if err := c.player.Play(ctx, cue); err != nil {
			c.logger.Warn("audio.play_failed", map[string]any{"cue": string(cue), "error": err.Error()})
		}
	})
}

func (c *Controller) SpeakBook(name string, ordinal int) {
	c.Say(BookSpeech(name, ordinal))
}

// Say interrupts any speech in progress and reads text. When several calls
// queue up, only the most recent one is spoken.
func (c *Controller) Say(text string) {
	if c.speaker == nil {
		return
	}
	c.mu.Lock()
	if !c.speech {
		c.mu.Unlock()
		return
	}
	c.said++
	seq := c.said
	c.mu.Unlock()

	c.async(func(ctx context.Context) {
		c.speakMu.Lock()
		defer c.speakMu.Unlock()
		if !c.latest(seq) {
			return
		}
		if err := c.speaker.Stop(ctx); err != nil {
			c.logger.Warn("audio.speech_stop_failed", map[string]any{"error": err.Error()})
		}
		if err := c.speaker.Speak(ctx, text); err != nil {
			c.logger.Warn("audio.speak_failed", map[string]any{"error": err.Error()})
		}
	})
}

func (c *Controller) latest(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.said == seq
}

// Wait blocks until every cue and utterance fired so far has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) async(fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		fn(ctx)
	}()
}
