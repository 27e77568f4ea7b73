package audio

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu     sync.Mutex
	cues   []Cue
	spoken []string
	stops  int
	err    error
}

func (r *recorder) Play(_ context.Context, cue Cue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
	return r.err
}

func (r *recorder) Speak(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
	return r.err
}

func (r *recorder) Stop(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	return nil
}

func TestBookSpeechRewritesNumberedBooks(t *testing.T) {
	assert.Equal(t, "This is the book of First Kings. Book number 11.", BookSpeech("1 Kings", 11))
	assert.Equal(t, "This is the book of Second Timothy. Book number 55.", BookSpeech("2 Timothy", 55))
	assert.Equal(t, "This is the book of Third John. Book number 64.", BookSpeech("3 John", 64))
	assert.Equal(t, "This is the book of Genesis. Book number 1.", BookSpeech("Genesis", 1))
	assert.Equal(t, "Song of Solomon", SpokenBookName("Song of Solomon"))
}

func TestMutedControllerSkipsCuesButSpeaks(t *testing.T) {
	rec := &recorder{}
	c := NewController(rec, rec, nil)
	c.SetMuted(true)

	c.Play(CueBookReveal)
	c.SpeakBook("Ruth", 8)
	c.Wait()

	assert.Empty(t, rec.cues)
	assert.Equal(t, []string{"This is the book of Ruth. Book number 8."}, rec.spoken)
}

func TestSpeechToggle(t *testing.T) {
	rec := &recorder{}
	c := NewController(rec, rec, nil)

	c.SetSpeechEnabled(false)
	c.Say("hello")
	c.Play(CueWhoosh)
	c.Wait()

	assert.Empty(t, rec.spoken)
	assert.Equal(t, []Cue{CueWhoosh}, rec.cues)
	assert.Equal(t, 1, rec.stops)
	assert.False(t, c.SpeechEnabled())
}

func TestPlaybackErrorsAreSwallowed(t *testing.T) {
	rec := &recorder{err: errors.New("device busy")}
	c := NewController(rec, rec, nil)

	c.Play(CueBounce)
	c.Say("x")
	c.Wait()

	assert.Len(t, rec.cues, 1)
}

func TestTextOutputWritesLines(t *testing.T) {
	var buf bytes.Buffer
	out := NewTextOutput(&buf)
	c := NewController(out, out, nil)

	c.Play(CueCoinEarned)
	c.Wait()
	c.Say("Well done")
	c.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"[sound] coin_earned", "[voice] Well done"}, lines)
}

func TestNewestUtteranceIsSpokenLast(t *testing.T) {
	for i := 0; i < 200; i++ {
		rec := &recorder{}
		c := NewController(nil, rec, nil)

		c.Say("first")
		c.Say("second")
		c.Wait()

		if assert.NotEmpty(t, rec.spoken) {
			assert.Equal(t, "second", rec.spoken[len(rec.spoken)-1], "run %d spoke %v", i, rec.spoken)
		}
		assert.LessOrEqual(t, len(rec.spoken), 2)
	}
}

func TestCuesListsEveryEffect(t *testing.T) {
	assert.Len(t, Cues(), 7)
}
