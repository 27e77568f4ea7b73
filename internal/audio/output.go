package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// TextOutput stands in for a sound device: it prints cues and speech as
// lines on a writer.
type TextOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextOutput(w io.Writer) *TextOutput {
	return &TextOutput{w: w}
}

func (o *TextOutput) Play(_ context.Context, cue Cue) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := fmt.Fprintf(o.w, "[sound] %s\n", cue)
	return err
}

func (o *TextOutput) Speak(_ context.Context, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := fmt.Fprintf(o.w, "[voice] %s\n", text)
	return err
}

func (o *TextOutput) Stop(context.Context) error { return nil }
