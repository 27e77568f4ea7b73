package audio

import (
	"fmt"
	"regexp"
)

// Cue names a short sound effect.
type Cue string

const (
	CueButtonPress   Cue = "button_press"
	CueBookReveal    Cue = "book_reveal"
	CueLevelComplete Cue = "level_complete"
	CueCoinEarned    Cue = "coin_earned"
	CueBounce        Cue = "bounce"
	CueSuccess       Cue = "success"
	CueWhoosh        Cue = "whoosh"
)

func Cues() []Cue {
	return []Cue{CueButtonPress, CueBookReveal, CueLevelComplete, CueCoinEarned, CueBounce, CueSuccess, CueWhoosh}
}

var numberedBook = regexp.MustCompile(`^([123])\s+`)

var ordinalWords = map[string]string{"1": "First ", "2": "Second ", "3": "Third "}

// SpokenBookName turns "1 Kings" into "First Kings".
func SpokenBookName(name string) string {
	m := numberedBook.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	return ordinalWords[m[1]] + name[len(m[0]):]
}

// BookSpeech is the sentence read out when a book is revealed.
func BookSpeech(name string, ordinal int) string {
	return fmt.Sprintf("This is the book of %s. Book number %d.", SpokenBookName(name), ordinal)
}
