package progress

import (
	"fmt"
	"strconv"
	"strings"
)

// Storage keys. The values must stay stable across releases so existing
// saves keep loading.
const (
	KeyPlayerName = "playerName"
	KeyTotalCoins = "totalCoins"
	KeyStage      = "stage1Progress"
)

// BookKey addresses one book inside a level.
type BookKey struct {
	Level int
	Index int
}

func (k BookKey) String() string {
	return strconv.Itoa(k.Level) + "-" + strconv.Itoa(k.Index)
}

// MarshalText encodes the key as "<level>-<index>".
func (k BookKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *BookKey) UnmarshalText(b []byte) error {
	parsed, err := ParseBookKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func ParseBookKey(s string) (BookKey, error) {
	level, index, ok := strings.Cut(s, "-")
	if !ok {
		return BookKey{}, fmt.Errorf("book key %q: missing separator", s)
	}
	l, err := strconv.Atoi(level)
	if err != nil {
		return BookKey{}, fmt.Errorf("book key %q: level: %w", s, err)
	}
	i, err := strconv.Atoi(index)
	if err != nil {
		return BookKey{}, fmt.Errorf("book key %q: index: %w", s, err)
	}
	if l < 0 || i < 0 {
		return BookKey{}, fmt.Errorf("book key %q: negative component", s)
	}
	return BookKey{Level: l, Index: i}, nil
}
