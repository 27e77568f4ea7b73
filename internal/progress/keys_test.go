package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookKey(t *testing.T) {
	k, err := ParseBookKey("3-10")
	require.NoError(t, err)
	assert.Equal(t, BookKey{Level: 3, Index: 10}, k)
	assert.Equal(t, "3-10", k.String())

	for _, bad := range []string{"", "3", "a-1", "1-b", "-1-2", "1--2"} {
		_, err := ParseBookKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "revealed", OutcomeRevealed.String())
	assert.Equal(t, "capped", OutcomeCapped.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}
